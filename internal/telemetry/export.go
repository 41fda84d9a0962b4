package telemetry

import (
	"encoding/json"
	"time"
)

// MetricExport is one metric's slice of the JSON snapshot.
type MetricExport struct {
	Stats  WindowStats `json:"stats"`
	Points []DataPoint `json:"points,omitempty"`
}

// Snapshot summarizes every metric over the window.
type Snapshot struct {
	GeneratedAt   time.Time               `json:"generated_at"`
	WindowMinutes float64                 `json:"window_minutes"`
	Metrics       map[string]MetricExport `json:"metrics"`
}

// Export builds a snapshot of all metrics over the window. includePoints
// controls whether raw data points ride along with the statistics.
func (s *Store) Export(window time.Duration, includePoints bool) Snapshot {
	snap := Snapshot{
		GeneratedAt:   time.Now(),
		WindowMinutes: window.Minutes(),
		Metrics:       make(map[string]MetricExport),
	}
	for _, name := range s.Names() {
		me := MetricExport{Stats: s.Stats(name, window)}
		if includePoints {
			me.Points = s.Points(name, window)
		}
		snap.Metrics[name] = me
	}
	return snap
}

// ExportJSON renders the snapshot as indented JSON.
func (s *Store) ExportJSON(window time.Duration, includePoints bool) ([]byte, error) {
	return json.MarshalIndent(s.Export(window, includePoints), "", "  ")
}
