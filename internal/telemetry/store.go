// Package telemetry is the process-wide performance metric store: bounded
// per-metric rings of timestamped data points, windowed statistics, a
// background resource sampler and a JSON export surface.
package telemetry

import (
	"sort"
	"sync"
	"time"
)

// Reserved metric name prefixes for the pipeline stages. Components are free
// to record under other names; these keep the stage dashboards stable.
const (
	PrefixSTT      = "stt."
	PrefixMT       = "mt."
	PrefixTTS      = "tts."
	PrefixVAD      = "vad."
	PrefixPipeline = "pipeline."
)

const defaultMaxDataPoints = 10000

// DataPoint is one recorded observation.
type DataPoint struct {
	Time  time.Time         `json:"time"`
	Value float64           `json:"value"`
	Unit  string            `json:"unit,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// ring is a bounded FIFO of data points.
type ring struct {
	points []DataPoint
	max    int
}

func (r *ring) push(p DataPoint) {
	r.points = append(r.points, p)
	if len(r.points) > r.max {
		r.points = r.points[len(r.points)-r.max:]
	}
}

// since returns the points newer than the cutoff, oldest first.
func (r *ring) since(cutoff time.Time) []DataPoint {
	i := sort.Search(len(r.points), func(i int) bool {
		return !r.points[i].Time.Before(cutoff)
	})
	out := make([]DataPoint, len(r.points)-i)
	copy(out, r.points[i:])
	return out
}

// Store holds all metrics. One mutex guards the map and every ring; inserts
// are brief so contention stays low.
type Store struct {
	mu      sync.Mutex
	metrics map[string]*ring
	max     int
}

// NewStore builds a store bounding every metric to maxDataPoints entries.
func NewStore(maxDataPoints int) *Store {
	if maxDataPoints <= 0 {
		maxDataPoints = defaultMaxDataPoints
	}
	return &Store{
		metrics: make(map[string]*ring),
		max:     maxDataPoints,
	}
}

// Record appends a bare observation to the named metric.
func (s *Store) Record(name string, value float64, unit string) {
	s.RecordTagged(name, value, unit, nil)
}

// RecordTagged appends an observation with tags. Timestamps within one
// metric are monotonically non-decreasing.
func (s *Store) RecordTagged(name string, value float64, unit string, tags map[string]string) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.metrics[name]
	if !ok {
		r = &ring{max: s.max}
		s.metrics[name] = r
	}
	if n := len(r.points); n > 0 && now.Before(r.points[n-1].Time) {
		now = r.points[n-1].Time
	}
	r.push(DataPoint{Time: now, Value: value, Unit: unit, Tags: tags})
}

// Names returns the recorded metric names, sorted.
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.metrics))
	for name := range s.metrics {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Points returns the data points of one metric within the window.
func (s *Store) Points(name string, window time.Duration) []DataPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.metrics[name]
	if !ok {
		return nil
	}
	return r.since(time.Now().Add(-window))
}

// Latest returns the newest data point of a metric.
func (s *Store) Latest(name string) (DataPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.metrics[name]
	if !ok || len(r.points) == 0 {
		return DataPoint{}, false
	}
	return r.points[len(r.points)-1], true
}

// Reset drops every metric (tests and admin use).
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = make(map[string]*ring)
}

// WindowStats summarizes one metric over a window.
type WindowStats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Unit   string  `json:"unit,omitempty"`
}

// Stats computes windowed statistics for one metric. A zero Count means no
// data in the window.
func (s *Store) Stats(name string, window time.Duration) WindowStats {
	points := s.Points(name, window)
	if len(points) == 0 {
		return WindowStats{}
	}
	values := make([]float64, len(points))
	sum := 0.0
	for i, p := range points {
		values[i] = p.Value
		sum += p.Value
	}
	sort.Float64s(values)
	return WindowStats{
		Count:  len(values),
		Min:    values[0],
		Max:    values[len(values)-1],
		Mean:   sum / float64(len(values)),
		Median: percentile(values, 0.50),
		P95:    percentile(values, 0.95),
		P99:    percentile(values, 0.99),
		Unit:   points[len(points)-1].Unit,
	}
}

// percentile takes the nearest-rank value of sorted data.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q*float64(len(sorted))+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
