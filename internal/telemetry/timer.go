package telemetry

import "time"

// Timer records elapsed wall time into a metric when stopped. Use with
// defer so the measurement covers the whole scope:
//
//	defer store.StartTimer("mt.translate_ms").Stop()
type Timer struct {
	store *Store
	name  string
	start time.Time
	done  bool
}

// StartTimer begins a latency measurement for the named metric.
func (s *Store) StartTimer(name string) *Timer {
	return &Timer{store: s, name: name, start: time.Now()}
}

// Stop records the elapsed milliseconds. Safe to call more than once; only
// the first call records.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.done {
		return elapsed
	}
	t.done = true
	t.store.Record(t.name, float64(elapsed.Microseconds())/1000.0, "ms")
	return elapsed
}
