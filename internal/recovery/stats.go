package recovery

import "time"

// Stats accumulates engine counters. All fields are guarded by the engine
// mutex; Snapshot returns a deep copy.
type Stats struct {
	TotalErrors       uint64
	RecoveredErrors   uint64
	CriticalErrors    uint64
	ByCategory        map[Category]uint64
	ByStrategy        map[Strategy]uint64
	RecoveryTime      map[Category]time.Duration
	TotalRecoveryTime time.Duration
	LastError         time.Time
}

// StatsSnapshot returns a copy of the counters.
func (e *Engine) StatsSnapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := Stats{
		TotalErrors:       e.stats.TotalErrors,
		RecoveredErrors:   e.stats.RecoveredErrors,
		CriticalErrors:    e.stats.CriticalErrors,
		TotalRecoveryTime: e.stats.TotalRecoveryTime,
		LastError:         e.stats.LastError,
		ByCategory:        make(map[Category]uint64, len(e.stats.ByCategory)),
		ByStrategy:        make(map[Strategy]uint64, len(e.stats.ByStrategy)),
		RecoveryTime:      make(map[Category]time.Duration, len(e.stats.RecoveryTime)),
	}
	for k, v := range e.stats.ByCategory {
		out.ByCategory[k] = v
	}
	for k, v := range e.stats.ByStrategy {
		out.ByStrategy[k] = v
	}
	for k, v := range e.stats.RecoveryTime {
		out.RecoveryTime[k] = v
	}
	return out
}

// ResetStats zeroes all counters.
func (e *Engine) ResetStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = Stats{
		ByCategory:   make(map[Category]uint64),
		ByStrategy:   make(map[Strategy]uint64),
		RecoveryTime: make(map[Category]time.Duration),
	}
	e.recent = nil
}

// RecentEvents returns the tail of classified events, newest last.
func (e *Engine) RecentEvents() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.recent...)
}
