package recovery

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Strategy names a recovery action.
type Strategy string

const (
	StrategyRetry       Strategy = "RETRY"
	StrategyFallbackCPU Strategy = "FALLBACK_CPU"
	StrategyReloadModel Strategy = "RELOAD_MODEL"
	StrategyFailSafe    Strategy = "FAIL_SAFE"
	StrategyDegraded    Strategy = "DEGRADED_MODE"
	StrategyNone        Strategy = "NONE"
)

// Hooks are the callbacks the engine uses to act on the model layer.
// The engine's owner wires them at construction; the engine never holds a
// direct reference to the model manager, which keeps the dependency acyclic.
type Hooks struct {
	// FallbackToCPU drops GPU placement for the pair and frees its blocks.
	FallbackToCPU func(pairKey string) error
	// ReloadModel validates integrity and reloads the pair.
	ReloadModel func(pairKey string) error
}

// Outcome reports what a HandleError call did.
type Outcome struct {
	Strategy  Strategy
	Recovered bool
	// RequiresUserIntervention is set for configuration errors.
	RequiresUserIntervention bool
}

// Config tunes the engine.
type Config struct {
	EnableRetry         bool
	EnableDegradedMode  bool
	MaxDegradedDuration time.Duration
	// Policies overrides the retry policy per category.
	Policies map[Category]RetryPolicy
}

// Engine is the single arbiter of classification, strategy selection and
// recovery. One mutex guards all mutable state; recovery actions run with
// the mutex released.
type Engine struct {
	mu    sync.Mutex
	log   zerolog.Logger
	cfg   Config
	hooks Hooks

	strategies map[Category]Strategy
	policies   map[Category]RetryPolicy

	degraded degradedState
	stats    Stats
	recent   []Event
}

// degradedState tracks whether the engine is holding the system degraded.
type degradedState struct {
	Active       bool
	Reason       string
	Start        time.Time
	Restrictions []string
}

var defaultStrategies = map[Category]Strategy{
	CatTranslationTimeout: StrategyRetry,
	CatTranslationFailure: StrategyRetry,
	CatModelLoad:          StrategyRetry,
	CatGPUFailure:         StrategyFallbackCPU,
	CatMemoryExhaustion:   StrategyFallbackCPU,
	CatModelCorrupt:       StrategyReloadModel,
	CatConfigError:        StrategyFailSafe,
}

// NewEngine builds the engine. Hooks may be zero-valued; missing hooks make
// the corresponding strategies report failure instead of panicking.
func NewEngine(cfg Config, hooks Hooks, log zerolog.Logger) *Engine {
	if cfg.MaxDegradedDuration <= 0 {
		cfg.MaxDegradedDuration = 10 * time.Minute
	}
	e := &Engine{
		log:        log,
		cfg:        cfg,
		hooks:      hooks,
		strategies: make(map[Category]Strategy, len(defaultStrategies)),
		policies:   make(map[Category]RetryPolicy),
	}
	for c, s := range defaultStrategies {
		e.strategies[c] = s
	}
	for c, p := range cfg.Policies {
		e.policies[c] = p
	}
	e.stats.ByCategory = make(map[Category]uint64)
	e.stats.ByStrategy = make(map[Strategy]uint64)
	e.stats.RecoveryTime = make(map[Category]time.Duration)
	return e
}

// SetStrategy registers a per-category override.
func (e *Engine) SetStrategy(cat Category, s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[cat] = s
}

// Policy returns the retry policy for a category.
func (e *Engine) Policy(cat Category) RetryPolicy {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.policies[cat]; ok {
		return p
	}
	return DefaultRetryPolicy()
}

// strategyFor picks the strategy under the severity override rule.
// Categories without an explicit strategy (network errors, unknown) are
// treated as transient and retried.
func (e *Engine) strategyFor(ev Event) Strategy {
	if ev.Severity >= SevCritical && e.cfg.EnableDegradedMode {
		return StrategyDegraded
	}
	if s, ok := e.strategies[ev.Category]; ok {
		return s
	}
	return StrategyRetry
}

// Report classifies an error into an event without acting on it.
func (e *Engine) Report(err error, ctx Context) Event {
	te := Wrap(err, ctx)
	return Event{Category: te.Category, Severity: te.Severity, Message: te.Msg, Context: te.Ctx, Timestamp: time.Now()}
}

// HandleError runs the classification -> strategy -> recovery pipeline for
// one error. All actions are logged with the full context.
func (e *Engine) HandleError(err error, ctx Context) Outcome {
	ev := e.Report(err, ctx)

	e.mu.Lock()
	strat := e.strategyFor(ev)
	e.stats.TotalErrors++
	e.stats.ByCategory[ev.Category]++
	e.stats.ByStrategy[strat]++
	e.stats.LastError = ev.Timestamp
	if ev.Severity >= SevCritical {
		e.stats.CriticalErrors++
	}
	e.recent = append(e.recent, ev)
	if len(e.recent) > 64 {
		e.recent = e.recent[len(e.recent)-64:]
	}
	e.mu.Unlock()

	e.log.Warn().
		Str("category", string(ev.Category)).
		Str("severity", ev.Severity.String()).
		Str("strategy", string(strat)).
		Str("component", ev.Context.Component).
		Str("operation", ev.Context.Operation).
		Str("pair", ev.Context.Pair).
		Msg(ev.Message)

	start := time.Now()
	out := Outcome{Strategy: strat}
	switch strat {
	case StrategyRetry:
		// The caller owns the retry loop through ExecuteWithRetry; handling
		// a retryable error here just acknowledges it.
		out.Recovered = e.cfg.EnableRetry
	case StrategyFallbackCPU:
		if e.hooks.FallbackToCPU != nil {
			out.Recovered = e.hooks.FallbackToCPU(ev.Context.Pair) == nil
		}
	case StrategyReloadModel:
		if e.hooks.ReloadModel != nil {
			out.Recovered = e.hooks.ReloadModel(ev.Context.Pair) == nil
		}
	case StrategyFailSafe:
		out.RequiresUserIntervention = true
	case StrategyDegraded:
		e.EnterDegradedMode(ev.Message, nil)
		out.Recovered = true
	}

	e.mu.Lock()
	if out.Recovered {
		e.stats.RecoveredErrors++
		e.stats.RecoveryTime[ev.Category] += time.Since(start)
		e.stats.TotalRecoveryTime += time.Since(start)
	}
	e.mu.Unlock()
	return out
}

// EnterDegradedMode switches to the degraded state. Re-entry while already
// degraded only extends the restriction set, never the clock.
func (e *Engine) EnterDegradedMode(reason string, restrictions []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cfg.EnableDegradedMode {
		return
	}
	if e.degraded.Active {
		e.degraded.Restrictions = appendUnique(e.degraded.Restrictions, restrictions)
		return
	}
	if len(restrictions) == 0 {
		restrictions = []string{"cpu_only", "no_alternatives"}
	}
	e.degraded = degradedState{Active: true, Reason: reason, Start: time.Now(), Restrictions: restrictions}
	e.log.Warn().Str("reason", reason).Strs("restrictions", restrictions).Msg("entering degraded mode")
}

// ExitDegradedMode clears the degraded state.
func (e *Engine) ExitDegradedMode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.degraded.Active {
		e.log.Info().Dur("duration", time.Since(e.degraded.Start)).Msg("exiting degraded mode")
	}
	e.degraded = degradedState{}
}

// IsInDegradedMode reports the state, expiring it when the bounded duration
// has passed. Check and expiry happen in one critical section.
func (e *Engine) IsInDegradedMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degradedActiveLocked()
}

// degradedActiveLocked checks and expires the degraded state. Caller holds
// e.mu.
func (e *Engine) degradedActiveLocked() bool {
	if !e.degraded.Active {
		return false
	}
	if time.Since(e.degraded.Start) > e.cfg.MaxDegradedDuration {
		e.log.Info().Msg("degraded mode expired")
		e.degraded = degradedState{}
		return false
	}
	return true
}

// DegradedInfo returns (active, reason, restrictions) without expiring.
func (e *Engine) DegradedInfo() (bool, string, []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rs := append([]string(nil), e.degraded.Restrictions...)
	return e.degraded.Active, e.degraded.Reason, rs
}

// Restricted reports whether the named restriction is currently in force.
// Expiry check and restriction scan share one critical section so the state
// cannot change between them.
func (e *Engine) Restricted(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.degradedActiveLocked() {
		return false
	}
	for _, r := range e.degraded.Restrictions {
		if r == name {
			return true
		}
	}
	return false
}

func appendUnique(dst, src []string) []string {
next:
	for _, s := range src {
		for _, d := range dst {
			if d == s {
				continue next
			}
		}
		dst = append(dst, s)
	}
	return dst
}
