package recovery

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestEngine(cfg Config, hooks Hooks) *Engine {
	return NewEngine(cfg, hooks, zerolog.Nop())
}

func TestClassifyKeywords(t *testing.T) {
	cases := []struct {
		msg string
		cat Category
		sev Severity
	}{
		{"model checksum mismatch", CatModelCorrupt, SevCritical},
		{"failed to load model file", CatModelLoad, SevError},
		{"cuda out of memory", CatMemoryExhaustion, SevError},
		{"gpu device lost", CatGPUFailure, SevWarning},
		{"operation timed out", CatTranslationTimeout, SevWarning},
		{"inference produced no tokens", CatTranslationFailure, SevError},
		{"invalid option beam_size", CatConfigError, SevError},
		{"connection refused", CatNetworkError, SevError},
		{"something else entirely", CatUnknown, SevError},
		{"fatal crash in worker", CatUnknown, SevFatal},
	}
	for _, c := range cases {
		cat, sev := Classify(c.msg)
		if cat != c.cat || sev != c.sev {
			t.Errorf("Classify(%q) = (%s, %s), want (%s, %s)", c.msg, cat, sev, c.cat, c.sev)
		}
	}
}

func TestErrorString(t *testing.T) {
	e := New(CatModelLoad, "no artifact", Context{Pair: "en->es"})
	if got := e.Error(); got != "MODEL_LOAD [en->es]: no artifact" {
		t.Fatalf("Error() = %q", got)
	}
	e2 := New(CatConfigError, "bad value", Context{})
	if got := e2.Error(); got != "CONFIG_ERROR: bad value" {
		t.Fatalf("Error() = %q", got)
	}
}

func TestWrapPassesThroughTyped(t *testing.T) {
	orig := New(CatGPUFailure, "device fault", Context{Pair: "en->es"})
	got := Wrap(orig, Context{Pair: "ignored"})
	if got != orig {
		t.Fatal("Wrap rewrapped an already typed error")
	}
	if Wrap(nil, Context{}) != nil {
		t.Fatal("Wrap(nil) should be nil")
	}
}

func TestWrapClassifiesUntyped(t *testing.T) {
	err := errors.New("model load failed: missing file")
	te := Wrap(err, Context{Component: "models"})
	if te.Category != CatModelLoad {
		t.Fatalf("category = %s, want MODEL_LOAD", te.Category)
	}
	if !errors.Is(te, err) {
		t.Fatal("wrapped chain lost the original error")
	}
}

func TestHandleErrorRetryStrategy(t *testing.T) {
	e := newTestEngine(Config{EnableRetry: true}, Hooks{})
	out := e.HandleError(New(CatTranslationFailure, "decode failed", Context{}), Context{})
	if out.Strategy != StrategyRetry || !out.Recovered {
		t.Fatalf("outcome = %+v, want recovered retry", out)
	}

	e2 := newTestEngine(Config{EnableRetry: false}, Hooks{})
	out = e2.HandleError(New(CatTranslationFailure, "decode failed", Context{}), Context{})
	if out.Recovered {
		t.Fatal("retry outcome recovered with retries disabled")
	}
}

func TestHandleErrorFallbackCPU(t *testing.T) {
	var gotPair string
	e := newTestEngine(Config{}, Hooks{
		FallbackToCPU: func(pair string) error { gotPair = pair; return nil },
	})
	out := e.HandleError(New(CatGPUFailure, "device fault", Context{Pair: "en->es"}), Context{Pair: "en->es"})
	if out.Strategy != StrategyFallbackCPU || !out.Recovered {
		t.Fatalf("outcome = %+v", out)
	}
	if gotPair != "en->es" {
		t.Fatalf("hook pair = %q", gotPair)
	}
}

func TestHandleErrorFallbackHookFails(t *testing.T) {
	e := newTestEngine(Config{}, Hooks{
		FallbackToCPU: func(string) error { return errors.New("no cpu slot") },
	})
	out := e.HandleError(New(CatMemoryExhaustion, "alloc failed", Context{}), Context{})
	if out.Recovered {
		t.Fatal("recovered despite hook failure")
	}
}

func TestHandleErrorMissingHookDoesNotPanic(t *testing.T) {
	e := newTestEngine(Config{}, Hooks{})
	out := e.HandleError(New(CatGPUFailure, "device fault", Context{}), Context{})
	if out.Recovered {
		t.Fatal("recovered without a fallback hook")
	}
}

func TestHandleErrorReloadModel(t *testing.T) {
	// ModelCorrupt is critical, so degraded mode must stay off to reach the
	// reload strategy.
	reloaded := false
	e := newTestEngine(Config{}, Hooks{
		ReloadModel: func(string) error { reloaded = true; return nil },
	})
	out := e.HandleError(New(CatModelCorrupt, "checksum mismatch", Context{Pair: "en->es"}), Context{})
	if out.Strategy != StrategyReloadModel || !out.Recovered || !reloaded {
		t.Fatalf("outcome = %+v, reloaded = %v", out, reloaded)
	}
}

func TestHandleErrorConfigFailSafe(t *testing.T) {
	e := newTestEngine(Config{EnableRetry: true}, Hooks{})
	out := e.HandleError(New(CatConfigError, "invalid option", Context{}), Context{})
	if out.Strategy != StrategyFailSafe {
		t.Fatalf("strategy = %s", out.Strategy)
	}
	if !out.RequiresUserIntervention || out.Recovered {
		t.Fatalf("outcome = %+v, want user intervention, not recovered", out)
	}
}

func TestCriticalSeverityForcesDegraded(t *testing.T) {
	reloaded := false
	e := newTestEngine(Config{EnableDegradedMode: true}, Hooks{
		ReloadModel: func(string) error { reloaded = true; return nil },
	})
	out := e.HandleError(New(CatModelCorrupt, "checksum mismatch", Context{}), Context{})
	if out.Strategy != StrategyDegraded || !out.Recovered {
		t.Fatalf("outcome = %+v", out)
	}
	if reloaded {
		t.Fatal("reload hook fired under degraded strategy")
	}
	if !e.IsInDegradedMode() {
		t.Fatal("engine not degraded after degraded strategy")
	}
}

func TestSetStrategyOverride(t *testing.T) {
	e := newTestEngine(Config{}, Hooks{})
	e.SetStrategy(CatNetworkError, StrategyFailSafe)
	out := e.HandleError(New(CatNetworkError, "connection refused", Context{}), Context{})
	if out.Strategy != StrategyFailSafe {
		t.Fatalf("strategy = %s, want FAIL_SAFE", out.Strategy)
	}
}

func TestUnmappedCategoriesDefaultToRetry(t *testing.T) {
	e := newTestEngine(Config{EnableRetry: true}, Hooks{})
	out := e.HandleError(errors.New("network connection refused by peer"), Context{})
	if out.Strategy != StrategyRetry || !out.Recovered {
		t.Fatalf("network outcome = %+v, want recovered RETRY", out)
	}
	out = e.HandleError(errors.New("something else entirely"), Context{})
	if out.Strategy != StrategyRetry || !out.Recovered {
		t.Fatalf("unknown outcome = %+v, want recovered RETRY", out)
	}
}

func TestDegradedModeLifecycle(t *testing.T) {
	e := newTestEngine(Config{EnableDegradedMode: true}, Hooks{})
	e.EnterDegradedMode("gpu gone", nil)
	active, reason, rs := e.DegradedInfo()
	if !active || reason != "gpu gone" {
		t.Fatalf("info = (%v, %q)", active, reason)
	}
	if len(rs) != 2 || rs[0] != "cpu_only" || rs[1] != "no_alternatives" {
		t.Fatalf("default restrictions = %v", rs)
	}
	if !e.Restricted("cpu_only") || e.Restricted("no_batching") {
		t.Fatal("Restricted lookup wrong")
	}
	e.ExitDegradedMode()
	if e.IsInDegradedMode() {
		t.Fatal("still degraded after exit")
	}
}

func TestDegradedReentryExtendsRestrictionsOnly(t *testing.T) {
	e := newTestEngine(Config{EnableDegradedMode: true}, Hooks{})
	e.EnterDegradedMode("first", []string{"cpu_only"})
	e.EnterDegradedMode("second", []string{"cpu_only", "no_batching"})
	active, reason, rs := e.DegradedInfo()
	if !active || reason != "first" {
		t.Fatalf("reason = %q, want the original", reason)
	}
	if len(rs) != 2 || rs[1] != "no_batching" {
		t.Fatalf("restrictions = %v", rs)
	}
}

func TestDegradedModeDisabledIsNoop(t *testing.T) {
	e := newTestEngine(Config{}, Hooks{})
	e.EnterDegradedMode("gpu gone", nil)
	if e.IsInDegradedMode() {
		t.Fatal("entered degraded mode while disabled")
	}
}

func TestDegradedModeExpires(t *testing.T) {
	e := newTestEngine(Config{EnableDegradedMode: true, MaxDegradedDuration: 10 * time.Millisecond}, Hooks{})
	e.EnterDegradedMode("transient", nil)
	if !e.IsInDegradedMode() {
		t.Fatal("not degraded right after entry")
	}
	time.Sleep(25 * time.Millisecond)
	if e.IsInDegradedMode() {
		t.Fatal("degraded mode survived its bound")
	}
	if active, _, _ := e.DegradedInfo(); active {
		t.Fatal("expiry did not clear the state")
	}
}

func TestRestrictedExpiresStaleState(t *testing.T) {
	e := newTestEngine(Config{EnableDegradedMode: true, MaxDegradedDuration: 10 * time.Millisecond}, Hooks{})
	e.EnterDegradedMode("transient", []string{"cpu_only"})
	if !e.Restricted("cpu_only") {
		t.Fatal("restriction missing right after entry")
	}
	time.Sleep(25 * time.Millisecond)
	if e.Restricted("cpu_only") {
		t.Fatal("restriction survived the degraded bound")
	}
	if active, _, _ := e.DegradedInfo(); active {
		t.Fatal("Restricted did not expire the state")
	}
}

func TestStatsSnapshot(t *testing.T) {
	e := newTestEngine(Config{EnableRetry: true}, Hooks{})
	e.HandleError(New(CatTranslationFailure, "decode failed", Context{}), Context{})
	e.HandleError(New(CatConfigError, "bad value", Context{}), Context{})
	e.HandleError(New(CatModelCorrupt, "checksum mismatch", Context{}), Context{})

	s := e.StatsSnapshot()
	if s.TotalErrors != 3 || s.CriticalErrors != 1 || s.RecoveredErrors != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if s.ByCategory[CatConfigError] != 1 || s.ByStrategy[StrategyRetry] != 1 {
		t.Fatalf("breakdowns = %v %v", s.ByCategory, s.ByStrategy)
	}
	if s.LastError.IsZero() {
		t.Fatal("LastError not set")
	}
	if got := e.RecentEvents(); len(got) != 3 {
		t.Fatalf("recent events = %d", len(got))
	}

	e.ResetStats()
	s = e.StatsSnapshot()
	if s.TotalErrors != 0 || len(e.RecentEvents()) != 0 {
		t.Fatal("ResetStats did not clear counters")
	}
}

func TestRecentEventsCapped(t *testing.T) {
	e := newTestEngine(Config{}, Hooks{})
	for i := 0; i < 80; i++ {
		e.HandleError(errors.New("something else entirely"), Context{})
	}
	if got := len(e.RecentEvents()); got != 64 {
		t.Fatalf("recent tail = %d, want 64", got)
	}
}

func TestCategoryPredicates(t *testing.T) {
	if !IsTimeout(NewTimeout("translate", time.Second)) {
		t.Fatal("IsTimeout false for a timeout")
	}
	if !IsModelLoad(New(CatModelLoad, "missing", Context{})) {
		t.Fatal("IsModelLoad false")
	}
	if !IsConfigError(New(CatConfigError, "bad", Context{})) {
		t.Fatal("IsConfigError false")
	}
	if IsTimeout(errors.New("timed out")) {
		t.Fatal("predicate matched an untyped error")
	}
}
