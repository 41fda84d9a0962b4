package recovery

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       attempts,
		InitialDelay:      time.Millisecond,
		MaxDelay:          5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		TotalTimeout:      time.Second,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := ExecuteWithRetry(context.Background(), fastPolicy(5), func() error {
		calls++
		if calls < 3 {
			return New(CatTranslationFailure, "transient", Context{})
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithRetry: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	typed := New(CatModelLoad, "still missing", Context{Pair: "en->es"})
	err := ExecuteWithRetry(context.Background(), fastPolicy(3), func() error {
		calls++
		return typed
	})
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	te, ok := AsError(err)
	if !ok || te != typed {
		t.Fatalf("final error = %v, want the typed error unchanged", err)
	}
}

func TestRetryUntypedErrorReturnsImmediately(t *testing.T) {
	calls := 0
	plain := errors.New("not retryable")
	err := ExecuteWithRetry(context.Background(), fastPolicy(5), func() error {
		calls++
		return plain
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, plain) {
		t.Fatalf("err = %v", err)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = ExecuteWithRetry(context.Background(), RetryPolicy{}, func() error {
		calls++
		return New(CatTranslationFailure, "fail", Context{})
	})
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := fastPolicy(10)
	policy.InitialDelay = 50 * time.Millisecond
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := ExecuteWithRetry(ctx, policy, func() error {
		calls++
		return New(CatTranslationFailure, "fail", Context{})
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryTotalTimeoutBudget(t *testing.T) {
	policy := fastPolicy(100)
	policy.TotalTimeout = 20 * time.Millisecond
	policy.InitialDelay = 10 * time.Millisecond
	calls := 0
	err := ExecuteWithRetry(context.Background(), policy, func() error {
		calls++
		return New(CatTranslationFailure, "fail", Context{})
	})
	if err == nil {
		t.Fatal("expected a final error")
	}
	if calls >= 100 {
		t.Fatalf("calls = %d, budget never applied", calls)
	}
}

func TestJitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 200; i++ {
		d := jitter(base)
		if d < 75*time.Millisecond || d > 125*time.Millisecond {
			t.Fatalf("jitter(%s) = %s, outside +-25%%", base, d)
		}
	}
	if jitter(0) != 0 {
		t.Fatal("jitter(0) should be 0")
	}
}

func TestExecuteWithTimeoutFast(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), "translate", time.Second, func() error { return nil })
	if err != nil {
		t.Fatalf("ExecuteWithTimeout: %v", err)
	}
}

func TestExecuteWithTimeoutZeroBudgetRunsInline(t *testing.T) {
	want := errors.New("inline")
	err := ExecuteWithTimeout(context.Background(), "translate", 0, func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestExecuteWithTimeoutExpires(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), "translate", 10*time.Millisecond, func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	te, ok := AsError(err)
	if !ok || te.Category != CatTranslationTimeout {
		t.Fatalf("err = %v, want TRANSLATION_TIMEOUT", err)
	}
	if te.Ctx.Operation != "translate" {
		t.Fatalf("operation = %q", te.Ctx.Operation)
	}
	if want := "translate did not complete within 10ms"; te.Msg != want {
		t.Fatalf("msg = %q, want %q", te.Msg, want)
	}
}

func TestExecuteWithTimeoutContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	err := ExecuteWithTimeout(ctx, "translate", time.Second, func() error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestEnginePolicyLookup(t *testing.T) {
	custom := RetryPolicy{MaxAttempts: 7, InitialDelay: time.Millisecond}
	e := newTestEngine(Config{Policies: map[Category]RetryPolicy{CatModelLoad: custom}}, Hooks{})
	if got := e.Policy(CatModelLoad); got.MaxAttempts != 7 {
		t.Fatalf("policy = %+v", got)
	}
	if got := e.Policy(CatGPUFailure); got.MaxAttempts != 3 {
		t.Fatalf("default policy = %+v", got)
	}
}
