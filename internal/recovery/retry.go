package recovery

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds retry behavior for one category.
type RetryPolicy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	TotalTimeout      time.Duration
}

// DefaultRetryPolicy is applied to categories without an explicit policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          2 * time.Second,
		BackoffMultiplier: 2.0,
		TotalTimeout:      10 * time.Second,
	}
}

// jitter applies +-25% to d.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	f := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(d) * f)
}

// ExecuteWithRetry runs op until it succeeds, the attempt budget is spent or
// the total timeout elapses. Only typed errors are retried; anything else is
// returned immediately. The final typed error is returned unchanged.
func ExecuteWithRetry(ctx context.Context, policy RetryPolicy, op func() error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	start := time.Now()
	delay := policy.InitialDelay
	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if _, ok := AsError(err); !ok {
			return err
		}
		if attempt >= policy.MaxAttempts {
			break
		}
		if policy.TotalTimeout > 0 && time.Since(start) >= policy.TotalTimeout {
			break
		}
		select {
		case <-time.After(jitter(delay)):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = time.Duration(float64(delay) * policy.BackoffMultiplier)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return err
}

// ExecuteWithTimeout runs op on its own goroutine and waits up to budget.
// On expiry the late result is discarded and a typed timeout is returned.
func ExecuteWithTimeout(ctx context.Context, name string, budget time.Duration, op func() error) error {
	if budget <= 0 {
		return op()
	}
	done := make(chan error, 1)
	go func() { done <- op() }()
	timer := time.NewTimer(budget)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return NewTimeout(name, budget)
	}
}
