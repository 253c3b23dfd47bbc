package resilience

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy bounds how an adapter call is retried.
type Policy struct {
	// Attempts is the total number of tries, first one included.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Jitter is the +/- fraction applied to each delay.
	Jitter float64
	// Retryable overrides IsTransient when set.
	Retryable func(error) bool
	OnRetry   func(attempt int, err error)
}

// DefaultPolicy is two attempts with a short backoff, sized to fit inside a
// per-adapter deadline.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  2,
		BaseDelay: 250 * time.Millisecond,
		MaxDelay:  2 * time.Second,
		Jitter:    0.2,
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx is done.
func Retry[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var (
		val T
		err error
	)
	for attempt := 1; ; attempt++ {
		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}
		if attempt >= p.Attempts || ctx.Err() != nil || !retryable(err) {
			return val, err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		t := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return val, err
		case <-t.C:
		}
	}
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * p.Jitter * float64(d))
	}
	if d < 0 {
		return 0
	}
	return d
}

// LogRetry returns an OnRetry hook that logs through zap.
func LogRetry(adapter string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying adapter call",
			zap.String("adapter", adapter),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
