package pacing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds pacing tuning parameters.
type Config struct {
	// RequestsPerSecond is the steady-state call budget.
	RequestsPerSecond float64
	// Burst is the token bucket depth.
	Burst int
	// BackoffBase is the first penalty applied after a RateLimited outcome.
	BackoffBase time.Duration
	// BackoffMax caps the doubling penalty.
	BackoffMax time.Duration
}

// Limiter is the pacing gate placed in front of backend calls.
type Limiter struct {
	bucket *rate.Limiter

	mu      sync.Mutex
	penalty time.Duration

	base time.Duration
	max  time.Duration

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a [Limiter] from cfg, applying sane defaults for zero values.
func New(cfg Config) *Limiter {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	base := cfg.BackoffBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	max := cfg.BackoffMax
	if max <= 0 {
		max = 30 * time.Second
	}
	if max < base {
		max = base
	}

	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(rps), burst),
		base:   base,
		max:    max,
		sleep:  sleepCtx,
	}
}

// Wait blocks until the pacing policy admits the next call: the current
// penalty elapses first, then a bucket token is acquired. Returns the
// context error if cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}

	if penalty := l.currentPenalty(); penalty > 0 {
		if err := l.sleep(ctx, penalty); err != nil {
			return err
		}
	}

	return l.bucket.Wait(ctx)
}

// ObserveRateLimited doubles the penalty (starting from the base, capped at
// the max). Called for each backend outcome classified as RateLimited.
func (l *Limiter) ObserveRateLimited() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.penalty == 0:
		l.penalty = l.base
	case l.penalty >= l.max/2:
		l.penalty = l.max
	default:
		l.penalty *= 2
	}
}

// ObserveSuccess resets the penalty. Called for each successful backend call.
func (l *Limiter) ObserveSuccess() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.penalty = 0
	l.mu.Unlock()
}

func (l *Limiter) currentPenalty() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.penalty
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
