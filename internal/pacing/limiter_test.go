package pacing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPenaltyEscalatesAndResets(t *testing.T) {
	l := New(Config{BackoffBase: time.Second, BackoffMax: 8 * time.Second})

	if got := l.currentPenalty(); got != 0 {
		t.Fatalf("expected zero initial penalty, got %v", got)
	}

	expected := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second, // capped
	}
	for i, want := range expected {
		l.ObserveRateLimited()
		if got := l.currentPenalty(); got != want {
			t.Fatalf("after %d observations: expected %v, got %v", i+1, want, got)
		}
	}

	l.ObserveSuccess()
	if got := l.currentPenalty(); got != 0 {
		t.Fatalf("expected penalty reset on success, got %v", got)
	}
}

func TestWaitAppliesPenalty(t *testing.T) {
	l := New(Config{RequestsPerSecond: 1000, Burst: 1000, BackoffBase: time.Second})

	var slept time.Duration
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	l.ObserveRateLimited()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if slept != time.Second {
		t.Fatalf("expected 1s penalty sleep, got %v", slept)
	}

	// No penalty after success; Wait should not sleep.
	l.ObserveSuccess()
	slept = 0
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if slept != 0 {
		t.Fatalf("expected no penalty sleep, got %v", slept)
	}
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := New(Config{BackoffBase: time.Minute})
	l.ObserveRateLimited()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNilLimiterIsInert(t *testing.T) {
	var l *Limiter
	l.ObserveRateLimited()
	l.ObserveSuccess()
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("nil limiter Wait failed: %v", err)
	}
}
