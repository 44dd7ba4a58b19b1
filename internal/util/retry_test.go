package util

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBackoff_ZeroForFirstAttempt(t *testing.T) {
	t.Parallel()

	if d := Backoff(time.Second, 0); d != 0 {
		t.Errorf("expected 0 for attempt 0, got %v", d)
	}
}

func TestBackoff_GrowsAndIsCapped(t *testing.T) {
	t.Parallel()

	// With jitter at ±25%, attempt 1 of base 1s lies in [1.5s, 2.5s].
	d1 := Backoff(time.Second, 1)
	if d1 < 1500*time.Millisecond || d1 > 2500*time.Millisecond {
		t.Errorf("attempt 1: %v outside expected jitter window", d1)
	}

	// Attempt 30 would be ~2^30s without the cap; must stay near 30s.
	d30 := Backoff(time.Second, 30)
	if d30 > 40*time.Second {
		t.Errorf("attempt 30: %v exceeds cap window", d30)
	}
}

func TestRetry_SucceedsFirstTry(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ReturnsLastError(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("attempt %d failed", calls)
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "attempt 2 failed" {
		t.Errorf("expected last error, got %q", err)
	}
}

func TestRetry_HonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 5, time.Second, func() error {
		return errors.New("always fails")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
