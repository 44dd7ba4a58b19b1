// Package util holds small shared helpers with no domain knowledge.
package util

import (
	"context"
	"math/rand/v2"
	"time"
)

// Backoff returns the delay to sleep before retry attempt n (1-based),
// using exponential growth with ±25% jitter. The base delay doubles each
// attempt and is capped at 30 seconds so a misconfigured caller can never
// stall a pipeline indefinitely.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt))
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2)) - d/4
	return d + jitter
}

// Retry calls fn up to attempts times, sleeping an exponential backoff
// between failures. It returns nil on the first success, the last error
// after the final attempt, or ctx.Err() if the context is cancelled while
// waiting. attempts < 1 is treated as 1.
func Retry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(Backoff(base, i)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
