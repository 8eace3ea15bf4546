package cache

import (
	"context"
	"errors"
	"time"
)

// Connection attempts made by NewRedisCache.
const (
	connectAttempts = 3
	connectDelay    = 200 * time.Millisecond
)

// retry calls fn up to attempts times, doubling delay after each failure.
// Context errors returned by fn are not retried.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
