// Package retry re-runs operations that fail transiently, such as dialling a
// store server that is still starting.
package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, doubling delay after each failure that
// retryable accepts. Other errors are returned at once. Returns the last
// error if every attempt fails, or ctx.Err() if ctx is done while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			return err
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
