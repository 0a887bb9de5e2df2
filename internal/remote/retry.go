package remote

import (
	"context"
	"errors"
	"time"
)

// retryableError marks failures worth another attempt: network errors and 5xx.
type retryableError struct {
	err error
}

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func retryable(err error) error {
	if err == nil {
		return nil
	}
	return retryableError{err: err}
}

var baseDelay = 500 * time.Millisecond

func retry[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := range maxAttempts {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		var r retryableError
		if !errors.As(err, &r) {
			return zero, err
		}
		lastErr = r.err
		if i < maxAttempts-1 {
			delay := time.Duration(1<<i) * baseDelay // 500ms, 1s, 2s, 4s...
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, lastErr
}
