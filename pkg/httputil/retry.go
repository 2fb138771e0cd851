package httputil

import (
	"context"
	"errors"
	"time"

	"github.com/cenk/backoff"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. It returns nil for nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether err is wrapped with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return RetryBackOff(ctx, attempts, NewBackOff(delay, 2, 0), fn)
}

// RetryBackOff is [Retry] with a caller-supplied schedule. The schedule is
// reset first; a [backoff.Stop] from it ends retrying early.
func RetryBackOff(ctx context.Context, attempts int, b backoff.BackOff, fn func() error) error {
	attempts = max(attempts, 1)
	b.Reset()
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i == attempts-1 {
			break
		}
		next := b.NextBackOff()
		if next == backoff.Stop {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next):
		}
	}
	return lastErr
}

// NewBackOff returns an exponential schedule starting at initial and growing
// by factor. jitter is the randomization factor in [0, 1); zero makes the
// schedule deterministic. The schedule never gives up on elapsed time; the
// attempt count passed to [RetryBackOff] bounds it instead.
func NewBackOff(initial time.Duration, factor, jitter float64) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = factor
	b.RandomizationFactor = jitter
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
