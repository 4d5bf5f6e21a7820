// Package retry provides a bounded retry policy with an exponential backoff
// schedule, shared by the external-call collaborators.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy bounds retries of a fallible operation.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay seeds the backoff: delay before attempt n+1 is
	// BaseDelay << (n-1), i.e. 1s, 2s, 4s with a 1s base.
	BaseDelay time.Duration
}

// Default is three attempts backed off 1s then 2s.
var Default = Policy{MaxAttempts: 3, BaseDelay: time.Second}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns the underlying
// error immediately instead of burning the remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Delay returns the backoff before the given 1-based attempt. Attempt 1 has
// no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return p.BaseDelay << uint(attempt-2)
}

// Do runs fn up to MaxAttempts times, sleeping the backoff schedule between
// tries. The context cancels both the waits and further attempts. The last
// error is returned once attempts are exhausted.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(ctx); err != nil {
			var pe *permanentError
			if errors.As(err, &pe) {
				return pe.err
			}
			lastErr = err
			if ctx.Err() != nil {
				return err
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
