// Package retry provides a reusable retry policy with pluggable backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is wrapped into the error returned when every attempt failed
// with a retryable error.
var ErrExhausted = errors.New("retry attempts exhausted")

// Backoff returns the delay before the given attempt (attempt >= 2).
type Backoff func(attempt int) time.Duration

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy describes how an operation is retried
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Retryable   func(error) bool

	// Sleep defaults to a context-aware timer wait
	Sleep SleepFunc
}

// Fixed waits d between every attempt
func Fixed(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Exponential doubles from initial, capped at max
func Exponential(initial, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := initial
		for i := 2; i < attempt; i++ {
			d *= 2
			if max > 0 && d >= max {
				return max
			}
		}
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the policy
// runs out of attempts. It reports the number of attempts made. On exhaustion
// the value from the final attempt is returned alongside the error.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	var last T

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 && p.Backoff != nil {
			if err := sleep(ctx, p.Backoff(attempt)); err != nil {
				return last, attempt - 1, err
			}
		}
		if err := ctx.Err(); err != nil {
			return last, attempt - 1, err
		}

		v, err := fn(ctx, attempt)
		if err == nil {
			return v, attempt, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return v, attempt, err
		}
		last, lastErr = v, err
	}

	return last, maxAttempts, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, lastErr)
}

// ContextSleep waits for d unless ctx is cancelled first
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
