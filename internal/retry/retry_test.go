package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func noSleep(context.Context, time.Duration) error { return nil }

func TestDo_SucceedsAfterRetries(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff:     Fixed(2 * time.Second),
		Retryable:   func(err error) bool { return errors.Is(err, errTransient) },
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	calls := 0
	v, attempts, err := Do(context.Background(), p, func(_ context.Context, attempt int) (string, error) {
		calls++
		if attempt < 3 {
			return "", errTransient
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "ok" || attempts != 3 || calls != 3 {
		t.Errorf("got v=%q attempts=%d calls=%d", v, attempts, calls)
	}
	if len(slept) != 2 || slept[0] != 2*time.Second {
		t.Errorf("expected two 2s sleeps, got %v", slept)
	}
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	p := Policy{MaxAttempts: 5, Backoff: Fixed(time.Second), Retryable: func(err error) bool { return errors.Is(err, errTransient) }, Sleep: noSleep}

	_, attempts, err := Do(context.Background(), p, func(context.Context, int) (int, error) {
		return 0, fatal
	})

	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if errors.Is(err, ErrExhausted) {
		t.Error("non-retryable error must not be reported as exhausted")
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_Exhausted(t *testing.T) {
	p := Policy{MaxAttempts: 3, Backoff: Fixed(time.Second), Retryable: func(error) bool { return true }, Sleep: noSleep}

	v, attempts, err := Do(context.Background(), p, func(_ context.Context, attempt int) (int, error) {
		return attempt, errTransient
	})

	if !errors.Is(err, ErrExhausted) || !errors.Is(err, errTransient) {
		t.Fatalf("expected exhausted wrapping transient, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if v != 3 {
		t.Errorf("expected last attempt value 3, got %d", v)
	}
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, Backoff: Fixed(time.Hour), Retryable: func(error) bool { return true }}

	calls := 0
	_, attempts, err := Do(ctx, p, func(context.Context, int) (int, error) {
		calls++
		cancel()
		return 0, errTransient
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 || attempts != 1 {
		t.Errorf("expected a single attempt, got calls=%d attempts=%d", calls, attempts)
	}
}

func TestExponential(t *testing.T) {
	b := Exponential(time.Second, 5*time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{5, 5 * time.Second},
		{9, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := b(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
