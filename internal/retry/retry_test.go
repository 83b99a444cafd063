package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestDoSingleAttemptByDefault(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Policy{}.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return &StatusError{Op: "op", StatusCode: http.StatusServiceUnavailable}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected one attempt, got %d", calls)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
}

func TestDoRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	policy := Policy{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Second,
		Sleep:     func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	err := policy.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Op: "op", StatusCode: http.StatusTooManyRequests}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(slept) != 2 || slept[0] != 100*time.Millisecond || slept[1] != 200*time.Millisecond {
		t.Fatalf("unexpected backoff sequence: %v", slept)
	}
}

func TestDoHonoursRetryAfter(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	policy := Policy{Attempts: 2, MaxDelay: 5 * time.Second, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	_ = policy.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return &StatusError{Op: "op", StatusCode: http.StatusServiceUnavailable, RetryAfter: 30 * time.Second}
	})
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != 5*time.Second {
		t.Fatalf("expected capped retry-after delay, got %v", slept)
	}
}

func TestDoStopsOnClientError(t *testing.T) {
	t.Parallel()

	calls := 0
	policy := Policy{Attempts: 5, Sleep: func(time.Duration) {}}
	err := policy.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return &StatusError{Op: "op", StatusCode: http.StatusUnauthorized}
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected single failed call, got calls=%d err=%v", calls, err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	if d, ok := ParseRetryAfter("7"); !ok || d != 7*time.Second {
		t.Fatalf("seconds form: got %v %v", d, ok)
	}
	if _, ok := ParseRetryAfter("-1"); ok {
		t.Fatal("negative seconds should be rejected")
	}
	if _, ok := ParseRetryAfter("soon"); ok {
		t.Fatal("garbage should be rejected")
	}
}
