package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("RetryWithBackoff() error = %v", err)
	}
	if result != 42 {
		t.Errorf("RetryWithBackoff() = %d, want 42", result)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffReturnsLastError(t *testing.T) {
	wantErr := errors.New("permanent")
	calls := 0
	_, err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("RetryWithBackoff() error = %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoffStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := RetryWithBackoff(ctx, 5, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RetryWithBackoff() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoffStopsOnDeadlineError(t *testing.T) {
	calls := 0
	_, err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RetryWithBackoff() error = %v, want context.DeadlineExceeded", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (deadline errors must not be retried)", calls)
	}
}

func TestRetryWithBackoffBackoffGrows(t *testing.T) {
	var stamps []time.Time
	_, _ = RetryWithBackoff(context.Background(), 3, 10*time.Millisecond, func(ctx context.Context) (int, error) {
		stamps = append(stamps, time.Now())
		return 0, errors.New("transient")
	})
	if len(stamps) != 3 {
		t.Fatalf("attempts = %d, want 3", len(stamps))
	}
	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	if second < first {
		t.Errorf("second delay %v shorter than first %v, want exponential growth", second, first)
	}
}

func TestRetry2WithBackoff(t *testing.T) {
	calls := 0
	a, b, err := Retry2WithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) (string, int, error) {
		calls++
		if calls < 2 {
			return "", 0, errors.New("transient")
		}
		return "ok", 7, nil
	})
	if err != nil {
		t.Fatalf("Retry2WithBackoff() error = %v", err)
	}
	if a != "ok" || b != 7 {
		t.Errorf("Retry2WithBackoff() = (%q, %d), want (ok, 7)", a, b)
	}
}
