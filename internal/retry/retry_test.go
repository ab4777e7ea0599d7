package retry

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	cfg := Config{MaxAttempts: 3, Delay: time.Millisecond, Backoff: 1}
	err := WithRetry(context.Background(), cfg, "test", func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	cfg := Config{MaxAttempts: 2, Delay: time.Millisecond, Backoff: 1}
	err := WithRetry(context.Background(), cfg, "test", func() error {
		calls++
		return fmt.Errorf("always fails")
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithRetryRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := WithRetry(ctx, DefaultConfig(), "test", func() error {
		calls++
		return fmt.Errorf("should not matter")
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("fn ran %d times on a cancelled context", calls)
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	permanent := fmt.Errorf("bad request")
	calls := 0
	cfg := Config{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		Backoff:     1,
		IsRetryable: func(err error) bool { return err != permanent },
	}
	err := WithRetry(context.Background(), cfg, "test", func() error {
		calls++
		return permanent
	})
	if err != permanent {
		t.Errorf("err = %v, want the permanent error unchanged", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryableStatus(t *testing.T) {
	for _, status := range []int{429, 500, 502, 503, 504} {
		if !RetryableStatus(status) {
			t.Errorf("status %d should be retryable", status)
		}
	}
	for _, status := range []int{200, 400, 401, 404} {
		if RetryableStatus(status) {
			t.Errorf("status %d should not be retryable", status)
		}
	}
}
