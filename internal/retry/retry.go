// Package retry provides a small retry helper with exponential backoff
// for calls to the Gemini API.
package retry

import (
	"context"
	"fmt"
	"time"

	"dailydigest/internal/logger"
)

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64

	// IsRetryable, when set, stops the loop early for errors that a
	// further attempt cannot fix.
	IsRetryable func(error) bool
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       time.Second,
		Backoff:     2.0,
	}
}

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// WithRetry runs fn until it succeeds, attempts run out, or the context
// is cancelled.
func WithRetry(ctx context.Context, cfg Config, name string, fn func() error) error {
	var lastErr error
	delay := cfg.Delay
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if cfg.IsRetryable != nil && !cfg.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		logger.Warn("retrying after error",
			"op", name,
			"attempt", attempt,
			"error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * cfg.Backoff)
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, cfg.MaxAttempts, lastErr)
}
