// Package retry retries journal database operations that fail transiently.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/loykin/graphauth/internal/common"
)

// Config holds configuration for database operation retries
type Config struct {
	MaxRetries      int           // Maximum number of retry attempts
	InitialDelay    time.Duration // Initial delay before first retry
	MaxDelay        time.Duration // Maximum delay between retries
	BackoffFactor   float64       // Multiplier for exponential backoff
	RetryableErrors []string      // Error substrings that trigger retries
}

// DefaultConfig returns the retry settings used by the state journal.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"database is locked",
			"sqlite_busy",
			"deadlock",
			"broken pipe",
		},
	}
}

func (rc *Config) retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range rc.RetryableErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// delay returns the exponential backoff for attempt, capped at MaxDelay.
func (rc *Config) delay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}
	d := time.Duration(float64(rc.InitialDelay) * math.Pow(rc.BackoffFactor, float64(attempt)))
	if d > rc.MaxDelay {
		d = rc.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails with a non-retryable error or the
// attempts run out. A nil config uses DefaultConfig.
func Do(ctx context.Context, config *Config, op func() error) error {
	if config == nil {
		config = DefaultConfig()
	}
	logger := common.GetLogger().WithComponent("store-retry")

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			if attempt > 0 {
				logger.Debug("operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}
		lastErr = err
		if !config.retryable(err) {
			return err
		}
		if attempt == config.MaxRetries {
			break
		}

		d := config.delay(attempt)
		logger.Warn("operation failed, retrying", "error", err, "attempt", attempt+1, "retry_delay", d)
		select {
		case <-ctx.Done():
			return fmt.Errorf("operation cancelled during retry: %w", ctx.Err())
		case <-time.After(d):
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}
