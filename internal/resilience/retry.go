// Package resilience provides retry, reconnection and circuit breaker
// primitives used around the relay's external calls (STT provider,
// translation provider, persistence).
package resilience

import (
	"context"
	"errors"
	"strings"
	"time"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries  int           // Additional attempts after the first failure
	BackoffStep time.Duration // Linear backoff step: attempt N waits N*BackoffStep
}

// DefaultRetryConfig returns the retry configuration used for translation
// calls: two retries with a half-second linear backoff step.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  2,
		BackoffStep: 500 * time.Millisecond,
	}
}

// RetryableFunc is a function that can be retried.
type RetryableFunc func() error

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error so Retry stops immediately instead of
// burning the remaining attempts. Use it for failures that cannot be
// fixed by waiting, such as an invalid API key or a malformed request.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Retry executes fn up to 1+MaxRetries times with linearly increasing backoff
// between attempts (attempt N sleeps N*BackoffStep before re-running).
// It returns nil on the first success, ctx.Err() if the context is cancelled
// while waiting, and the last error once retries are exhausted.
func Retry(ctx context.Context, fn RetryableFunc, config *RetryConfig) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * config.BackoffStep
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
	}
	return lastErr
}

// IsRetryableNetworkError reports whether err looks like a transient network
// or provider failure worth retrying.
func IsRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"transport is closing",
		"unavailable",
		"network is unreachable",
		"no route to host",
		"deadline exceeded",
		"timeout",
		"i/o timeout",
		"resource exhausted",
		"too many connections",
		"rate limit",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
