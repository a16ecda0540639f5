// Package retry implements exponential backoff with jitter for transient
// failures. The Coordinator performs no retries on its fast path; this
// package exists for callers that want to retry retryable failures and for
// the Coordinator's compensating increment after a mid-operation ledger fault.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")

	// ErrNilRetryableCheck is returned when a nil predicate is provided to WithRetryableCheck.
	ErrNilRetryableCheck = errors.New("retryable check must not be nil")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// Metrics describes what a retried execution actually did.
type Metrics struct {
	Attempts   int
	TotalDelay time.Duration
}

// config holds configuration for exponential backoff retry logic.
type config struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	isRetryable  func(error) bool
}

// WithExponentialBackoff executes fn with exponential backoff retry logic,
// retrying only on retryable errors up to the configured maximum attempts.
//
// Retry schedule (default): 0 ms, 10 ms, 20 ms, 40 ms, 80 ms (with 30% jitter).
//
// By default every error except a context cancellation or deadline is
// considered retryable; use WithRetryableCheck to narrow that. Context
// cancellation always stops the loop immediately.
func WithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...Option,
) (Metrics, error) {

	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
		isRetryable:  defaultIsRetryable,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return Metrics{}, err
		}
	}

	metrics := Metrics{}

	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: baseDelay * 2^(attempt-1)
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))

			// Add jitter to prevent thundering herd
			jitter := rand.Float64() * float64(delay) * cfg.jitterFactor //nolint:gosec //math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)
			metrics.TotalDelay += backoffDelay

			select {
			case <-time.After(backoffDelay):
				// continue with retry
			case <-ctx.Done():
				return metrics, ctx.Err()
			}
		}

		metrics.Attempts++

		lastErr = fn(ctx)
		if lastErr == nil {
			return metrics, nil
		}

		if !cfg.isRetryable(lastErr) {
			return metrics, lastErr // permanent failure
		}
	}

	return metrics, fmt.Errorf("retries exhausted after %d attempts: %w", cfg.maxAttempts, lastErr)
}

// defaultIsRetryable treats everything except context cancellation as
// retryable. Retrying a canceled context during overload only creates
// cascade failures; those must fail fast.
func defaultIsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return true
}

// Option configures retry behavior using the functional options pattern.
type Option func(*config) error

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int) Option {
	return func(cfg *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		cfg.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, baseDelay*8, etc.
func WithBaseDelay(delay time.Duration) Option {
	return func(cfg *config) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		cfg.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter factor to prevent thundering herd problems.
// Jitter is added as a percentage of the calculated backoff delay.
// Valid range: 0.0 (no jitter) to 1.0 (100% jitter).
func WithJitterFactor(factor float64) Option {
	return func(cfg *config) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		cfg.jitterFactor = factor

		return nil
	}
}

// WithRetryableCheck sets the predicate deciding whether an error is retryable.
func WithRetryableCheck(check func(error) bool) Option {
	return func(cfg *config) error {
		if check == nil {
			return ErrNilRetryableCheck
		}

		cfg.isRetryable = check

		return nil
	}
}
