package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/averbeck/bookhold/reservation/retry"
)

var errTransient = errors.New("transient failure")
var errPermanent = errors.New("permanent failure")

func Test_WithExponentialBackoff_When_The_First_Attempt_Succeeds(t *testing.T) {
	// arrange
	calls := 0

	// act
	metrics, err := retry.WithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, metrics.Attempts)
	assert.Equal(t, time.Duration(0), metrics.TotalDelay)
}

func Test_WithExponentialBackoff_When_It_Succeeds_After_Retries(t *testing.T) {
	// arrange
	calls := 0

	// act
	metrics, err := retry.WithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}

		return nil
	}, retry.WithBaseDelay(time.Millisecond))

	// assert
	assert.NoError(t, err)
	assert.Equal(t, 3, metrics.Attempts)
	assert.Greater(t, metrics.TotalDelay, time.Duration(0))
}

func Test_WithExponentialBackoff_When_All_Attempts_Fail(t *testing.T) {
	// arrange
	calls := 0

	// act
	metrics, err := retry.WithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		return errTransient
	}, retry.WithMaxAttempts(3), retry.WithBaseDelay(time.Millisecond))

	// assert
	assert.ErrorIs(t, err, errTransient)
	assert.ErrorContains(t, err, "retries exhausted after 3 attempts")
	assert.Equal(t, 3, metrics.Attempts)
}

func Test_WithExponentialBackoff_When_The_Error_Is_Not_Retryable(t *testing.T) {
	// arrange
	calls := 0

	// act
	metrics, err := retry.WithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		return errPermanent
	}, retry.WithRetryableCheck(func(err error) bool {
		return !errors.Is(err, errPermanent)
	}))

	// assert
	assert.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, metrics.Attempts)
}

func Test_WithExponentialBackoff_When_The_Context_Is_Cancelled(t *testing.T) {
	// arrange
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	_, err := retry.WithExponentialBackoff(ctx, func(_ context.Context) error {
		return errTransient
	}, retry.WithBaseDelay(50*time.Millisecond))

	// assert: the backoff wait observes the cancellation
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_WithExponentialBackoff_Does_Not_Retry_Context_Errors_By_Default(t *testing.T) {
	// arrange
	calls := 0

	// act
	_, err := retry.WithExponentialBackoff(context.Background(), func(_ context.Context) error {
		calls++
		return context.DeadlineExceeded
	})

	// assert
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func Test_WithExponentialBackoff_When_Options_Are_Invalid(t *testing.T) {
	noop := func(_ context.Context) error { return nil }

	// act + assert
	_, err := retry.WithExponentialBackoff(context.Background(), noop, retry.WithMaxAttempts(0))
	assert.ErrorIs(t, err, retry.ErrInvalidMaxAttempts)

	_, err = retry.WithExponentialBackoff(context.Background(), noop, retry.WithBaseDelay(-time.Second))
	assert.ErrorIs(t, err, retry.ErrNegativeBaseDelay)

	_, err = retry.WithExponentialBackoff(context.Background(), noop, retry.WithJitterFactor(1.5))
	assert.ErrorIs(t, err, retry.ErrInvalidJitterFactor)

	_, err = retry.WithExponentialBackoff(context.Background(), noop, retry.WithRetryableCheck(nil))
	assert.ErrorIs(t, err, retry.ErrNilRetryableCheck)
}
