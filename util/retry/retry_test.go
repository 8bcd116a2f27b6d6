package retry

import (
	"context"
	"testing"
	"time"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/util/test/mocklogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()

	var slept []time.Duration

	orig := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}

	t.Cleanup(func() { sleepFunc = orig })

	return &slept
}

func TestRetry(t *testing.T) {
	slept := noSleep(t)
	logger := mocklogger.NewTestLogger()
	ctx := context.Background()

	t.Run("succeeds first time", func(t *testing.T) {
		result, err := Retry(ctx, logger, func() (string, error) { return "success", nil }, WithRetryCount(3))
		require.NoError(t, err)
		assert.Equal(t, "success", result)
		logger.AssertNumberOfCalls(t, "Warnf", 0)
	})

	t.Run("succeeds after one failure", func(t *testing.T) {
		logger.Reset()
		*slept = nil

		calls := 0
		result, err := Retry(ctx, logger, func() (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.NewNetworkError("flaky")
			}

			return 42, nil
		}, WithRetryCount(3), WithBackoffMultiplier(2), WithBackoffDurationType(100*time.Millisecond))

		require.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.Equal(t, 2, calls)
		logger.AssertNumberOfCalls(t, "Warnf", 1)
		assert.Equal(t, []time.Duration{100 * time.Millisecond}, *slept)
	})

	t.Run("always fails", func(t *testing.T) {
		calls := 0
		_, err := Retry(ctx, logger, func() (int, error) {
			calls++
			return 0, errors.NewProcessingError("persistent error")
		}, WithRetryCount(3))

		require.ErrorIs(t, err, errors.ErrProcessing)
		assert.Equal(t, 3, calls)
	})

	t.Run("non retryable error stops early", func(t *testing.T) {
		calls := 0
		_, err := Retry(ctx, logger, func() (int, error) {
			calls++
			return 0, errors.NewTxNotFoundError("gone")
		}, WithRetryCount(5), WithRetryableErrorsOnly())

		require.ErrorIs(t, err, errors.ErrTxNotFound)
		assert.Equal(t, 1, calls)
	})
}

func TestRetryExponentialBackoff(t *testing.T) {
	slept := noSleep(t)

	_, err := Retry(context.Background(), mocklogger.NewTestLogger(), func() (int, error) {
		return 0, errors.NewNetworkTimeoutError("slow")
	},
		WithExponentialBackoff(),
		WithBackoffDurationType(50*time.Millisecond),
		WithBackoffFactor(2.0),
		WithMaxBackoff(150*time.Millisecond),
		WithRetryCount(4))

	require.Error(t, err)
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond}, *slept)
}

func TestRetryContextCancelled(t *testing.T) {
	noSleep(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, mocklogger.NewTestLogger(), func() (int, error) {
		calls++
		return 0, nil
	})

	require.ErrorIs(t, err, errors.ErrContextCanceled)
	assert.Equal(t, 0, calls)
}

func TestCappedExponentialBackoff(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, CappedExponentialBackoff(100*time.Millisecond, 2, time.Second))
	assert.Equal(t, time.Second, CappedExponentialBackoff(800*time.Millisecond, 2, time.Second))
}
