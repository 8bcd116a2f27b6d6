package retry

import (
	"context"
	"time"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/ulogger"
)

type Options struct {
	retryCount         int
	backoffMultiplier  int
	backoffDuration    time.Duration
	exponential        bool
	backoffFactor      float64
	maxBackoff         time.Duration
	message            string
	retryableErrorOnly bool
}

type Option func(*Options)

func WithRetryCount(n int) Option {
	return func(o *Options) { o.retryCount = n }
}

func WithBackoffMultiplier(m int) Option {
	return func(o *Options) { o.backoffMultiplier = m }
}

func WithBackoffDurationType(d time.Duration) Option {
	return func(o *Options) { o.backoffDuration = d }
}

func WithExponentialBackoff() Option {
	return func(o *Options) { o.exponential = true }
}

func WithBackoffFactor(f float64) Option {
	return func(o *Options) { o.backoffFactor = f }
}

func WithMaxBackoff(d time.Duration) Option {
	return func(o *Options) { o.maxBackoff = d }
}

func WithMessage(msg string) Option {
	return func(o *Options) { o.message = msg }
}

// WithRetryableErrorsOnly stops retrying as soon as f returns an error errors.IsRetryableError rejects.
func WithRetryableErrorsOnly() Option {
	return func(o *Options) { o.retryableErrorOnly = true }
}

// Retry calls f until it succeeds, the retry count is exhausted or ctx is done.
// The last error returned by f is returned when all attempts fail.
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Option) (T, error) {
	o := &Options{
		retryCount:        3,
		backoffMultiplier: 2,
		backoffDuration:   time.Second,
		backoffFactor:     2.0,
		maxBackoff:        30 * time.Second,
		message:           "retrying",
	}

	for _, opt := range opts {
		opt(o)
	}

	var (
		result T
		err    error
	)

	backoff := o.backoffDuration

	for i := 0; i < o.retryCount; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, errors.NewContextCanceledError("%s: context done", o.message, ctxErr)
		}

		result, err = f()
		if err == nil {
			return result, nil
		}

		if o.retryableErrorOnly && !errors.IsRetryableError(err) {
			return result, err
		}

		if i == o.retryCount-1 {
			break
		}

		logger.Warnf("%s (attempt %d/%d): %v", o.message, i+1, o.retryCount, err)

		if o.exponential {
			if sleepErr := sleepFunc(ctx, backoff); sleepErr != nil {
				return result, errors.NewContextCanceledError("%s: context done", o.message, sleepErr)
			}

			backoff = CappedExponentialBackoff(backoff, o.backoffFactor, o.maxBackoff)

			continue
		}

		if sleepErr := BackoffAndSleep(ctx, i, o.backoffMultiplier, o.backoffDuration); sleepErr != nil {
			return result, errors.NewContextCanceledError("%s: context done", o.message, sleepErr)
		}
	}

	return result, err
}
