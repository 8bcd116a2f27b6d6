package retry

import (
	"context"
	"time"
)

// sleepFunc is swapped out by tests.
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// BackoffAndSleep waits (multiplier*retries + 1) units of unit, or until ctx is done.
func BackoffAndSleep(ctx context.Context, retries int, multiplier int, unit time.Duration) error {
	return sleepFunc(ctx, time.Duration(multiplier*retries+1)*unit)
}

// CappedExponentialBackoff returns current*factor, never more than limit.
func CappedExponentialBackoff(current time.Duration, factor float64, limit time.Duration) time.Duration {
	return min(time.Duration(float64(current)*factor), limit)
}
