package util

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestExpiringConcurrentCache_GetOrSet(t *testing.T) {
	t.Run("concurrent callers share one fetch per key", func(t *testing.T) {
		cache := NewExpiringConcurrentCache[chainhash.Hash, int](120 * time.Second)
		key := chainhash.HashH([]byte("1"))
		key2 := chainhash.HashH([]byte("2"))

		var counter atomic.Int32

		g := errgroup.Group{}

		for i := 0; i < 1_000; i++ {
			g.Go(func() error {
				val, err := cache.GetOrSet(key, func() (int, bool, error) {
					counter.Add(1)
					time.Sleep(10 * time.Millisecond)

					return 1, true, nil
				})
				if err != nil {
					return err
				}

				assert.Equal(t, 1, val)

				return nil
			})
			g.Go(func() error {
				val, err := cache.GetOrSet(key2, func() (int, bool, error) {
					counter.Add(1)
					return 2, true, nil
				})
				if err != nil {
					return err
				}

				assert.Equal(t, 2, val)

				return nil
			})
		}

		require.NoError(t, g.Wait())
		assert.Equal(t, int32(2), counter.Load())
	})

	t.Run("errors are not cached", func(t *testing.T) {
		cache := NewExpiringConcurrentCache[string, int](time.Minute)

		_, err := cache.GetOrSet("k", func() (int, bool, error) {
			return 0, true, errors.NewNetworkError("down")
		})
		require.ErrorIs(t, err, errors.ErrNetworkError)

		val, err := cache.GetOrSet("k", func() (int, bool, error) {
			return 7, true, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 7, val)
	})

	t.Run("non cacheable values are refetched", func(t *testing.T) {
		cache := NewExpiringConcurrentCache[string, int](time.Minute)
		calls := 0

		for i := 0; i < 3; i++ {
			_, err := cache.GetOrSet("k", func() (int, bool, error) {
				calls++
				return calls, false, nil
			})
			require.NoError(t, err)
		}

		assert.Equal(t, 3, calls)

		_, found := cache.Get("k")
		assert.False(t, found)
	})

	t.Run("panicking fetch returns an error", func(t *testing.T) {
		cache := NewExpiringConcurrentCache[string, int](time.Minute)

		_, err := cache.GetOrSet("k", func() (int, bool, error) {
			panic("boom")
		})
		require.ErrorIs(t, err, errors.ErrProcessing)
	})
}
