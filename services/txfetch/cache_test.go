package txfetch

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxCache(t *testing.T) {
	t.Run("evicts least recently used", func(t *testing.T) {
		cache, err := NewTxCache(2)
		require.NoError(t, err)

		a := newTestTx("a", nil, 1)
		b := newTestTx("b", nil, 2)
		c := newTestTx("c", nil, 3)

		cache.Add(a)
		cache.Add(b)

		_, ok := cache.Get(a.TxID)
		require.True(t, ok)

		evicted := cache.Add(c)
		assert.True(t, evicted)

		assert.True(t, cache.Contains(a.TxID))
		assert.False(t, cache.Contains(b.TxID))
		assert.True(t, cache.Contains(c.TxID))
		assert.Equal(t, 2, cache.Len())
		assert.Equal(t, []chainhash.Hash{a.TxID, c.TxID}, cache.Keys())
	})

	t.Run("peek does not touch recency", func(t *testing.T) {
		cache, err := NewTxCache(2)
		require.NoError(t, err)

		a := newTestTx("a", nil, 1)
		b := newTestTx("b", nil, 2)

		cache.Add(a)
		cache.Add(b)

		_, ok := cache.Peek(a.TxID)
		require.True(t, ok)
		require.True(t, cache.Contains(a.TxID))

		cache.Add(newTestTx("c", nil, 3))

		assert.False(t, cache.Contains(a.TxID))
		assert.True(t, cache.Contains(b.TxID))
	})

	t.Run("never exceeds capacity", func(t *testing.T) {
		cache, err := NewTxCache(3)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			cache.Add(newTestTx(string(rune('a'+i)), nil, 1))
			assert.LessOrEqual(t, cache.Len(), 3)
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := NewTxCache(0)
		require.ErrorIs(t, err, errors.ErrInvalidArgument)
	})
}

func TestTxCacheGetOrFetch(t *testing.T) {
	cache, err := NewTxCache(4)
	require.NoError(t, err)

	a := newTestTx("a", nil, 1)
	fetcher := NewStaticFetcher(a)

	tx, err := cache.GetOrFetch(context.Background(), a.TxID, fetcher)
	require.NoError(t, err)
	assert.Equal(t, a.TxID, tx.TxID)
	assert.True(t, cache.Contains(a.TxID))

	// served from the cache now
	tx, err = cache.GetOrFetch(context.Background(), a.TxID, failingFetcher{t: t})
	require.NoError(t, err)
	assert.Equal(t, a.TxID, tx.TxID)

	_, err = cache.GetOrFetch(context.Background(), chainhash.HashH([]byte("missing")), fetcher)
	require.ErrorIs(t, err, errors.ErrFetchFailed)
	require.ErrorIs(t, err, errors.ErrTxNotFound)

	var data *errors.FetchErrData
	require.True(t, errors.AsData(err, &data))
	assert.Equal(t, chainhash.HashH([]byte("missing")), data.TxID)

}
