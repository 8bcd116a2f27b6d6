package txfetch

import (
	"context"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, fetcher Fetcher, cache *TxCache) *Pipeline {
	t.Helper()

	p := NewPipeline(context.Background(), ulogger.TestLogger{}, newTestSettings(t), fetcher, cache)
	t.Cleanup(p.Close)

	return p
}

// collect awaits and drains until n results were accepted or the deadline passes.
func collect(t *testing.T, p *Pipeline, n int) []Result {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var results []Result

	for len(results) < n {
		require.NoError(t, p.Await(ctx))
		results = append(results, p.Drain()...)
	}

	return results
}

func TestPipelineDeliversResults(t *testing.T) {
	a := newTestTx("a", nil, 100, 200)
	b := newTestTx("b", []model.Outpoint{a.Outpoint(0)}, 90)

	cache, err := NewTxCache(10)
	require.NoError(t, err)

	p := newTestPipeline(t, NewStaticFetcher(a, b), cache)

	require.True(t, p.Request(TxKey(a.TxID)))
	require.True(t, p.Request(TxKey(b.TxID)))
	require.True(t, p.Request(SpendKey(a.Outpoint(0))))
	require.True(t, p.Request(SpendKey(a.Outpoint(1))))

	results := collect(t, p, 4)
	require.Len(t, results, 4)

	byKey := make(map[Key]Result)
	for _, res := range results {
		require.NoError(t, res.Err)
		byKey[res.Key] = res
	}

	assert.Equal(t, a.TxID, byKey[TxKey(a.TxID)].Tx.TxID)
	assert.Equal(t, b.TxID, byKey[TxKey(b.TxID)].Tx.TxID)
	require.NotNil(t, byKey[SpendKey(a.Outpoint(0))].SpendingTxID)
	assert.Equal(t, b.TxID, *byKey[SpendKey(a.Outpoint(0))].SpendingTxID)
	assert.Nil(t, byKey[SpendKey(a.Outpoint(1))].SpendingTxID)

	assert.True(t, cache.Contains(a.TxID))
	assert.True(t, cache.Contains(b.TxID))
	assert.Equal(t, 0, p.PendingCount())
}

func TestPipelineCoalescesRequests(t *testing.T) {
	a := newTestTx("a", nil, 100)
	fetcher := newBlockingFetcher(a)

	p := newTestPipeline(t, fetcher, nil)

	require.True(t, p.Request(TxKey(a.TxID)))
	assert.False(t, p.Request(TxKey(a.TxID)))
	assert.False(t, p.Request(TxKey(a.TxID)))
	assert.Equal(t, 1, p.PendingCount())

	close(fetcher.release)

	results := collect(t, p, 1)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, a.TxID, results[0].Tx.TxID)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	// nothing more arrives
	assert.Empty(t, p.Drain())
}

func TestPipelineCancelDiscardsResult(t *testing.T) {
	a := newTestTx("a", nil, 100)
	fetcher := newBlockingFetcher(a)

	p := newTestPipeline(t, fetcher, nil)

	require.True(t, p.Request(TxKey(a.TxID)))
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)

	assert.True(t, p.Cancel(TxKey(a.TxID)))
	assert.False(t, p.Cancel(TxKey(a.TxID)))
	assert.False(t, p.IsPending(TxKey(a.TxID)))

	// the canceled fetch still reports back, and is dropped
	require.Eventually(t, func() bool { return len(p.results) == 1 }, time.Second, time.Millisecond)
	assert.Empty(t, p.Drain())
	assert.Equal(t, int64(0), p.InFlight())
}

func TestPipelineRequestAfterCancel(t *testing.T) {
	a := newTestTx("a", nil, 100)
	fetcher := newBlockingFetcher(a)

	p := newTestPipeline(t, fetcher, nil)

	require.True(t, p.Request(TxKey(a.TxID)))
	require.True(t, p.Cancel(TxKey(a.TxID)))
	require.True(t, p.Request(TxKey(a.TxID)))

	// the first fetch ends with a cancellation, the second one with the record
	require.Eventually(t, func() bool { return len(p.results) == 1 }, time.Second, time.Millisecond)
	close(fetcher.release)

	results := collect(t, p, 1)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, a.TxID, results[0].Tx.TxID)
}

func TestPipelineFailure(t *testing.T) {
	missing := chainhash.HashH([]byte("missing"))

	p := newTestPipeline(t, NewStaticFetcher(), nil)

	require.True(t, p.Request(TxKey(missing)))

	results := collect(t, p, 1)
	require.Len(t, results, 1)

	err := results[0].Err
	require.ErrorIs(t, err, errors.ErrFetchFailed)
	require.ErrorIs(t, err, errors.ErrTxNotFound)
	assert.Nil(t, results[0].Tx)

	var data *errors.FetchErrData
	require.True(t, errors.AsData(err, &data))
	assert.Equal(t, missing, data.TxID)

	// a failed key can be requested again
	assert.True(t, p.Request(TxKey(missing)))
}

// emptyFetcher answers every lookup with neither a record nor an error.
type emptyFetcher struct{}

func (emptyFetcher) FetchTransaction(context.Context, chainhash.Hash) (*model.Transaction, error) {
	return nil, nil
}

func (emptyFetcher) FetchSpend(context.Context, model.Outpoint) (*chainhash.Hash, error) {
	return nil, nil
}

func TestPipelineEmptyResultFails(t *testing.T) {
	txID := chainhash.HashH([]byte("empty"))

	cache, err := NewTxCache(2)
	require.NoError(t, err)

	p := newTestPipeline(t, emptyFetcher{}, cache)

	require.True(t, p.Request(TxKey(txID)))

	results := collect(t, p, 1)
	require.Len(t, results, 1)

	require.ErrorIs(t, results[0].Err, errors.ErrFetchFailed)
	require.ErrorIs(t, results[0].Err, errors.ErrProcessing)
	assert.Nil(t, results[0].Tx)
	assert.False(t, cache.Contains(txID))
}

func TestPipelineCacheHit(t *testing.T) {
	a := newTestTx("a", nil, 100)

	cache, err := NewTxCache(2)
	require.NoError(t, err)
	cache.Add(a)

	p := newTestPipeline(t, failingFetcher{t: t}, cache)

	require.True(t, p.Request(TxKey(a.TxID)))
	assert.False(t, p.Request(TxKey(a.TxID)))

	results := p.Drain()
	require.Len(t, results, 1)
	assert.True(t, results[0].Cached)
	assert.Equal(t, a.TxID, results[0].Tx.TxID)
}

func TestPipelineCancelAll(t *testing.T) {
	a := newTestTx("a", nil, 100)
	b := newTestTx("b", nil, 100)

	cache, err := NewTxCache(2)
	require.NoError(t, err)
	cache.Add(b)

	fetcher := newBlockingFetcher(a)
	p := newTestPipeline(t, fetcher, cache)

	require.True(t, p.Request(TxKey(a.TxID)))
	require.True(t, p.Request(TxKey(b.TxID)))
	require.Equal(t, 2, p.PendingCount())

	p.CancelAll()

	assert.Equal(t, 0, p.PendingCount())
	assert.Empty(t, p.Drain())
}

func TestPipelineClose(t *testing.T) {
	a := newTestTx("a", nil, 100)
	fetcher := newBlockingFetcher(a)

	p := NewPipeline(context.Background(), ulogger.TestLogger{}, newTestSettings(t), fetcher, nil)

	require.True(t, p.Request(TxKey(a.TxID)))
	p.Close()

	assert.False(t, p.Request(TxKey(chainhash.HashH([]byte("later")))))
}

func TestKeyString(t *testing.T) {
	txID := chainhash.HashH([]byte("a"))

	assert.Equal(t, "tx "+txID.String(), TxKey(txID).String())
	assert.Equal(t, "spend "+txID.String()+":2", SpendKey(model.Outpoint{TxID: txID, Vout: 2}).String())
	assert.Equal(t, "spend", KindSpend.String())
}
