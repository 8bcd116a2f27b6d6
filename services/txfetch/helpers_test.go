package txfetch

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

const testBaseURL = "http://lookup.test"

func newTestSettings(t *testing.T) *settings.Settings {
	t.Helper()

	tSettings := settings.NewSettings()

	u, err := url.Parse(testBaseURL)
	require.NoError(t, err)

	tSettings.Fetch.BaseURL = u
	tSettings.Fetch.Format = FormatJSON
	tSettings.Fetch.Workers = 2
	tSettings.Fetch.Timeout = 5 * time.Second
	tSettings.Fetch.RetryCount = 3
	tSettings.Fetch.RetryBackoff = time.Millisecond
	tSettings.Fetch.RateLimit = 0
	tSettings.Fetch.APIToken = ""

	return tSettings
}

// newTestTx builds a transaction spending the given outpoints, with one output per value.
func newTestTx(seed string, spends []model.Outpoint, values ...uint64) *model.Transaction {
	tx := &model.Transaction{
		TxID:      chainhash.HashH([]byte(seed)),
		Timestamp: 1_600_000_000,
	}

	for _, op := range spends {
		tx.Inputs = append(tx.Inputs, model.Input{PrevTxID: op.TxID, Vout: op.Vout, Value: 1_000, Address: "in-" + seed})
	}

	for _, v := range values {
		tx.Outputs = append(tx.Outputs, model.Output{Value: v, Address: "out-" + seed, AddressType: "p2pkh"})
	}

	return tx
}

// blockingFetcher holds every fetch until release is closed or the fetch is canceled.
type blockingFetcher struct {
	txs     map[chainhash.Hash]*model.Transaction
	release chan struct{}
	calls   *atomic.Int32
}

func newBlockingFetcher(txs ...*model.Transaction) *blockingFetcher {
	f := &blockingFetcher{
		txs:     make(map[chainhash.Hash]*model.Transaction),
		release: make(chan struct{}),
		calls:   atomic.NewInt32(0),
	}

	for _, tx := range txs {
		f.txs[tx.TxID] = tx
	}

	return f
}

func (f *blockingFetcher) FetchTransaction(ctx context.Context, txID chainhash.Hash) (*model.Transaction, error) {
	f.calls.Inc()

	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, errors.NewContextCanceledError("fetch canceled", ctx.Err())
	}

	tx, ok := f.txs[txID]
	if !ok {
		return nil, errors.NewTxNotFoundError("tx %s not found", txID)
	}

	return tx, nil
}

func (f *blockingFetcher) FetchSpend(ctx context.Context, _ model.Outpoint) (*chainhash.Hash, error) {
	f.calls.Inc()

	select {
	case <-f.release:
		return nil, nil
	case <-ctx.Done():
		return nil, errors.NewContextCanceledError("spend lookup canceled", ctx.Err())
	}
}

// failingFetcher fails the test if the network path is taken.
type failingFetcher struct {
	t *testing.T
}

func (f failingFetcher) FetchTransaction(_ context.Context, txID chainhash.Hash) (*model.Transaction, error) {
	f.t.Errorf("unexpected fetch of %s", txID)
	return nil, errors.NewProcessingError("unexpected fetch")
}

func (f failingFetcher) FetchSpend(_ context.Context, outpoint model.Outpoint) (*chainhash.Hash, error) {
	f.t.Errorf("unexpected spend lookup of %s", outpoint)
	return nil, errors.NewProcessingError("unexpected spend lookup")
}
