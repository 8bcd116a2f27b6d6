package txfetch

import (
	"context"
	"io"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	jsoniter "github.com/json-iterator/go"
)

// StaticFetcher serves a fixed set of transactions, for offline exploration of a dump file.
// Spends are answered from the outputs' spending txids and from the inputs of the known transactions.
type StaticFetcher struct {
	mu     sync.RWMutex
	txs    map[chainhash.Hash]*model.Transaction
	spends map[model.Outpoint]chainhash.Hash
}

func NewStaticFetcher(txs ...*model.Transaction) *StaticFetcher {
	f := &StaticFetcher{
		txs:    make(map[chainhash.Hash]*model.Transaction, len(txs)),
		spends: make(map[model.Outpoint]chainhash.Hash),
	}

	for _, tx := range txs {
		f.Add(tx)
	}

	return f
}

// NewStaticFetcherFromReader reads a JSON array of detail records.
func NewStaticFetcherFromReader(r io.Reader) (*StaticFetcher, error) {
	var txs []*model.Transaction
	if err := jsoniter.NewDecoder(r).Decode(&txs); err != nil {
		return nil, errors.NewProcessingError("failed to decode transaction dump", err)
	}

	for i, tx := range txs {
		if tx == nil {
			return nil, errors.NewProcessingError("transaction dump entry %d is null", i)
		}
	}

	return NewStaticFetcher(txs...), nil
}

// Add stores tx. A nil tx is ignored.
func (f *StaticFetcher) Add(tx *model.Transaction) {
	if tx == nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.txs[tx.TxID] = tx.Clone()

	if !tx.IsCoinbase() {
		for _, in := range tx.Inputs {
			f.spends[model.Outpoint{TxID: in.PrevTxID, Vout: in.Vout}] = tx.TxID
		}
	}
}

func (f *StaticFetcher) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.txs)
}

func (f *StaticFetcher) FetchTransaction(ctx context.Context, txID chainhash.Hash) (*model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewContextCanceledError("fetch of %s canceled", txID, err)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	tx, ok := f.txs[txID]
	if !ok {
		return nil, errors.NewTxNotFoundError("tx %s not found", txID)
	}

	return tx.Clone(), nil
}

func (f *StaticFetcher) FetchSpend(ctx context.Context, outpoint model.Outpoint) (*chainhash.Hash, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewContextCanceledError("spend lookup of %s canceled", outpoint, err)
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if tx, ok := f.txs[outpoint.TxID]; ok {
		if outpoint.Vout >= uint32(len(tx.Outputs)) {
			return nil, errors.NewInvalidPortError("outpoint %s out of range, tx has %d outputs", outpoint, len(tx.Outputs))
		}

		if spending := tx.Outputs[outpoint.Vout].SpendingTxID; spending != nil {
			h := *spending
			return &h, nil
		}
	}

	if spending, ok := f.spends[outpoint]; ok {
		return &spending, nil
	}

	return nil, nil
}
