package txfetch

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/stores/txstore"
	"github.com/bsv-blockchain/txflow/ulogger"
)

// StoreFetcher reads transactions through a txstore.Store, falling back to next on a miss and
// persisting what next returns. Spend lookups always go to next.
type StoreFetcher struct {
	logger ulogger.Logger
	store  txstore.Store
	next   Fetcher
}

func NewStoreFetcher(logger ulogger.Logger, store txstore.Store, next Fetcher) *StoreFetcher {
	return &StoreFetcher{
		logger: logger,
		store:  store,
		next:   next,
	}
}

func (f *StoreFetcher) FetchTransaction(ctx context.Context, txID chainhash.Hash) (*model.Transaction, error) {
	tx, err := f.store.Get(ctx, &txID)
	if err == nil {
		// an output that was unspent when stored may have been spent since
		for i := range tx.Outputs {
			if tx.Outputs[i].SpendingTxID == nil {
				tx.Outputs[i].SpendUnknown = true
			}
		}

		return tx, nil
	}

	if !errors.Is(err, errors.ErrTxNotFound) {
		f.logger.Warnf("[StoreFetcher] failed to read %s from store, falling back: %v", txID, err)
	}

	tx, err = f.next.FetchTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}

	if err = f.store.Set(ctx, tx); err != nil {
		f.logger.Warnf("[StoreFetcher] failed to store %s: %v", txID, err)
	}

	return tx, nil
}

func (f *StoreFetcher) FetchSpend(ctx context.Context, outpoint model.Outpoint) (*chainhash.Hash, error) {
	return f.next.FetchSpend(ctx, outpoint)
}
