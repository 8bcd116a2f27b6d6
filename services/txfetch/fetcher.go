// Package txfetch retrieves transaction detail records from the lookup service and delivers them to
// the graph model asynchronously.
//
// The Pipeline is owned by a single goroutine (the model loop): Request, Cancel, Drain and Await must
// not be called concurrently. Fetches run on worker goroutines and report back only through the
// pipeline's result channel.
package txfetch

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/model"
)

// Fetcher looks up transactions and the spends of their outputs.
type Fetcher interface {
	// FetchTransaction returns errors.ErrTxNotFound when the service does not know txID.
	FetchTransaction(ctx context.Context, txID chainhash.Hash) (*model.Transaction, error)
	// FetchSpend returns the id of the transaction spending outpoint, or nil when it is unspent.
	FetchSpend(ctx context.Context, outpoint model.Outpoint) (*chainhash.Hash, error)
}
