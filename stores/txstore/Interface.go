// Package txstore persists fetched transaction detail records, so a restarted session does not
// have to fetch them again.
package txstore

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/model"
)

type Store interface {
	// Get returns errors.ErrTxNotFound when the record is not stored.
	Get(ctx context.Context, hash *chainhash.Hash) (*model.Transaction, error)
	// Set inserts or replaces the record for tx.TxID.
	Set(ctx context.Context, tx *model.Transaction) error
	Delete(ctx context.Context, hash *chainhash.Hash) error
	Close() error
}
