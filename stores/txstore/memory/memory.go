package memory

import (
	"context"
	"sync"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
)

type Memory struct {
	mu  sync.RWMutex
	txs map[chainhash.Hash]*model.Transaction
}

func New() *Memory {
	return &Memory{
		txs: make(map[chainhash.Hash]*model.Transaction),
	}
}

func (m *Memory) Get(_ context.Context, hash *chainhash.Hash) (*model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.txs[*hash]
	if !ok {
		return nil, errors.NewTxNotFoundError("tx %s not found in memory store", hash.String())
	}

	return tx.Clone(), nil
}

func (m *Memory) Set(_ context.Context, tx *model.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txs[tx.TxID] = tx.Clone()

	return nil
}

func (m *Memory) Delete(_ context.Context, hash *chainhash.Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.txs, *hash)

	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.txs)
}
