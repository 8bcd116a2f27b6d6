package txfetch

import (
	"context"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	lru "github.com/hashicorp/golang-lru/v2"
)

// TxCache is a bounded, strictly least-recently-used cache of transaction detail records.
// It is safe for concurrent use.
type TxCache struct {
	cache *lru.Cache[chainhash.Hash, *model.Transaction]
	size  int
}

func NewTxCache(size int) (*TxCache, error) {
	initPrometheusMetrics()

	if size <= 0 {
		return nil, errors.NewInvalidArgumentError("tx cache size must be positive, got %d", size)
	}

	c, err := lru.NewWithEvict[chainhash.Hash, *model.Transaction](size, func(chainhash.Hash, *model.Transaction) {
		prometheusTxCacheEvicted.Inc()
	})
	if err != nil {
		return nil, errors.NewProcessingError("failed to create tx cache", err)
	}

	return &TxCache{cache: c, size: size}, nil
}

// Get returns the record for txID and marks it as most recently used.
func (c *TxCache) Get(txID chainhash.Hash) (*model.Transaction, bool) {
	tx, ok := c.cache.Get(txID)
	if ok {
		prometheusTxCacheHit.Inc()
	} else {
		prometheusTxCacheMiss.Inc()
	}

	return tx, ok
}

// Peek returns the record for txID without touching its recency.
func (c *TxCache) Peek(txID chainhash.Hash) (*model.Transaction, bool) {
	return c.cache.Peek(txID)
}

// Contains reports whether txID is cached, without touching its recency.
func (c *TxCache) Contains(txID chainhash.Hash) bool {
	return c.cache.Contains(txID)
}

// Add stores tx, evicting the least recently used record when the cache is full.
// It reports whether an eviction happened.
func (c *TxCache) Add(tx *model.Transaction) bool {
	if tx == nil {
		return false
	}

	return c.cache.Add(tx.TxID, tx)
}

func (c *TxCache) Remove(txID chainhash.Hash) {
	c.cache.Remove(txID)
}

func (c *TxCache) Len() int {
	return c.cache.Len()
}

func (c *TxCache) Size() int {
	return c.size
}

// Keys returns the cached txids from least to most recently used.
func (c *TxCache) Keys() []chainhash.Hash {
	return c.cache.Keys()
}

func (c *TxCache) Purge() {
	c.cache.Purge()
}

// GetOrFetch returns the cached record for txID, or fetches and caches it. It blocks on the fetch
// and is meant for callers outside the model loop, such as the command line exporter.
func (c *TxCache) GetOrFetch(ctx context.Context, txID chainhash.Hash, fetcher Fetcher) (*model.Transaction, error) {
	if tx, ok := c.Get(txID); ok {
		return tx, nil
	}

	tx, err := fetcher.FetchTransaction(ctx, txID)
	if err != nil {
		return nil, errors.NewFetchFailedError(txID, err)
	}

	if tx.TxID != txID {
		return nil, errors.NewCacheCorruptError("fetched record %s does not match requested txid %s", tx.TxID, txID)
	}

	c.Add(tx)

	return tx, nil
}
