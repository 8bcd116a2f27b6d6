package util

import (
	"sync"
	"time"

	"github.com/bsv-blockchain/txflow/errors"
	"github.com/ordishs/go-utils/expiringmap"
)

// ExpiringConcurrentCache is a read-through cache whose entries expire after a fixed duration.
// Concurrent GetOrSet calls for the same missing key share a single call of the fetch function.
type ExpiringConcurrentCache[K comparable, V any] struct {
	mu        sync.Mutex
	cache     *expiringmap.ExpiringMap[K, V]
	inflight  map[K]*inflightCall[V]
	ZeroValue V
}

type inflightCall[V any] struct {
	wg  sync.WaitGroup
	val V
	err error
}

func NewExpiringConcurrentCache[K comparable, V any](expiration time.Duration) *ExpiringConcurrentCache[K, V] {
	return &ExpiringConcurrentCache[K, V]{
		cache:    expiringmap.New[K, V](expiration),
		inflight: make(map[K]*inflightCall[V]),
	}
}

// Get returns the cached value for key, without fetching.
func (c *ExpiringConcurrentCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Get(key)
}

// GetOrSet returns the cached value for key, or calls fetchFunc to produce it. The value is only
// stored when fetchFunc reports it as cacheable. Waiters on an in-flight fetch receive its result,
// including its error.
func (c *ExpiringConcurrentCache[K, V]) GetOrSet(key K, fetchFunc func() (V, bool, error)) (V, error) {
	c.mu.Lock()

	if val, found := c.cache.Get(key); found {
		c.mu.Unlock()
		return val, nil
	}

	if call, found := c.inflight[key]; found {
		c.mu.Unlock()
		call.wg.Wait()

		return call.val, call.err
	}

	call := &inflightCall[V]{}
	call.wg.Add(1)
	c.inflight[key] = call

	c.mu.Unlock()

	val, cacheable, err := c.fetch(fetchFunc)

	c.mu.Lock()

	if err == nil && cacheable {
		c.cache.Set(key, val)
	}

	delete(c.inflight, key)

	c.mu.Unlock()

	if err != nil {
		val = c.ZeroValue
	}

	call.val, call.err = val, err
	call.wg.Done()

	return val, err
}

func (c *ExpiringConcurrentCache[K, V]) fetch(fetchFunc func() (V, bool, error)) (val V, cacheable bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewProcessingError("cache: fetch panicked: %v", r)
		}
	}()

	return fetchFunc()
}
