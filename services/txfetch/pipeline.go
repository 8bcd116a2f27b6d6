package txfetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/ulogger"
	"go.uber.org/atomic"
)

type Kind uint8

const (
	KindTx Kind = iota
	KindSpend
)

func (k Kind) String() string {
	switch k {
	case KindTx:
		return "tx"
	case KindSpend:
		return "spend"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Key identifies a fetch. Vout is only meaningful for KindSpend.
type Key struct {
	Kind Kind
	TxID chainhash.Hash
	Vout uint32
}

func TxKey(txID chainhash.Hash) Key {
	return Key{Kind: KindTx, TxID: txID}
}

func SpendKey(outpoint model.Outpoint) Key {
	return Key{Kind: KindSpend, TxID: outpoint.TxID, Vout: outpoint.Vout}
}

func (k Key) String() string {
	if k.Kind == KindSpend {
		return fmt.Sprintf("spend %s:%d", k.TxID, k.Vout)
	}

	return "tx " + k.TxID.String()
}

// Result is the completion of a fetch. Err is always a FETCH_FAILED error.
type Result struct {
	Key Key
	// Tx is set for a successful KindTx fetch. It may be shared with the cache and must not be modified.
	Tx *model.Transaction
	// SpendingTxID is set for a successful KindSpend fetch of a spent output.
	SpendingTxID *chainhash.Hash
	Err          error
	Cached       bool
	Duration     time.Duration

	seq uint64
}

type request struct {
	seq    uint64
	cancel context.CancelFunc
}

// Pipeline runs fetches on worker goroutines without blocking the caller. Requests for a key that
// is already pending are coalesced into the pending one. Completed results are collected with Drain.
type Pipeline struct {
	logger   ulogger.Logger
	fetcher  Fetcher
	cache    *TxCache
	timeout  time.Duration
	sem      chan struct{}
	results  chan Result
	ready    []Result
	pending  map[Key]*request
	seq      uint64
	inFlight *atomic.Int64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewPipeline(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, fetcher Fetcher, cache *TxCache) *Pipeline {
	initPrometheusMetrics()

	workers := tSettings.Fetch.Workers
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pipeline{
		logger:   logger,
		fetcher:  fetcher,
		cache:    cache,
		timeout:  tSettings.Fetch.Timeout,
		sem:      make(chan struct{}, workers),
		results:  make(chan Result, workers*4),
		pending:  make(map[Key]*request),
		inFlight: atomic.NewInt64(0),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Cache returns the transaction cache the pipeline fills, which may be nil.
func (p *Pipeline) Cache() *TxCache {
	return p.cache
}

// Request starts fetching key and returns true, or returns false when a fetch for key is already
// pending (its result will serve this request too) or the pipeline is closed.
// A transaction found in the cache completes without a network round trip, at the next Drain.
func (p *Pipeline) Request(key Key) bool {
	if _, found := p.pending[key]; found {
		prometheusTxFetchCoalesced.Inc()
		return false
	}

	if p.ctx.Err() != nil {
		p.logger.Warnf("[Pipeline] request for %s after close", key)
		return false
	}

	p.seq++
	seq := p.seq

	prometheusTxFetchRequests.WithLabelValues(key.Kind.String()).Inc()

	if key.Kind == KindTx && p.cache != nil {
		if tx, ok := p.cache.Get(key.TxID); ok {
			p.pending[key] = &request{seq: seq, cancel: func() {}}
			p.ready = append(p.ready, Result{Key: key, Tx: tx, Cached: true, seq: seq})

			return true
		}
	}

	reqCtx, reqCancel := context.WithCancel(p.ctx)
	p.pending[key] = &request{seq: seq, cancel: reqCancel}

	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		res := p.run(reqCtx, key)
		res.seq = seq

		select {
		case p.results <- res:
		case <-p.ctx.Done():
		}
	}()

	return true
}

func (p *Pipeline) run(ctx context.Context, key Key) Result {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return p.failed(key, errors.NewContextCanceledError("%s canceled while queued", key, ctx.Err()))
	}

	defer func() {
		<-p.sem
	}()

	p.inFlight.Inc()
	prometheusTxFetchInFlight.Inc()

	defer func() {
		p.inFlight.Dec()
		prometheusTxFetchInFlight.Dec()
	}()

	if p.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	res := Result{Key: key}

	switch key.Kind {
	case KindTx:
		tx, err := p.fetcher.FetchTransaction(ctx, key.TxID)
		if err == nil && tx == nil {
			err = errors.NewProcessingError("empty result for %s", key)
		}

		if err == nil && tx.TxID != key.TxID {
			err = errors.NewCacheCorruptError("fetched record %s does not match requested %s", tx.TxID, key.TxID)
		}

		if err != nil {
			res = p.failed(key, err)
		} else {
			res.Tx = tx
		}
	case KindSpend:
		spending, err := p.fetcher.FetchSpend(ctx, model.Outpoint{TxID: key.TxID, Vout: key.Vout})
		if err != nil {
			res = p.failed(key, err)
		} else {
			res.SpendingTxID = spending
		}
	default:
		res = p.failed(key, errors.NewInvalidArgumentError("unknown fetch kind %s", key.Kind))
	}

	res.Duration = time.Since(start)
	prometheusTxFetchDuration.WithLabelValues(key.Kind.String()).Observe(float64(res.Duration.Milliseconds()))

	return res
}

func (p *Pipeline) failed(key Key, cause error) Result {
	prometheusTxFetchFailed.WithLabelValues(key.Kind.String()).Inc()

	if key.Kind == KindSpend {
		return Result{Key: key, Err: errors.NewSpendFetchFailedError(key.TxID, key.Vout, cause)}
	}

	return Result{Key: key, Err: errors.NewFetchFailedError(key.TxID, cause)}
}

// Drain returns every result that completed since the last call, without blocking.
// Results of canceled requests are discarded. Successful transaction fetches are added to the cache.
func (p *Pipeline) Drain() []Result {
	var out []Result

	ready := p.ready
	p.ready = nil

	for _, res := range ready {
		if p.accept(res) {
			out = append(out, res)
		}
	}

	for {
		select {
		case res := <-p.results:
			if p.accept(res) {
				out = append(out, res)
			}
		default:
			return out
		}
	}
}

// Await blocks until at least one result is ready for Drain, nothing is pending, or ctx is done.
func (p *Pipeline) Await(ctx context.Context) error {
	if len(p.ready) > 0 || len(p.pending) == 0 {
		return nil
	}

	select {
	case res := <-p.results:
		p.ready = append(p.ready, res)
		return nil
	case <-ctx.Done():
		return errors.NewContextCanceledError("[Pipeline] await canceled", ctx.Err())
	}
}

func (p *Pipeline) accept(res Result) bool {
	req, found := p.pending[res.Key]
	if !found || req.seq != res.seq {
		// canceled, and possibly requested again since
		return false
	}

	delete(p.pending, res.Key)
	req.cancel()

	if res.Err == nil && res.Key.Kind == KindTx && !res.Cached && p.cache != nil {
		p.cache.Add(res.Tx)
	}

	return true
}

// Cancel forgets the pending request for key and aborts its fetch. Its result, if it still
// arrives, is discarded. Returns false when nothing was pending.
func (p *Pipeline) Cancel(key Key) bool {
	req, found := p.pending[key]
	if !found {
		return false
	}

	delete(p.pending, key)
	req.cancel()

	prometheusTxFetchCanceled.Inc()

	return true
}

// CancelAll cancels every pending request.
func (p *Pipeline) CancelAll() {
	for key := range p.pending {
		p.Cancel(key)
	}

	p.ready = nil
}

func (p *Pipeline) IsPending(key Key) bool {
	_, found := p.pending[key]
	return found
}

func (p *Pipeline) PendingCount() int {
	return len(p.pending)
}

// InFlight is the number of fetches currently executing on workers. Safe to call from any goroutine.
func (p *Pipeline) InFlight() int64 {
	return p.inFlight.Load()
}

// Close cancels all work and waits for the worker goroutines to exit.
func (p *Pipeline) Close() {
	p.cancel()
	p.wg.Wait()
}
