package graph

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/services/txfetch"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/stretchr/testify/require"
)

// syncSource completes requests from a StaticFetcher when drained. Held keys stay pending
// until released.
type syncSource struct {
	fetcher  *txfetch.StaticFetcher
	pending  map[txfetch.Key]bool
	order    []txfetch.Key
	held     map[txfetch.Key]bool
	requests []txfetch.Key
	canceled []txfetch.Key
	// closed refuses every request, as a closed pipeline does
	closed bool
}

func newSyncSource(txs ...*model.Transaction) *syncSource {
	return &syncSource{
		fetcher: txfetch.NewStaticFetcher(txs...),
		pending: make(map[txfetch.Key]bool),
		held:    make(map[txfetch.Key]bool),
	}
}

func (s *syncSource) Request(key txfetch.Key) bool {
	if s.closed || s.pending[key] {
		return false
	}

	s.pending[key] = true
	s.order = append(s.order, key)
	s.requests = append(s.requests, key)

	return true
}

func (s *syncSource) IsPending(key txfetch.Key) bool {
	return s.pending[key]
}

func (s *syncSource) Cancel(key txfetch.Key) bool {
	if !s.pending[key] {
		return false
	}

	delete(s.pending, key)
	s.canceled = append(s.canceled, key)

	return true
}

func (s *syncSource) Drain() []txfetch.Result {
	var (
		results []txfetch.Result
		waiting []txfetch.Key
	)

	ctx := context.Background()

	for _, key := range s.order {
		if !s.pending[key] {
			continue
		}

		if s.held[key] {
			waiting = append(waiting, key)
			continue
		}

		delete(s.pending, key)

		res := txfetch.Result{Key: key}

		if key.Kind == txfetch.KindSpend {
			spender, err := s.fetcher.FetchSpend(ctx, model.Outpoint{TxID: key.TxID, Vout: key.Vout})
			if err != nil {
				res.Err = errors.NewSpendFetchFailedError(key.TxID, key.Vout, err)
			}

			res.SpendingTxID = spender
		} else {
			tx, err := s.fetcher.FetchTransaction(ctx, key.TxID)
			if err != nil {
				res.Err = errors.NewFetchFailedError(key.TxID, err)
			}

			res.Tx = tx
		}

		results = append(results, res)
	}

	s.order = waiting

	return results
}

func (s *syncSource) hold(keys ...txfetch.Key) {
	for _, k := range keys {
		s.held[k] = true
	}
}

func (s *syncSource) release(keys ...txfetch.Key) {
	for _, k := range keys {
		delete(s.held, k)
	}
}

func (s *syncSource) wasCanceled(key txfetch.Key) bool {
	for _, k := range s.canceled {
		if k == key {
			return true
		}
	}

	return false
}

func newTestGraph(t *testing.T, source FetchSource) *Graph {
	return New(ulogger.NewVerboseTestLogger(t), source, model.DefaultSizeScale())
}

// settle polls until a poll changes nothing.
func settle(t *testing.T, g *Graph) {
	t.Helper()

	for i := 0; i < 100; i++ {
		if !g.Poll().Changed() {
			require.NoError(t, g.Validate())
			return
		}
	}

	t.Fatal("graph did not settle")
}

func newTx(seed string, spends []model.Outpoint, values ...uint64) *model.Transaction {
	tx := &model.Transaction{
		TxID:      chainhash.HashH([]byte(seed)),
		Timestamp: 1_600_000_000,
	}

	for _, op := range spends {
		tx.Inputs = append(tx.Inputs, model.Input{PrevTxID: op.TxID, Vout: op.Vout, Value: 1_000_000})
	}

	for _, v := range values {
		tx.Outputs = append(tx.Outputs, model.Output{Value: v, AddressType: "p2pkh"})
	}

	return tx
}

func op(tx *model.Transaction, vout uint32) model.Outpoint {
	return tx.Outpoint(vout)
}

// spentBy records on output vout of funder that it is spent by spender.
func spentBy(funder *model.Transaction, vout uint32, spender *model.Transaction) {
	h := spender.TxID
	funder.Outputs[vout].SpendingTxID = &h
}

// fixture is a small graph:
//
//	X:0 ----------------> A:0 --> R
//	P:0 ----------------> A       R
//	P:1 --> B:0 --------> R
type fixture struct {
	P, X, A, B, R *model.Transaction
}

func newFixture() fixture {
	f := fixture{}
	f.X = newTx("X", nil, 2_000_000)
	f.P = newTx("P", nil, 6_000_000, 4_000_000)
	f.A = newTx("A", []model.Outpoint{op(f.P, 0), op(f.X, 0)}, 5_000_000)
	f.B = newTx("B", []model.Outpoint{op(f.P, 1)}, 3_000_000)
	f.R = newTx("R", []model.Outpoint{op(f.A, 0), op(f.B, 0)}, 7_000_000)

	spentBy(f.X, 0, f.A)
	spentBy(f.P, 0, f.A)
	spentBy(f.P, 1, f.B)
	spentBy(f.A, 0, f.R)
	spentBy(f.B, 0, f.R)

	return f
}

func (f fixture) all() []*model.Transaction {
	return []*model.Transaction{f.P, f.X, f.A, f.B, f.R}
}

func mustLookup(t *testing.T, g *Graph, tx *model.Transaction) NodeID {
	t.Helper()

	id, ok := g.Lookup(tx.TxID)
	require.True(t, ok, "no node for %s", tx.TxID)

	return id
}
