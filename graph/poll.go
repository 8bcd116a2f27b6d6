package graph

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/services/txfetch"
)

// PollResult counts what applying a batch of fetch results did.
type PollResult struct {
	Loaded int
	Failed int
	Merged int
	// Resolved counts spend lookups that found a spender, Unspent those that found none.
	Resolved int
	Unspent  int
	// Stale counts results no node was waiting for any more.
	Stale int
}

func (r PollResult) Changed() bool {
	return r.Loaded+r.Failed+r.Merged+r.Resolved+r.Unspent > 0
}

// Poll applies every result the fetch source has completed since the last call.
func (g *Graph) Poll() PollResult {
	return g.Apply(g.source.Drain())
}

// Apply applies fetch results to the nodes waiting for them. A result whose node was removed,
// or is no longer pending, is dropped.
func (g *Graph) Apply(results []txfetch.Result) PollResult {
	var pr PollResult

	for _, res := range results {
		g.apply(res, &pr)
	}

	return pr
}

func (g *Graph) apply(res txfetch.Result, pr *PollResult) {
	var (
		id NodeID
		ok bool
	)

	outpoint := model.Outpoint{TxID: res.Key.TxID, Vout: res.Key.Vout}

	if res.Key.Kind == txfetch.KindSpend {
		id, ok = g.spendIndex.Get(outpoint)
	} else {
		id, ok = g.txIndex.Get(res.Key.TxID)
	}

	if !ok || g.nodes[id].Fetch.Status() != Pending {
		g.logger.Debugf("[Graph] dropping stale result for %s", res.Key)
		prometheusGraphStale.Inc()

		pr.Stale++

		return
	}

	if res.Err != nil {
		g.fail(id, res.Err)

		pr.Failed++

		return
	}

	if res.Key.Kind == txfetch.KindSpend {
		g.resolveSpend(id, outpoint, res.SpendingTxID, pr)
		return
	}

	if res.Tx == nil {
		g.fail(id, errors.NewFetchFailedError(res.Key.TxID, errors.NewProcessingError("empty result")))

		pr.Failed++

		return
	}

	g.load(id, res.Tx.Clone(), pr)

	pr.Loaded++
}

func (g *Graph) fail(id NodeID, err error) {
	n := &g.nodes[id]

	state, tErr := n.Fetch.fail(err)
	if tErr != nil {
		invariant(tErr)
	}

	n.Fetch = state
	g.generation++

	g.logger.Warnf("[Graph] node %d failed to load: %v", id, err)
	prometheusGraphFailed.Inc()
}

// Retry requests the fetch of a failed node again.
func (g *Graph) Retry(id NodeID) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}

	if n.Fetch.Status() != Failed {
		return errors.NewInvalidArgumentError("node %d is %s, only failed nodes can be retried", id, n.Fetch.Status())
	}

	g.request(id)
	g.generation++

	return nil
}

// load installs tx as the detail of node id, joins its inputs with the outputs they spend,
// merges placeholders that turn out to be this node, and expands the sides recorded before load.
func (g *Graph) load(id NodeID, tx *model.Transaction, pr *PollResult) {
	n := &g.nodes[id]

	state, err := n.Fetch.complete(tx)
	if err != nil {
		invariant(err)
	}

	n.Fetch = state
	n.Inputs, n.Outputs = buildPorts(tx)

	g.applyHint(id)
	g.resize(id)
	g.generation++

	prometheusGraphLoaded.Inc()

	if !tx.IsCoinbase() {
		for i, in := range tx.Inputs {
			g.resolver.Union(PortRef{TxID: tx.TxID, Side: Input, Index: uint32(i)}, PortRef{TxID: in.PrevTxID, Side: Output, Index: in.Vout})
			g.joinFunder(id, uint32(i))

			if dup, ok := g.spendIndex.Get(model.Outpoint{TxID: in.PrevTxID, Vout: in.Vout}); ok && dup != id {
				g.merge(dup, id)

				pr.Merged++
			}
		}
	}

	g.checkSpenders(id)

	for _, side := range []Side{Input, Output} {
		if g.nodes[id].Expanded[side] {
			g.expandSide(id, side)
		}
	}
}

// joinFunder checks input i of node id against the funding node, when that is loaded, and
// records on the funding output that it is spent by node id.
func (g *Graph) joinFunder(id NodeID, i uint32) {
	n := &g.nodes[id]
	in := n.Detail().Inputs[i]

	fid, ok := g.txIndex.Get(in.PrevTxID)
	if !ok || !g.nodes[fid].Loaded() {
		return
	}

	f := &g.nodes[fid]

	if int(in.Vout) >= len(f.Outputs) {
		n.Inputs[i].Err = errors.NewInvalidPortError("input %d of %s spends %s:%d, which has %d outputs", i, n.TxID, f.TxID, in.Vout, len(f.Outputs))
		g.logger.Warnf("[Graph] %v", n.Inputs[i].Err)

		return
	}

	out := &f.Detail().Outputs[in.Vout]

	switch {
	case out.SpendingTxID == nil:
		g.learnSpend(fid, in.Vout, n.TxID)
	case !out.SpendingTxID.IsEqual(&n.TxID):
		n.Inputs[i].Err = errors.NewInvalidPortError("input %d of %s spends %s:%d, which is spent by %s", i, n.TxID, f.TxID, in.Vout, out.SpendingTxID)
		g.logger.Warnf("[Graph] %v", n.Inputs[i].Err)
	}
}

// checkSpenders flags the inputs of visible nodes that spend a non-existent output of node id.
func (g *Graph) checkSpenders(id NodeID) {
	f := &g.nodes[id]

	for i := range g.nodes {
		s := &g.nodes[i]
		if !s.alive || !s.Loaded() || NodeID(i) == id {
			continue
		}

		for j, in := range s.Detail().Inputs {
			if in.PrevTxID.IsEqual(&f.TxID) && int(in.Vout) >= len(f.Outputs) && s.Inputs[j].Err == nil {
				s.Inputs[j].Err = errors.NewInvalidPortError("input %d of %s spends %s:%d, which has %d outputs", j, s.TxID, f.TxID, in.Vout, len(f.Outputs))
				g.logger.Warnf("[Graph] %v", s.Inputs[j].Err)
			}
		}
	}
}

// learnSpend records on output vout of the loaded node fid that it is spent by spender.
func (g *Graph) learnSpend(fid NodeID, vout uint32, spender chainhash.Hash) {
	f := &g.nodes[fid]
	if !f.Loaded() || int(vout) >= len(f.Outputs) {
		return
	}

	out := &f.Detail().Outputs[vout]
	if out.SpendingTxID != nil {
		return
	}

	a, b := spender, spender
	out.SpendingTxID = &a
	out.SpendUnknown = false

	f.Outputs[vout].Counterpart = &b
	f.Outputs[vout].SpendUnknown = false
}

// resolveSpend applies the spend lookup of placeholder id. An unspent output removes the
// placeholder, a spender that is already visible absorbs it, and otherwise the placeholder
// becomes the spender's node and its fetch is requested.
func (g *Graph) resolveSpend(id NodeID, outpoint model.Outpoint, spender *chainhash.Hash, pr *PollResult) {
	owner, hasOwner := g.txIndex.Get(outpoint.TxID)

	if spender == nil {
		if hasOwner {
			f := &g.nodes[owner]
			if f.Loaded() && int(outpoint.Vout) < len(f.Outputs) {
				f.Detail().Outputs[outpoint.Vout].SpendUnknown = false
				f.Outputs[outpoint.Vout].SpendUnknown = false
			}
		}

		g.remove(id)

		pr.Unspent++

		return
	}

	pr.Resolved++

	if hasOwner {
		g.learnSpend(owner, outpoint.Vout, *spender)
	}

	if sid, ok := g.txIndex.Get(*spender); ok {
		added := g.merge(id, sid)

		pr.Merged++

		if g.nodes[sid].Loaded() {
			for side, a := range added {
				if a {
					g.expandSide(sid, Side(side))
				}
			}
		}

		return
	}

	n := &g.nodes[id]
	n.Fetch = n.Fetch.reset()
	n.SpendOf = nil
	n.TxID = *spender

	g.spendIndex.Delete(outpoint)
	g.txIndex.Put(*spender, id)
	g.request(id)
	g.generation++
}

// resize recomputes the size of node id, keeping its centre.
func (g *Graph) resize(id NodeID) {
	n := &g.nodes[id]
	n.Rect.W, n.Rect.H = nodeSize(n, g.scale)
}

func (g *Graph) applyHint(id NodeID) {
	n := &g.nodes[id]

	h, ok := g.hints[n.TxID]
	if !ok {
		return
	}

	delete(g.hints, n.TxID)

	if h.Position != nil && h.Position.IsFinite() {
		n.Rect.X, n.Rect.Y = h.Position.X, h.Position.Y
	}

	if !h.Annotation.IsZero() {
		n.Annotation = h.Annotation
	}

	n.Pinned = n.Pinned || h.Pinned

	for side, e := range h.Expanded {
		n.Expanded[side] = n.Expanded[side] || e
	}

	for i, a := range h.InputAnnotations {
		if int(i) < len(n.Inputs) {
			n.Inputs[i].Annotation = a
		}
	}

	for i, a := range h.OutputAnnotations {
		if int(i) < len(n.Outputs) {
			n.Outputs[i].Annotation = a
		}
	}
}
