package graph

import (
	"encoding/binary"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/cespare/xxhash"
)

// Expand shows the counterparties of one side of node id: the funding transactions of its
// inputs, or the spenders of its outputs. Expanding a node that has not loaded yet records the
// request, and the side is expanded when the node loads. Expanding an expanded side does nothing.
func (g *Graph) Expand(id NodeID, side Side) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}

	if n.Expanded[side] {
		return nil
	}

	n.Expanded[side] = true
	g.generation++

	if n.Loaded() {
		g.expandSide(id, side)
	}

	return nil
}

// Collapse hides one side of node id. Every node that is no longer reachable from the root or a
// pinned node is removed, and its pending fetch canceled.
func (g *Graph) Collapse(id NodeID, side Side) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}

	if !n.Expanded[side] {
		return nil
	}

	n.Expanded[side] = false
	g.generation++

	if removed := g.sweep(); removed > 0 {
		g.logger.Debugf("[Graph] collapsing %s of node %d removed %d nodes", side, id, removed)
	}

	return nil
}

func (g *Graph) expandSide(id NodeID, side Side) {
	n := &g.nodes[id]
	tx := n.Detail()
	txID := n.TxID

	if side == Input {
		if tx.IsCoinbase() {
			return
		}

		for i, in := range tx.Inputs {
			g.ensureTx(in.PrevTxID, id, Input, uint32(i))
		}

		return
	}

	for o, out := range tx.Outputs {
		switch {
		case out.SpendingTxID != nil:
			g.ensureTx(*out.SpendingTxID, id, Output, uint32(o))
		case out.SpendUnknown:
			g.ensureSpend(model.Outpoint{TxID: txID, Vout: uint32(o)}, id, uint32(o))
		}
	}
}

// ensureTx returns the node for txID, creating it and requesting its fetch when there is none.
func (g *Graph) ensureTx(txID chainhash.Hash, parent NodeID, side Side, port uint32) NodeID {
	if id, ok := g.txIndex.Get(txID); ok {
		return id
	}

	id := g.alloc()
	rect := g.place(parent, side, port, txID[:])

	n := &g.nodes[id]
	n.TxID = txID
	n.Parent = parent
	n.ParentSide = side
	n.ParentPort = port
	n.Rect = rect

	g.txIndex.Put(txID, id)
	g.request(id)

	return id
}

// ensureSpend returns the placeholder for the spender of outpoint, creating it and requesting
// the spend lookup when there is none.
func (g *Graph) ensureSpend(outpoint model.Outpoint, parent NodeID, port uint32) NodeID {
	if id, ok := g.spendIndex.Get(outpoint); ok {
		return id
	}

	id := g.alloc()
	rect := g.place(parent, Output, port, binary.LittleEndian.AppendUint32(outpoint.TxID.CloneBytes(), outpoint.Vout))

	n := &g.nodes[id]
	n.TxID = outpoint.TxID
	n.SpendOf = &outpoint
	n.Parent = parent
	n.ParentSide = Output
	n.ParentPort = port
	n.Rect = rect

	g.spendIndex.Put(outpoint, id)
	g.request(id)

	return id
}

// place returns the initial rect of a node created from port of parent: beside the parent on
// the expanded side, level with the port. Nodes without a parent go below everything else.
func (g *Graph) place(parent NodeID, side Side, port uint32, seed []byte) layout.Rect {
	r := layout.Rect{W: MinNodeWidth, H: model.MinNodeHeight}
	jitter := float64(xxhash.Sum64(seed)%1024)/1024 - 0.5

	if parent == NoNode || !g.nodes[parent].alive {
		r.X = jitter * placementGap
		r.Y = g.bottom() + placementGap + r.H/2

		return r
	}

	p := &g.nodes[parent]

	if side == Input {
		r.X = p.Rect.Left() - placementGap - r.W/2
	} else {
		r.X = p.Rect.Right() + placementGap + r.W/2
	}

	r.Y = p.Rect.Y + portOffset(p, side, port, g.scale) + jitter*placementJitter

	return r
}

func (g *Graph) bottom() float64 {
	var bottom float64

	first := true

	for i := range g.nodes {
		if n := &g.nodes[i]; n.alive && n.Rect.W > 0 {
			if first || n.Rect.Bottom() > bottom {
				bottom = n.Rect.Bottom()
				first = false
			}
		}
	}

	return bottom
}

// sweep removes every node that is not reachable from the root or a pinned node through
// expanded sides, and returns how many it removed.
func (g *Graph) sweep() int {
	if g.root == NoNode {
		return 0
	}

	marked := make([]bool, len(g.nodes))
	stack := make([]NodeID, 0, g.count)

	visit := func(id NodeID) {
		if !marked[id] {
			marked[id] = true
			stack = append(stack, id)
		}
	}

	visit(g.root)

	for i := range g.nodes {
		if g.nodes[i].alive && g.nodes[i].Pinned {
			visit(NodeID(i))
		}
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		g.neighbours(id, visit)
	}

	var dead []NodeID

	for i := range g.nodes {
		if g.nodes[i].alive && !marked[i] {
			dead = append(dead, NodeID(i))
		}
	}

	g.remove(dead...)

	prometheusGraphReclaimed.Add(float64(len(dead)))

	return len(dead)
}

// neighbours calls visit for every node held visible by an expanded side of node id.
func (g *Graph) neighbours(id NodeID, visit func(NodeID)) {
	n := &g.nodes[id]
	if !n.Loaded() {
		return
	}

	tx := n.Detail()

	if n.Expanded[Input] && !tx.IsCoinbase() {
		for _, in := range tx.Inputs {
			if nid, ok := g.txIndex.Get(in.PrevTxID); ok {
				visit(nid)
			}
		}
	}

	if n.Expanded[Output] {
		for o, out := range tx.Outputs {
			if out.SpendingTxID != nil {
				if nid, ok := g.txIndex.Get(*out.SpendingTxID); ok {
					visit(nid)
				}

				continue
			}

			if nid, ok := g.spendIndex.Get(model.Outpoint{TxID: n.TxID, Vout: uint32(o)}); ok {
				visit(nid)
			}
		}
	}
}

// merge folds the spend placeholder dup into survivor, the node it turned out to be, and
// returns the sides that became expanded on survivor.
func (g *Graph) merge(dup, survivor NodeID) [2]bool {
	d := g.nodes[dup]
	s := &g.nodes[survivor]

	var added [2]bool

	for side := range d.Expanded {
		if d.Expanded[side] && !s.Expanded[side] {
			s.Expanded[side] = true
			added[side] = true
		}
	}

	s.Pinned = s.Pinned || d.Pinned

	if s.Annotation.IsZero() {
		s.Annotation = d.Annotation
	}

	if s.Parent == NoNode && d.Parent != survivor {
		s.Parent, s.ParentSide, s.ParentPort = d.Parent, d.ParentSide, d.ParentPort
	}

	g.remove(dup)

	g.logger.Debugf("[Graph] merged placeholder %d into node %d (%s)", dup, survivor, g.nodes[survivor].TxID)

	prometheusGraphMerged.Inc()

	return added
}
