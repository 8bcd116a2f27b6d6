package graph

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/model"
)

// Edges derives the value flows between visible, loaded nodes: an edge joins an output and an
// input the resolver has put in the same set. Edges are ordered by spending node, then input.
func (g *Graph) Edges() []Edge {
	type source struct {
		node  NodeID
		port  uint32
		value uint64
	}

	outputs := make(map[PortRef]source)

	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.alive || !n.Loaded() {
			continue
		}

		for _, p := range n.Outputs {
			outputs[g.resolver.Find(p.Ref(n.TxID))] = source{node: n.ID, port: p.Index, value: p.Value}
		}
	}

	var edges []Edge

	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.alive || !n.Loaded() {
			continue
		}

		for _, p := range n.Inputs {
			if p.Err != nil || p.Counterpart == nil {
				continue
			}

			if s, ok := outputs[g.resolver.Find(p.Ref(n.TxID))]; ok {
				edges = append(edges, Edge{
					From:     s.node,
					FromPort: s.port,
					To:       n.ID,
					ToPort:   p.Index,
					Value:    s.value,
				})
			}
		}
	}

	return edges
}

type NodeView struct {
	ID         NodeID
	TxID       chainhash.Hash
	SpendOf    *model.Outpoint
	Status     FetchStatus
	Err        error
	Root       bool
	Pinned     bool
	Expanded   [2]bool
	Rect       layout.Rect
	Annotation Annotation
	Inputs     []Port
	Outputs    []Port
	Tx         *model.Transaction
}

// Snapshot is a copy of the visible graph, safe to hand to a renderer or exporter.
type Snapshot struct {
	Generation uint64
	Root       NodeID
	Nodes      []NodeView
	Edges      []Edge
}

// Node returns the view of node id.
func (s *Snapshot) Node(id NodeID) (NodeView, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}

	return NodeView{}, false
}

func (g *Graph) Snapshot() *Snapshot {
	s := &Snapshot{
		Generation: g.generation,
		Root:       g.root,
		Nodes:      make([]NodeView, 0, g.count),
		Edges:      g.Edges(),
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.alive {
			continue
		}

		v := NodeView{
			ID:         n.ID,
			TxID:       n.TxID,
			Status:     n.Fetch.Status(),
			Err:        n.Fetch.Err(),
			Root:       n.ID == g.root,
			Pinned:     n.Pinned,
			Expanded:   n.Expanded,
			Rect:       n.Rect,
			Annotation: n.Annotation,
			Inputs:     append([]Port(nil), n.Inputs...),
			Outputs:    append([]Port(nil), n.Outputs...),
			Tx:         n.Detail().Clone(),
		}

		if n.SpendOf != nil {
			op := *n.SpendOf
			v.SpendOf = &op
		}

		s.Nodes = append(s.Nodes, v)
	}

	return s
}

// Frame is the input of one layout step: a body per visible node, in IDs order, and a link
// per edge. A node that is still loading is linked to the node it was expanded from.
type Frame struct {
	Generation uint64
	IDs        []NodeID
	Bodies     []layout.Body
	Links      []layout.Link
}

func (g *Graph) Frame() Frame {
	f := Frame{
		Generation: g.generation,
		IDs:        make([]NodeID, 0, g.count),
		Bodies:     make([]layout.Body, 0, g.count),
	}

	index := make(map[NodeID]int, g.count)

	for i := range g.nodes {
		n := &g.nodes[i]
		if !n.alive {
			continue
		}

		index[n.ID] = len(f.IDs)
		f.IDs = append(f.IDs, n.ID)
		f.Bodies = append(f.Bodies, layout.Body{Rect: n.Rect, Velocity: n.Velocity})
	}

	for _, e := range g.Edges() {
		f.Links = append(f.Links, layout.Link{
			From:  index[e.From],
			To:    index[e.To],
			FromY: portOffset(&g.nodes[e.From], Output, e.FromPort, g.scale),
			ToY:   portOffset(&g.nodes[e.To], Input, e.ToPort, g.scale),
		})
	}

	for _, id := range f.IDs {
		n := &g.nodes[id]
		if n.Loaded() || n.Parent == NoNode {
			continue
		}

		p := &g.nodes[n.Parent]
		offset := portOffset(p, n.ParentSide, n.ParentPort, g.scale)

		if n.ParentSide == Input {
			f.Links = append(f.Links, layout.Link{From: index[id], To: index[n.Parent], ToY: offset})
		} else {
			f.Links = append(f.Links, layout.Link{From: index[n.Parent], To: index[id], FromY: offset})
		}
	}

	return f
}

// ApplyFrame moves the nodes of f by the step's displacements and keeps the bodies' velocities.
// A frame taken before the graph last changed is rejected with LAYOUT_DESYNC.
func (g *Graph) ApplyFrame(f Frame, res layout.StepResult) error {
	if f.Generation != g.generation {
		return errors.NewLayoutDesyncError("frame of generation %d applied to generation %d", f.Generation, g.generation)
	}

	if len(res.Displacements) != len(f.IDs) || len(f.Bodies) != len(f.IDs) {
		return errors.NewLayoutDesyncError("%d displacements for %d nodes", len(res.Displacements), len(f.IDs))
	}

	for i, id := range f.IDs {
		n := &g.nodes[id]
		n.Rect = n.Rect.Translate(res.Displacements[i])
		n.Velocity = f.Bodies[i].Velocity
	}

	return nil
}

// Validate checks the graph's invariants: every index entry names a live node of that
// identity, every live node is indexed, the root is live, and every edge joins live nodes.
func (g *Graph) Validate() error {
	var err error

	g.txIndex.Iter(func(txID chainhash.Hash, id NodeID) bool {
		if int(id) >= len(g.nodes) || !g.nodes[id].alive || g.nodes[id].IsPlaceholder() || !g.nodes[id].TxID.IsEqual(&txID) {
			err = errors.NewGraphInvariantError("tx index entry %s points at node %d", txID, id)
			return true
		}

		return false
	})

	if err != nil {
		return err
	}

	g.spendIndex.Iter(func(op model.Outpoint, id NodeID) bool {
		if int(id) >= len(g.nodes) || !g.nodes[id].alive || !g.nodes[id].IsPlaceholder() || *g.nodes[id].SpendOf != op {
			err = errors.NewGraphInvariantError("spend index entry %s points at node %d", op, id)
			return true
		}

		return false
	})

	if err != nil {
		return err
	}

	if g.txIndex.Count()+g.spendIndex.Count() != g.count {
		return errors.NewGraphInvariantError("%d indexed nodes, %d live nodes", g.txIndex.Count()+g.spendIndex.Count(), g.count)
	}

	if g.root != NoNode && (int(g.root) >= len(g.nodes) || !g.nodes[g.root].alive) {
		return errors.NewGraphInvariantError("root node %d is not live", g.root)
	}

	for _, e := range g.Edges() {
		if !g.nodes[e.From].alive || !g.nodes[e.To].alive {
			return errors.NewGraphInvariantError("edge %d->%d has a removed end", e.From, e.To)
		}
	}

	return nil
}
