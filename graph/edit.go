package graph

import (
	"math"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/model"
)

// AddTransaction shows txID as a pinned node, which stays visible until unpinned even when no
// expanded side reaches it.
func (g *Graph) AddTransaction(txID chainhash.Hash) NodeID {
	id, ok := g.txIndex.Get(txID)
	if !ok {
		id = g.ensureTx(txID, NoNode, Output, 0)
	}

	if !g.nodes[id].Pinned {
		g.nodes[id].Pinned = true
		g.generation++
	}

	return id
}

// Unpin releases a pinned node, removing it and everything only it kept visible.
func (g *Graph) Unpin(id NodeID) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}

	if !n.Pinned {
		return nil
	}

	n.Pinned = false
	g.generation++

	g.sweep()

	return nil
}

// Annotate sets the label and colour of node id. The node is resized to fit the label.
func (g *Graph) Annotate(id NodeID, a Annotation) error {
	if err := a.validate(); err != nil {
		return err
	}

	n, err := g.node(id)
	if err != nil {
		return err
	}

	n.Annotation = a

	g.resize(id)
	g.generation++

	return nil
}

// AnnotatePort sets the label and colour of one port of a loaded node.
func (g *Graph) AnnotatePort(id NodeID, side Side, index uint32, a Annotation) error {
	if err := a.validate(); err != nil {
		return err
	}

	n, err := g.node(id)
	if err != nil {
		return err
	}

	p, err := n.port(side, index)
	if err != nil {
		return err
	}

	p.Annotation = a
	g.generation++

	return nil
}

// MoveNode places the centre of node id at (x, y) and stops it.
func (g *Graph) MoveNode(id NodeID, x, y float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return errors.NewInvalidArgumentError("position (%f, %f) is not finite", x, y)
	}

	n, err := g.node(id)
	if err != nil {
		return err
	}

	n.Rect.X, n.Rect.Y = x, y
	n.Velocity = layout.Vec2{}
	g.generation++

	return nil
}

// SetHint stores state to restore onto the node of txID when it loads. A node that is already
// loaded takes the hint at once.
func (g *Graph) SetHint(txID chainhash.Hash, h Hint) {
	g.hints[txID] = h

	id, ok := g.txIndex.Get(txID)
	if !ok || !g.nodes[id].Loaded() {
		return
	}

	before := g.nodes[id].Expanded

	g.applyHint(id)
	g.resize(id)
	g.generation++

	for side := range before {
		if !before[side] && g.nodes[id].Expanded[side] {
			g.expandSide(id, Side(side))
		}
	}
}

// SetScale changes how amounts map onto node heights and resizes every node.
func (g *Graph) SetScale(scale model.SizeScale) {
	g.scale = scale

	for i := range g.nodes {
		if g.nodes[i].alive {
			g.resize(NodeID(i))
		}
	}

	g.generation++
}
