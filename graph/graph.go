// Package graph holds the explorer's transaction graph. Nodes live in an index-addressed arena,
// are found by txid through an index, and are kept alive by reachability from the root and the
// pinned nodes along expanded sides. Edges are never stored: they are derived from the port
// resolver, so an edge can only exist between two visible nodes.
//
// A Graph is not safe for concurrent use. Fetches run elsewhere and their results are applied
// by Poll, on the goroutine that owns the graph.
package graph

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/services/txfetch"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/dolthub/swiss"
)

// FetchSource is the part of the fetch pipeline the graph drives. *txfetch.Pipeline implements it.
type FetchSource interface {
	Request(key txfetch.Key) bool
	IsPending(key txfetch.Key) bool
	Cancel(key txfetch.Key) bool
	Drain() []txfetch.Result
}

// Hint is state to restore onto a transaction's node once it loads.
type Hint struct {
	Position          *layout.Vec2
	Annotation        Annotation
	Expanded          [2]bool
	Pinned            bool
	InputAnnotations  map[uint32]Annotation
	OutputAnnotations map[uint32]Annotation
}

type Graph struct {
	logger     ulogger.Logger
	source     FetchSource
	scale      model.SizeScale
	nodes      []Node
	free       []NodeID
	count      int
	root       NodeID
	txIndex    *swiss.Map[chainhash.Hash, NodeID]
	spendIndex *swiss.Map[model.Outpoint, NodeID]
	resolver   *Resolver
	hints      map[chainhash.Hash]Hint
	generation uint64
}

func New(logger ulogger.Logger, source FetchSource, scale model.SizeScale) *Graph {
	initPrometheusMetrics()

	g := &Graph{
		logger: logger,
		source: source,
		scale:  scale,
	}

	g.clear()

	return g
}

func (g *Graph) clear() {
	g.nodes = g.nodes[:0]
	g.free = g.free[:0]
	g.count = 0
	g.root = NoNode
	g.txIndex = swiss.NewMap[chainhash.Hash, NodeID](256)
	g.spendIndex = swiss.NewMap[model.Outpoint, NodeID](64)
	g.resolver = NewResolver()
	g.hints = make(map[chainhash.Hash]Hint)
	g.generation++

	prometheusGraphNodes.Set(0)
}

// Reset discards every node, canceling their fetches, and starts over with a single root node
// for txID. Hints are discarded too.
func (g *Graph) Reset(txID chainhash.Hash) NodeID {
	for i := range g.nodes {
		if n := &g.nodes[i]; n.alive && n.Fetch.Status() == Pending && g.source.Cancel(n.fetchKey()) {
			prometheusGraphCanceled.Inc()
		}
	}

	g.clear()

	id := g.alloc()
	n := &g.nodes[id]
	n.TxID = txID
	n.Rect = layout.Rect{W: MinNodeWidth, H: model.MinNodeHeight}

	g.txIndex.Put(txID, id)
	g.root = id
	g.request(id)

	g.logger.Infof("[Graph] reset to root %s", txID)

	return id
}

func (g *Graph) Root() NodeID {
	return g.root
}

// Len is the number of visible nodes.
func (g *Graph) Len() int {
	return g.count
}

// Generation changes whenever nodes are added, removed, loaded, or edited.
func (g *Graph) Generation() uint64 {
	return g.generation
}

func (g *Graph) Scale() model.SizeScale {
	return g.scale
}

// Lookup returns the node showing the transaction txID.
func (g *Graph) Lookup(txID chainhash.Hash) (NodeID, bool) {
	return g.txIndex.Get(txID)
}

// LookupSpend returns the placeholder standing for the unknown spender of outpoint.
func (g *Graph) LookupSpend(outpoint model.Outpoint) (NodeID, bool) {
	return g.spendIndex.Get(outpoint)
}

// Node returns a copy of node id. Its ports are copied too, its detail is shared and must not be modified.
func (g *Graph) Node(id NodeID) (Node, error) {
	n, err := g.node(id)
	if err != nil {
		return Node{}, err
	}

	c := *n
	c.Inputs = append([]Port(nil), n.Inputs...)
	c.Outputs = append([]Port(nil), n.Outputs...)

	return c, nil
}

// Connected reports whether two ports have been resolved to the same on-chain output.
func (g *Graph) Connected(a, b PortRef) bool {
	return g.resolver.Connected(a, b)
}

func (g *Graph) node(id NodeID) (*Node, error) {
	if int(id) >= len(g.nodes) || !g.nodes[id].alive {
		return nil, errors.NewNotFoundError("node %d does not exist", id)
	}

	return &g.nodes[id], nil
}

// alloc returns a fresh node. It may grow the arena, so no *Node may be held across a call.
func (g *Graph) alloc() NodeID {
	var id NodeID

	if len(g.free) > 0 {
		id = g.free[len(g.free)-1]
		g.free = g.free[:len(g.free)-1]
	} else {
		id = NodeID(len(g.nodes))
		g.nodes = append(g.nodes, Node{})
	}

	g.nodes[id] = Node{ID: id, Parent: NoNode, alive: true}
	g.count++
	g.generation++

	prometheusGraphNodes.Set(float64(g.count))

	return id
}

// remove drops the given nodes, canceling their fetches and unindexing them.
func (g *Graph) remove(ids ...NodeID) {
	if len(ids) == 0 {
		return
	}

	for _, id := range ids {
		n := &g.nodes[id]
		if !n.alive {
			continue
		}

		if id == g.root {
			invariant(errors.NewGraphInvariantError("root node %d cannot be removed", id))
		}

		if n.Fetch.Status() == Pending && g.source.Cancel(n.fetchKey()) {
			prometheusGraphCanceled.Inc()
		}

		if n.IsPlaceholder() {
			if cur, ok := g.spendIndex.Get(*n.SpendOf); ok && cur == id {
				g.spendIndex.Delete(*n.SpendOf)
			}
		} else if cur, ok := g.txIndex.Get(n.TxID); ok && cur == id {
			g.txIndex.Delete(n.TxID)
		}

		*n = Node{ID: id, Parent: NoNode}
		g.free = append(g.free, id)
		g.count--
	}

	for i := range g.nodes {
		n := &g.nodes[i]
		if n.alive && n.Parent != NoNode && !g.nodes[n.Parent].alive {
			n.Parent = NoNode
		}
	}

	g.generation++

	prometheusGraphNodes.Set(float64(g.count))
}

func (g *Graph) request(id NodeID) {
	n := &g.nodes[id]

	state, err := n.Fetch.request()
	if err != nil {
		invariant(err)
	}

	n.Fetch = state
	prometheusGraphRequests.Inc()

	// a refused request that is not coalesced into a pending one would never complete
	key := n.fetchKey()
	if !g.source.Request(key) && !g.source.IsPending(key) {
		g.fail(id, fetchFailed(key, errors.NewServiceUnavailableError("fetch source refused %s", key)))
	}
}

func fetchFailed(key txfetch.Key, cause error) error {
	if key.Kind == txfetch.KindSpend {
		return errors.NewSpendFetchFailedError(key.TxID, key.Vout, cause)
	}

	return errors.NewFetchFailedError(key.TxID, cause)
}

func (n *Node) fetchKey() txfetch.Key {
	if n.SpendOf != nil {
		return txfetch.SpendKey(*n.SpendOf)
	}

	return txfetch.TxKey(n.TxID)
}

// invariant aborts on a broken graph invariant. These are programming errors, not runtime conditions.
func invariant(err error) {
	panic(err)
}
