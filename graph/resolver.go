package graph

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/dolthub/swiss"
)

// PortRef names a port independently of the node that shows it.
type PortRef struct {
	TxID  chainhash.Hash
	Side  Side
	Index uint32
}

func (p PortRef) String() string {
	return fmt.Sprintf("%s:%s:%d", p.TxID, p.Side, p.Index)
}

// Resolver groups ports that denote the same on-chain output: a funding output and the input
// spending it end up in one set. Sets are only ever joined, never split.
type Resolver struct {
	ids    *swiss.Map[PortRef, uint32]
	refs   []PortRef
	parent []uint32
	size   []uint32
	sets   int
}

func NewResolver() *Resolver {
	return &Resolver{
		ids: swiss.NewMap[PortRef, uint32](64),
	}
}

func (r *Resolver) id(ref PortRef) uint32 {
	if id, ok := r.ids.Get(ref); ok {
		return id
	}

	id := uint32(len(r.refs))
	r.ids.Put(ref, id)
	r.refs = append(r.refs, ref)
	r.parent = append(r.parent, id)
	r.size = append(r.size, 1)
	r.sets++

	return id
}

func (r *Resolver) root(id uint32) uint32 {
	root := id
	for r.parent[root] != root {
		root = r.parent[root]
	}

	// path compression
	for r.parent[id] != root {
		next := r.parent[id]
		r.parent[id] = root
		id = next
	}

	return root
}

// Find returns the representative of the set holding ref. An unknown ref is its own representative.
func (r *Resolver) Find(ref PortRef) PortRef {
	id, ok := r.ids.Get(ref)
	if !ok {
		return ref
	}

	return r.refs[r.root(id)]
}

// Union joins the sets of a and b and returns the representative of the joined set.
func (r *Resolver) Union(a, b PortRef) PortRef {
	ra := r.root(r.id(a))
	rb := r.root(r.id(b))

	if ra == rb {
		return r.refs[ra]
	}

	if r.size[ra] < r.size[rb] {
		ra, rb = rb, ra
	}

	r.parent[rb] = ra
	r.size[ra] += r.size[rb]
	r.sets--

	return r.refs[ra]
}

func (r *Resolver) Connected(a, b PortRef) bool {
	return r.Find(a) == r.Find(b)
}

// Len is the number of ports the resolver has seen.
func (r *Resolver) Len() int {
	return len(r.refs)
}

// Sets is the number of disjoint sets.
func (r *Resolver) Sets() int {
	return r.sets
}
