package graph

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(seed string, side Side, index uint32) PortRef {
	return PortRef{TxID: chainhash.HashH([]byte(seed)), Side: side, Index: index}
}

func TestResolverFindUnknown(t *testing.T) {
	r := NewResolver()

	a := ref("a", Output, 0)
	assert.Equal(t, a, r.Find(a))
	assert.Equal(t, 0, r.Len())
}

func TestResolverUnion(t *testing.T) {
	r := NewResolver()

	out := ref("funder", Output, 1)
	in1 := ref("spender", Input, 0)
	in2 := ref("other", Input, 3)
	lone := ref("lone", Output, 0)

	r.Union(in1, out)
	assert.True(t, r.Connected(in1, out))
	assert.False(t, r.Connected(in2, out))

	r.Union(in2, out)
	assert.True(t, r.Connected(in1, in2))
	assert.False(t, r.Connected(lone, out))

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 1, r.Sets())
}

func TestResolverUnionIsIdempotent(t *testing.T) {
	r := NewResolver()

	a := ref("a", Output, 0)
	b := ref("b", Input, 0)

	rep := r.Union(a, b)
	require.Equal(t, rep, r.Union(a, b))
	require.Equal(t, rep, r.Union(b, a))
	assert.Equal(t, 1, r.Sets())
}

func TestResolverLongChain(t *testing.T) {
	r := NewResolver()

	refs := make([]PortRef, 1000)
	for i := range refs {
		refs[i] = ref("chain", Input, uint32(i))
	}

	for i := 1; i < len(refs); i++ {
		r.Union(refs[i-1], refs[i])
	}

	rep := r.Find(refs[0])
	for _, p := range refs {
		assert.Equal(t, rep, r.Find(p))
	}

	assert.Equal(t, 1, r.Sets())
}

func TestFetchStateTransitions(t *testing.T) {
	tx := newTx("t", nil, 1)

	var s FetchState
	assert.Equal(t, Unfetched, s.Status())

	_, err := s.complete(tx)
	require.Error(t, err)

	_, err = s.fail(assert.AnError)
	require.Error(t, err)

	s, err = s.request()
	require.NoError(t, err)
	assert.Equal(t, Pending, s.Status())

	_, err = s.request()
	require.Error(t, err)

	_, err = s.complete(nil)
	require.Error(t, err)

	failed, err := s.fail(assert.AnError)
	require.NoError(t, err)
	assert.Equal(t, Failed, failed.Status())
	assert.Equal(t, assert.AnError, failed.Err())

	s, err = failed.request()
	require.NoError(t, err)

	s, err = s.complete(tx)
	require.NoError(t, err)
	assert.Equal(t, Loaded, s.Status())
	assert.Equal(t, tx, s.Detail())

	_, err = s.request()
	require.Error(t, err)

	assert.Equal(t, Unfetched, (FetchState{status: Pending}).reset().Status())
	assert.Equal(t, Loaded, s.reset().Status())
}
