package graph

import (
	"math"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/layout"
	"github.com/bsv-blockchain/txflow/model"
)

type Side uint8

const (
	Input Side = iota
	Output
)

func (s Side) String() string {
	if s == Input {
		return "inputs"
	}

	return "outputs"
}

func (s Side) Opposite() Side {
	return 1 - s
}

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "input", "inputs", "in", "left":
		return Input, nil
	case "output", "outputs", "out", "right":
		return Output, nil
	default:
		return Input, errors.NewInvalidArgumentError("unknown side %q", s)
	}
}

// NodeID is the index of a node in the graph's arena. Ids of removed nodes are reused.
type NodeID uint32

const NoNode NodeID = math.MaxUint32

type Annotation struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

func (a Annotation) IsZero() bool {
	return a.Label == "" && a.Color == ""
}

func (a Annotation) validate() error {
	if a.Color == "" {
		return nil
	}

	if len(a.Color) != 7 || a.Color[0] != '#' {
		return errors.NewInvalidArgumentError("color %q is not of the form #rrggbb", a.Color)
	}

	for _, c := range a.Color[1:] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return errors.NewInvalidArgumentError("color %q is not of the form #rrggbb", a.Color)
		}
	}

	return nil
}

// Port is an input or output slot of a loaded node.
type Port struct {
	Side        Side
	Index       uint32
	Value       uint64
	Address     string
	AddressType string
	// Counterpart is the funding txid of an input, or the spending txid of an output when known.
	Counterpart *chainhash.Hash
	// SpendUnknown marks an output whose spend has to be looked up before it can be expanded.
	SpendUnknown bool
	Annotation   Annotation
	// Err is an INVALID_PORT error when the counterpart data does not line up.
	Err error
}

func (p Port) Ref(txID chainhash.Hash) PortRef {
	return PortRef{TxID: txID, Side: p.Side, Index: p.Index}
}

// Edge is a value flow from output FromPort of node From to input ToPort of node To.
type Edge struct {
	From     NodeID
	FromPort uint32
	To       NodeID
	ToPort   uint32
	Value    uint64
}

type Node struct {
	ID   NodeID
	TxID chainhash.Hash
	// SpendOf is set while the node stands for the not yet known spender of an outpoint.
	SpendOf *model.Outpoint
	Inputs  []Port
	Outputs []Port
	// Expanded is indexed by Side.
	Expanded   [2]bool
	Pinned     bool
	Rect       layout.Rect
	Velocity   layout.Vec2
	Annotation Annotation
	Fetch      FetchState
	// Parent is the node whose expansion created this one. ParentSide and ParentPort locate the
	// port of Parent that led here.
	Parent     NodeID
	ParentSide Side
	ParentPort uint32

	alive bool
}

func (n *Node) IsPlaceholder() bool {
	return n.SpendOf != nil
}

func (n *Node) Loaded() bool {
	return n.Fetch.Status() == Loaded
}

// Detail is the node's own copy of its transaction, nil until loaded.
func (n *Node) Detail() *model.Transaction {
	return n.Fetch.Detail()
}

func (n *Node) Ports(side Side) []Port {
	if side == Input {
		return n.Inputs
	}

	return n.Outputs
}

func (n *Node) port(side Side, index uint32) (*Port, error) {
	ports := n.Ports(side)
	if !n.Loaded() || int(index) >= len(ports) {
		return nil, errors.NewInvalidPortError("node %d has no %s port %d", n.ID, side, index)
	}

	return &ports[index], nil
}
