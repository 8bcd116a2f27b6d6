package viewer

import (
	"fmt"

	"github.com/bsv-blockchain/txflow/graph"
	"github.com/bsv-blockchain/txflow/simulation"
)

type portResponse struct {
	Index        uint32 `json:"index"`
	Value        uint64 `json:"value"`
	Address      string `json:"address,omitempty"`
	AddressType  string `json:"addressType,omitempty"`
	Counterpart  string `json:"counterpart,omitempty"`
	SpendUnknown bool   `json:"spendUnknown,omitempty"`
	Label        string `json:"label,omitempty"`
	Color        string `json:"color,omitempty"`
	Error        string `json:"error,omitempty"`
}

type expandedResponse struct {
	Inputs  bool `json:"inputs"`
	Outputs bool `json:"outputs"`
}

type nodeResponse struct {
	ID          uint32           `json:"id"`
	TxID        string           `json:"txid"`
	SpendOf     string           `json:"spendOf,omitempty"`
	Status      string           `json:"status"`
	Error       string           `json:"error,omitempty"`
	Root        bool             `json:"root,omitempty"`
	Pinned      bool             `json:"pinned,omitempty"`
	Expanded    expandedResponse `json:"expanded"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	W           float64          `json:"w"`
	H           float64          `json:"h"`
	Label       string           `json:"label,omitempty"`
	Color       string           `json:"color,omitempty"`
	Amount      uint64           `json:"amount,omitempty"`
	Fee         uint64           `json:"fee,omitempty"`
	BlockHeight uint32           `json:"blockHeight,omitempty"`
	Timestamp   uint32           `json:"timestamp,omitempty"`
	Inputs      []portResponse   `json:"inputs,omitempty"`
	Outputs     []portResponse   `json:"outputs,omitempty"`
}

type edgeResponse struct {
	From     uint32 `json:"from"`
	FromPort uint32 `json:"fromPort"`
	To       uint32 `json:"to"`
	ToPort   uint32 `json:"toPort"`
	Value    uint64 `json:"value"`
}

type graphResponse struct {
	Generation uint64         `json:"generation"`
	Frame      uint64         `json:"frame"`
	State      string         `json:"state"`
	Root       uint32         `json:"root"`
	Nodes      []nodeResponse `json:"nodes"`
	Edges      []edgeResponse `json:"edges"`
}

type idResponse struct {
	ID uint32 `json:"id"`
}

func newPortResponses(ports []graph.Port) []portResponse {
	out := make([]portResponse, 0, len(ports))

	for _, p := range ports {
		r := portResponse{
			Index:        p.Index,
			Value:        p.Value,
			Address:      p.Address,
			AddressType:  p.AddressType,
			SpendUnknown: p.SpendUnknown,
			Label:        p.Annotation.Label,
			Color:        p.Annotation.Color,
		}

		if p.Counterpart != nil {
			r.Counterpart = p.Counterpart.String()
		}

		if p.Err != nil {
			r.Error = p.Err.Error()
		}

		out = append(out, r)
	}

	return out
}

func newNodeResponse(n graph.NodeView) nodeResponse {
	r := nodeResponse{
		ID:       uint32(n.ID),
		TxID:     n.TxID.String(),
		Status:   n.Status.String(),
		Root:     n.Root,
		Pinned:   n.Pinned,
		Expanded: expandedResponse{Inputs: n.Expanded[graph.Input], Outputs: n.Expanded[graph.Output]},
		X:        n.Rect.X,
		Y:        n.Rect.Y,
		W:        n.Rect.W,
		H:        n.Rect.H,
		Label:    n.Annotation.Label,
		Color:    n.Annotation.Color,
		Inputs:   newPortResponses(n.Inputs),
		Outputs:  newPortResponses(n.Outputs),
	}

	if n.SpendOf != nil {
		r.SpendOf = fmt.Sprintf("%s:%d", n.SpendOf.TxID, n.SpendOf.Vout)
	}

	if n.Err != nil {
		r.Error = n.Err.Error()
	}

	if n.Tx != nil {
		r.Amount = n.Tx.OutputAmount()
		r.Fee = n.Tx.Fees()
		r.BlockHeight = n.Tx.BlockHeight
		r.Timestamp = n.Tx.Timestamp
	}

	return r
}

func newGraphResponse(v *simulation.View) graphResponse {
	snap := v.Snapshot

	r := graphResponse{
		Generation: snap.Generation,
		Frame:      v.Frame,
		State:      v.State,
		Root:       uint32(snap.Root),
		Nodes:      make([]nodeResponse, 0, len(snap.Nodes)),
		Edges:      make([]edgeResponse, 0, len(snap.Edges)),
	}

	for _, n := range snap.Nodes {
		r.Nodes = append(r.Nodes, newNodeResponse(n))
	}

	for _, e := range snap.Edges {
		r.Edges = append(r.Edges, edgeResponse{
			From:     uint32(e.From),
			FromPort: e.FromPort,
			To:       uint32(e.To),
			ToPort:   e.ToPort,
			Value:    e.Value,
		})
	}

	return r
}
