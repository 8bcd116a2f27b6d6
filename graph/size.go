package graph

import (
	"math"

	"github.com/bsv-blockchain/txflow/model"
)

const (
	MinNodeWidth = 30.0
	MaxNodeWidth = 240.0

	portWidth      = 2.0
	labelCharWidth = 7.0
	labelPadding   = 10.0

	// placementGap is the horizontal distance between a new node and the node it was expanded from.
	placementGap = 60.0
	// placementJitter is the vertical spread used to keep new nodes from lining up exactly.
	placementJitter = 8.0
)

// nodeSize returns the width and height of n. Height follows the amount moved through the node,
// width grows with the number of ports and the length of the label.
func nodeSize(n *Node, scale model.SizeScale) (float64, float64) {
	tx := n.Detail()
	if tx == nil {
		return MinNodeWidth, model.MinNodeHeight
	}

	h := scale.Apply(max(tx.Amount(), tx.OutputAmount()))

	w := MinNodeWidth + portWidth*float64(max(len(n.Inputs), len(n.Outputs)))
	if n.Annotation.Label != "" {
		w = math.Max(w, labelCharWidth*float64(len([]rune(n.Annotation.Label)))+labelPadding)
	}

	return math.Min(w, MaxNodeWidth), h
}

// portOffsets returns the vertical offset of each port's centre from the node's centre. Ports
// share the node's height in proportion to their scaled values. On the output side the fee
// takes the last share, below the outputs.
func portOffsets(n *Node, side Side, scale model.SizeScale) []float64 {
	ports := n.Ports(side)
	if len(ports) == 0 {
		return nil
	}

	weights := make([]float64, len(ports), len(ports)+1)
	for i, p := range ports {
		weights[i] = scale.Apply(p.Value)
	}

	if tx := n.Detail(); side == Output && tx != nil && tx.Fees() > 0 {
		weights = append(weights, scale.Apply(tx.Fees()))
	}

	var total float64
	for _, w := range weights {
		total += w
	}

	offsets := make([]float64, len(ports))
	top := n.Rect.Top()

	for i := range ports {
		h := weights[i] / total * n.Rect.H
		offsets[i] = top + h/2 - n.Rect.Y
		top += h
	}

	return offsets
}

func portOffset(n *Node, side Side, index uint32, scale model.SizeScale) float64 {
	offsets := portOffsets(n, side, scale)
	if int(index) >= len(offsets) {
		return 0
	}

	return offsets[index]
}

func buildPorts(tx *model.Transaction) ([]Port, []Port) {
	inputs := make([]Port, len(tx.Inputs))

	for i, in := range tx.Inputs {
		inputs[i] = Port{
			Side:        Input,
			Index:       uint32(i),
			Value:       in.Value,
			Address:     in.Address,
			AddressType: in.AddressType,
		}

		if !tx.IsCoinbase() {
			prev := in.PrevTxID
			inputs[i].Counterpart = &prev
		}
	}

	outputs := make([]Port, len(tx.Outputs))

	for i, out := range tx.Outputs {
		outputs[i] = Port{
			Side:         Output,
			Index:        uint32(i),
			Value:        out.Value,
			Address:      out.Address,
			AddressType:  out.AddressType,
			SpendUnknown: out.SpendUnknown,
		}

		if out.SpendingTxID != nil {
			spender := *out.SpendingTxID
			outputs[i].Counterpart = &spender
		}
	}

	return inputs, outputs
}
