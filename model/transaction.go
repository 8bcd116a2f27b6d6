package model

import (
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transaction is the detail record returned by the lookup service for a single txid.
type Transaction struct {
	TxID        chainhash.Hash
	Timestamp   uint32
	BlockHeight uint32
	Inputs      []Input
	Outputs     []Output
}

// Input references the output it spends by PrevTxID and Vout. Value and address are copied from that output.
type Input struct {
	PrevTxID    chainhash.Hash
	Vout        uint32
	Value       uint64
	Address     string
	AddressType string
}

// Output is a coin created by the transaction. SpendingTxID is nil when the output is unspent,
// or when SpendUnknown is set because the source could not tell.
type Output struct {
	Value        uint64
	Address      string
	AddressType  string
	SpendingTxID *chainhash.Hash
	SpendUnknown bool
}

// Amount is the sum of the values of all inputs.
func (tx *Transaction) Amount() uint64 {
	var total uint64
	for _, in := range tx.Inputs {
		total += in.Value
	}

	return total
}

// OutputAmount is the sum of the values of all outputs.
func (tx *Transaction) OutputAmount() uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		total += out.Value
	}

	return total
}

// Fees returns the difference between inputs and outputs. Coinbase transactions, and records
// whose outputs exceed their inputs, report zero.
func (tx *Transaction) Fees() uint64 {
	if tx.IsCoinbase() {
		return 0
	}

	in, out := tx.Amount(), tx.OutputAmount()
	if out > in {
		return 0
	}

	return in - out
}

// IsCoinbase reports whether tx has the single null-prevout input of a coinbase.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].PrevTxID.IsEqual(&chainhash.Hash{}) && tx.Inputs[0].Vout == 0xffffffff
}

// Time returns the block timestamp, the zero time if it is not known.
func (tx *Transaction) Time() time.Time {
	if tx.Timestamp == 0 {
		return time.Time{}
	}

	return time.Unix(int64(tx.Timestamp), 0).UTC()
}

// Clone returns a deep copy, so nodes never share detail with the cache.
func (tx *Transaction) Clone() *Transaction {
	if tx == nil {
		return nil
	}

	c := *tx
	c.Inputs = append([]Input(nil), tx.Inputs...)
	c.Outputs = make([]Output, len(tx.Outputs))

	for i, out := range tx.Outputs {
		c.Outputs[i] = out
		if out.SpendingTxID != nil {
			h := *out.SpendingTxID
			c.Outputs[i].SpendingTxID = &h
		}
	}

	return &c
}

// Outpoint returns the outpoint of the output at index vout.
func (tx *Transaction) Outpoint(vout uint32) Outpoint {
	return Outpoint{TxID: tx.TxID, Vout: vout}
}

type jsonInput struct {
	TxID        string `json:"txid"`
	Vout        uint32 `json:"vout"`
	Value       uint64 `json:"value"`
	Address     string `json:"address"`
	AddressType string `json:"address_type"`
}

type jsonOutput struct {
	SpendingTxID *string `json:"spending_txid"`
	SpendUnknown bool    `json:"spend_unknown,omitempty"`
	Value        uint64  `json:"value"`
	Address      string  `json:"address"`
	AddressType  string  `json:"address_type"`
}

type jsonTransaction struct {
	Timestamp   uint32       `json:"timestamp"`
	BlockHeight uint32       `json:"block_height,omitempty"`
	TxID        string       `json:"txid"`
	Inputs      []jsonInput  `json:"inputs"`
	Outputs     []jsonOutput `json:"outputs"`
}

// NewTransactionFromJSON decodes the lookup service's JSON detail record.
func NewTransactionFromJSON(b []byte) (*Transaction, error) {
	var jt jsonTransaction
	if err := json.Unmarshal(b, &jt); err != nil {
		return nil, errors.NewProcessingError("failed to decode transaction json", err)
	}

	txID, err := chainhash.NewHashFromStr(jt.TxID)
	if err != nil {
		return nil, errors.NewProcessingError("invalid txid %q", jt.TxID, err)
	}

	tx := &Transaction{
		TxID:        *txID,
		Timestamp:   jt.Timestamp,
		BlockHeight: jt.BlockHeight,
		Inputs:      make([]Input, 0, len(jt.Inputs)),
		Outputs:     make([]Output, 0, len(jt.Outputs)),
	}

	for i, in := range jt.Inputs {
		prev, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil {
			return nil, errors.NewProcessingError("invalid txid in input %d", i, err)
		}

		tx.Inputs = append(tx.Inputs, Input{
			PrevTxID:    *prev,
			Vout:        in.Vout,
			Value:       in.Value,
			Address:     in.Address,
			AddressType: in.AddressType,
		})
	}

	for i, out := range jt.Outputs {
		o := Output{
			Value:        out.Value,
			Address:      out.Address,
			AddressType:  out.AddressType,
			SpendUnknown: out.SpendUnknown,
		}

		if out.SpendingTxID != nil && *out.SpendingTxID != "" {
			spending, err := chainhash.NewHashFromStr(*out.SpendingTxID)
			if err != nil {
				return nil, errors.NewProcessingError("invalid spending txid in output %d", i, err)
			}

			o.SpendingTxID = spending
		}

		tx.Outputs = append(tx.Outputs, o)
	}

	return tx, nil
}

// MarshalJSON encodes tx in the same format NewTransactionFromJSON reads.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	jt := jsonTransaction{
		Timestamp:   tx.Timestamp,
		BlockHeight: tx.BlockHeight,
		TxID:        tx.TxID.String(),
		Inputs:      make([]jsonInput, len(tx.Inputs)),
		Outputs:     make([]jsonOutput, len(tx.Outputs)),
	}

	for i, in := range tx.Inputs {
		jt.Inputs[i] = jsonInput{
			TxID:        in.PrevTxID.String(),
			Vout:        in.Vout,
			Value:       in.Value,
			Address:     in.Address,
			AddressType: in.AddressType,
		}
	}

	for i, out := range tx.Outputs {
		jo := jsonOutput{
			Value:        out.Value,
			Address:      out.Address,
			AddressType:  out.AddressType,
			SpendUnknown: out.SpendUnknown,
		}

		if out.SpendingTxID != nil {
			s := out.SpendingTxID.String()
			jo.SpendingTxID = &s
		}

		jt.Outputs[i] = jo
	}

	return json.Marshal(jt)
}

// UnmarshalJSON implements json.Unmarshaler.
func (tx *Transaction) UnmarshalJSON(b []byte) error {
	decoded, err := NewTransactionFromJSON(b)
	if err != nil {
		return err
	}

	*tx = *decoded

	return nil
}
