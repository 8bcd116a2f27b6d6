package model

import (
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/txflow/errors"
)

// NewTransactionFromBytes parses a raw transaction. Input values and addresses are only
// available when the transaction is in extended format. Raw transactions carry no spend
// information, so every output is marked SpendUnknown.
func NewTransactionFromBytes(b []byte, mainnet bool) (*Transaction, error) {
	btTx, err := bt.NewTxFromBytes(b)
	if err != nil {
		return nil, errors.NewProcessingError("failed to parse raw transaction", err)
	}

	return NewTransactionFromBtTx(btTx, mainnet), nil
}

// NewTransactionFromBtTx converts a go-bt transaction into a detail record.
func NewTransactionFromBtTx(btTx *bt.Tx, mainnet bool) *Transaction {
	tx := &Transaction{
		TxID:    *btTx.TxIDChainHash(),
		Inputs:  make([]Input, 0, len(btTx.Inputs)),
		Outputs: make([]Output, 0, len(btTx.Outputs)),
	}

	for _, in := range btTx.Inputs {
		input := Input{
			PrevTxID: *in.PreviousTxIDChainHash(),
			Vout:     in.PreviousTxOutIndex,
			Value:    in.PreviousTxSatoshis,
		}

		if in.PreviousTxScript != nil {
			input.Address, input.AddressType = scriptAddress(in.PreviousTxScript, mainnet)
		}

		tx.Inputs = append(tx.Inputs, input)
	}

	for _, out := range btTx.Outputs {
		output := Output{
			Value:        out.Satoshis,
			SpendUnknown: true,
		}

		if out.LockingScript != nil {
			output.Address, output.AddressType = scriptAddress(out.LockingScript, mainnet)
		}

		tx.Outputs = append(tx.Outputs, output)
	}

	return tx
}

func scriptAddress(s *bscript.Script, mainnet bool) (string, string) {
	switch {
	case s.IsP2PKH():
		pkh, err := s.PublicKeyHash()
		if err != nil {
			return "", "p2pkh"
		}

		addr, err := bscript.NewAddressFromPublicKeyHash(pkh, mainnet)
		if err != nil {
			return "", "p2pkh"
		}

		return addr.AddressString, "p2pkh"
	case s.IsP2PK():
		return "", "p2pk"
	case s.IsData():
		return "", "nulldata"
	default:
		return "", "nonstandard"
	}
}
