package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
)

// Outpoint identifies a single transaction output.
type Outpoint struct {
	TxID chainhash.Hash
	Vout uint32
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID.String(), o.Vout)
}

// ParseOutpoint parses "txid:vout".
func ParseOutpoint(s string) (Outpoint, error) {
	txIDStr, voutStr, ok := strings.Cut(s, ":")
	if !ok {
		return Outpoint{}, errors.NewInvalidArgumentError("outpoint %q is not txid:vout", s)
	}

	txID, err := chainhash.NewHashFromStr(txIDStr)
	if err != nil {
		return Outpoint{}, errors.NewInvalidArgumentError("outpoint %q has invalid txid", s, err)
	}

	vout, err := strconv.ParseUint(voutStr, 10, 32)
	if err != nil {
		return Outpoint{}, errors.NewInvalidArgumentError("outpoint %q has invalid vout", s, err)
	}

	return Outpoint{TxID: *txID, Vout: uint32(vout)}, nil
}
