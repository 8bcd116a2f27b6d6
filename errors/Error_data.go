package errors

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	jsoniter "github.com/json-iterator/go"
)

// ErrDataI is an interface for error data that can be set, retrieved, and encoded.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is a generic error data structure that implements the ErrDataI interface.
type ErrData map[string]interface{}

func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	(*e)[key] = value
}

func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

func (e *ErrData) EncodeErrorData() []byte {
	data, err := jsoniter.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// FetchErrData identifies the record a failed fetch was for.
type FetchErrData struct {
	TxID  chainhash.Hash
	Vout  uint32
	Spend bool
}

func (e *FetchErrData) Error() string {
	if e.Spend {
		return fmt.Sprintf(" fetch of spend %s:%d failed", e.TxID.String(), e.Vout)
	}

	return fmt.Sprintf(" fetch of tx %s failed", e.TxID.String())
}

func (e *FetchErrData) EncodeErrorData() []byte {
	data, err := jsoniter.Marshal(map[string]interface{}{
		"txid":  e.TxID.String(),
		"vout":  e.Vout,
		"spend": e.Spend,
	})
	if err != nil {
		return []byte{}
	}

	return data
}

func (e *FetchErrData) GetData(key string) interface{} {
	switch key {
	case "txid":
		return e.TxID.String()
	case "vout":
		return e.Vout
	case "spend":
		return e.Spend
	default:
		return nil
	}
}

func (e *FetchErrData) SetData(string, interface{}) {}

// NewFetchFailedError returns a FETCH_FAILED error for the given transaction, wrapping cause.
func NewFetchFailedError(txID chainhash.Hash, cause error) error {
	e := New(ERR_FETCH_FAILED, "fetch failed for %s", txID.String())
	e.wrappedErr = cause
	e.data = &FetchErrData{TxID: txID}

	return e
}

// NewSpendFetchFailedError returns a FETCH_FAILED error for a spend lookup of txID:vout.
func NewSpendFetchFailedError(txID chainhash.Hash, vout uint32, cause error) error {
	e := New(ERR_FETCH_FAILED, "spend lookup failed for %s:%d", txID.String(), vout)
	e.wrappedErr = cause
	e.data = &FetchErrData{TxID: txID, Vout: vout, Spend: true}

	return e
}
