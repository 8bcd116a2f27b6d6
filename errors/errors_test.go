// nolint:forbidigo,depguard // This test file needs the standard errors package for testing the custom errors package
package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewCustomError tests the creation of custom errors.
func TestNewCustomError(t *testing.T) {
	err := New(ERR_NOT_FOUND, "resource not found")
	require.NotNil(t, err)
	require.Equal(t, ERR_NOT_FOUND, err.code)
	require.Equal(t, "resource not found", err.message)

	secondErr := New(ERR_INVALID_ARGUMENT, "[Expand][%s] failed to resolve counterpart: ", "_teststring_", err)
	thirdErr := New(ERR_INVALID_PORT, "[Poll][%s] vout out of range: ", "_teststring_", secondErr)
	anotherErr := New(ERR_INVALID_PORT, "Another ERR, port is invalid")
	fourthErr := New(ERR_SERVICE_ERROR, "older error: ", thirdErr)
	fifthErr := New(ERR_FETCH_FAILED, "fetch failed", fourthErr)

	require.True(t, anotherErr.Is(thirdErr))
	require.True(t, fourthErr.Is(New(ERR_INVALID_PORT, "")))
	require.True(t, fourthErr.Is(ErrInvalidPort))

	require.True(t, fourthErr.Is(err))
	require.True(t, fifthErr.Is(thirdErr))
	require.True(t, fifthErr.Is(err))

	require.False(t, anotherErr.Is(fourthErr))
	require.False(t, fifthErr.Is(ErrCacheCorrupt))
}

func TestFmtErrorCustomError(t *testing.T) {
	err := New(ERR_NOT_FOUND, "resource not found")

	fmtError := fmt.Errorf("error: %w", err)
	require.True(t, errors.Is(fmtError, ErrNotFound))

	var target *Error
	require.True(t, errors.As(fmtError, &target))
	require.Equal(t, ERR_NOT_FOUND, target.Code())
}

func TestErrorString(t *testing.T) {
	err := New(ERR_TX_NOT_FOUND, "tx %s missing", "abc")
	assert.Equal(t, "Error: TX_NOT_FOUND (error code: 30), Message: tx abc missing", err.Error())

	wrapped := New(ERR_SERVICE_ERROR, "lookup failed", err)
	assert.Contains(t, wrapped.Error(), "Wrapped err: Error: TX_NOT_FOUND")

	var nilErr *Error
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Equal(t, ERR_UNKNOWN, nilErr.Code())
}

func TestInvalidCode(t *testing.T) {
	err := New(ERR(9999), "whatever")
	assert.Equal(t, "invalid error code", err.Message())
}

func TestWrapsStandardError(t *testing.T) {
	err := New(ERR_NETWORK_ERROR, "dial failed", context.DeadlineExceeded)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, context.DeadlineExceeded, err.Unwrap())
}

func TestFetchFailedError(t *testing.T) {
	txID := chainhash.HashH([]byte("tx"))

	err := NewFetchFailedError(txID, NewTxNotFoundError("gone"))
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, err, ErrTxNotFound)

	var data *FetchErrData
	require.True(t, AsData(err, &data))
	assert.Equal(t, txID, data.TxID)
	assert.False(t, data.Spend)

	spendErr := NewSpendFetchFailedError(txID, 3, NewNetworkTimeoutError("slow"))

	var spendData *FetchErrData
	require.True(t, AsData(spendErr, &spendData))
	assert.True(t, spendData.Spend)
	assert.Equal(t, uint32(3), spendData.Vout)
	assert.Contains(t, string(spendData.EncodeErrorData()), `"vout":3`)
}

func TestSetData(t *testing.T) {
	err := New(ERR_PROCESSING, "with data")
	err.SetData("node", 7)

	assert.Equal(t, 7, err.GetData("node"))
	assert.Nil(t, err.GetData("missing"))
}

func TestJoin(t *testing.T) {
	assert.Nil(t, Join(nil, nil))
	assert.Equal(t, "a, b", Join(errors.New("a"), nil, errors.New("b")).Error())
}
