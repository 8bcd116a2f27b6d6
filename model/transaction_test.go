package model

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genesisAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	genesisScript  = "76a91462e907b15cbf27d5425399ebf6f0fb50ebb88f1888ac"
	txJSON         = `{
		"timestamp": 1600000000,
		"txid": "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b",
		"inputs": [
			{"txid": "0e3e2357e806b6cdb1f70b54c3a3a17b6714ee1f0e68bebb44a74b1efd512098", "vout": 0, "value": 6000, "address": "addr1", "address_type": "p2pkh"},
			{"txid": "9b0fc92260312ce44e74ef369f5c66bbb85848f2eddd5a7a1cde251e54ccfdd5", "vout": 2, "value": 4000, "address": "addr2", "address_type": "p2pkh"}
		],
		"outputs": [
			{"spending_txid": "999e1c837c76a1b7fbb7e57baf87b309960f5ffefbf2a9b95dd890602272f644", "value": 9000, "address": "addr3", "address_type": "p2pkh"},
			{"spending_txid": null, "value": 500, "address": "addr4", "address_type": "p2pkh"}
		]
	}`
)

func TestNewTransactionFromJSON(t *testing.T) {
	tx, err := NewTransactionFromJSON([]byte(txJSON))
	require.NoError(t, err)

	assert.Equal(t, "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b", tx.TxID.String())
	require.Len(t, tx.Inputs, 2)
	require.Len(t, tx.Outputs, 2)

	assert.Equal(t, uint32(2), tx.Inputs[1].Vout)
	assert.Equal(t, "9b0fc92260312ce44e74ef369f5c66bbb85848f2eddd5a7a1cde251e54ccfdd5", tx.Inputs[1].PrevTxID.String())

	require.NotNil(t, tx.Outputs[0].SpendingTxID)
	assert.Equal(t, "999e1c837c76a1b7fbb7e57baf87b309960f5ffefbf2a9b95dd890602272f644", tx.Outputs[0].SpendingTxID.String())
	assert.Nil(t, tx.Outputs[1].SpendingTxID)
	assert.False(t, tx.Outputs[1].SpendUnknown)

	assert.Equal(t, uint64(10_000), tx.Amount())
	assert.Equal(t, uint64(500), tx.Fees())
	assert.Equal(t, int64(1600000000), tx.Time().Unix())
}

func TestNewTransactionFromJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"bad txid", `{"txid": "xyz", "inputs": [], "outputs": []}`},
		{"bad input txid", `{"txid": "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b", "inputs": [{"txid": "zz"}], "outputs": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransactionFromJSON([]byte(tt.json))
			require.ErrorIs(t, err, errors.ErrProcessing)
		})
	}
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	tx, err := NewTransactionFromJSON([]byte(txJSON))
	require.NoError(t, err)

	b, err := json.Marshal(tx)
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, tx, &decoded)
}

func TestClone(t *testing.T) {
	tx, err := NewTransactionFromJSON([]byte(txJSON))
	require.NoError(t, err)

	c := tx.Clone()
	c.Inputs[0].Value = 1
	*c.Outputs[0].SpendingTxID = chainhash.Hash{}

	assert.Equal(t, uint64(6000), tx.Inputs[0].Value)
	assert.NotEqual(t, chainhash.Hash{}, *tx.Outputs[0].SpendingTxID)
}

func TestCoinbaseFees(t *testing.T) {
	tx := &Transaction{
		Inputs:  []Input{{Vout: 0xffffffff}},
		Outputs: []Output{{Value: 50_00_000_000}},
	}

	assert.True(t, tx.IsCoinbase())
	assert.Equal(t, uint64(0), tx.Fees())
}

func TestNewTransactionFromBytes(t *testing.T) {
	btTx := bt.NewTx()
	require.NoError(t, btTx.From("0e3e2357e806b6cdb1f70b54c3a3a17b6714ee1f0e68bebb44a74b1efd512098", 1, genesisScript, 5_000))
	require.NoError(t, btTx.PayToAddress(genesisAddress, 4_000))

	tx, err := NewTransactionFromBytes(btTx.ExtendedBytes(), true)
	require.NoError(t, err)

	assert.Equal(t, *btTx.TxIDChainHash(), tx.TxID)
	require.Len(t, tx.Inputs, 1)
	assert.Equal(t, uint32(1), tx.Inputs[0].Vout)
	assert.Equal(t, uint64(5_000), tx.Inputs[0].Value)
	assert.Equal(t, genesisAddress, tx.Inputs[0].Address)

	require.Len(t, tx.Outputs, 1)
	assert.Equal(t, uint64(4_000), tx.Outputs[0].Value)
	assert.Equal(t, genesisAddress, tx.Outputs[0].Address)
	assert.Equal(t, "p2pkh", tx.Outputs[0].AddressType)
	assert.True(t, tx.Outputs[0].SpendUnknown)
	assert.Equal(t, uint64(1_000), tx.Fees())

	_, err = NewTransactionFromBytes([]byte{0x01}, true)
	require.Error(t, err)
}

func TestParseOutpoint(t *testing.T) {
	op, err := ParseOutpoint("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b:3")
	require.NoError(t, err)
	assert.Equal(t, uint32(3), op.Vout)
	assert.Equal(t, "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b:3", op.String())

	for _, bad := range []string{"nocolon", "zz:1", "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b:x"} {
		_, err := ParseOutpoint(bad)
		require.ErrorIs(t, err, errors.ErrInvalidArgument, bad)
	}
}
