package txstore_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/errors"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/stores/txstore"
	"github.com/bsv-blockchain/txflow/stores/txstore/factory"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTx(seed string) *model.Transaction {
	spender := chainhash.HashH([]byte(seed + "-spender"))

	return &model.Transaction{
		TxID:      chainhash.HashH([]byte(seed)),
		Timestamp: 1_700_000_000,
		Inputs: []model.Input{
			{PrevTxID: chainhash.HashH([]byte(seed + "-parent")), Vout: 1, Value: 10_000, Address: "1abc", AddressType: "p2pkh"},
		},
		Outputs: []model.Output{
			{Value: 6_000, Address: "1def", AddressType: "p2pkh", SpendingTxID: &spender},
			{Value: 3_000, Address: "1ghi", AddressType: "p2pkh"},
		},
	}
}

func TestStores(t *testing.T) {
	dataFolder := t.TempDir()

	for _, storeURL := range []string{"memory://", "sqlitememory:///txstore", "sqlite:///txstore", "leveldb://txstore"} {
		t.Run(storeURL, func(t *testing.T) {
			u, err := url.Parse(storeURL)
			require.NoError(t, err)

			store, err := factory.New(ulogger.TestLogger{}, u, dataFolder)
			require.NoError(t, err)
			require.NotNil(t, store)

			defer func() {
				require.NoError(t, store.Close())
			}()

			testStore(t, store)
		})
	}
}

func testStore(t *testing.T, store txstore.Store) {
	ctx := context.Background()
	tx := testTx(t.Name())

	_, err := store.Get(ctx, &tx.TxID)
	require.ErrorIs(t, err, errors.ErrTxNotFound)

	require.NoError(t, store.Set(ctx, tx))

	got, err := store.Get(ctx, &tx.TxID)
	require.NoError(t, err)
	assert.Equal(t, tx, got)

	tx.Outputs[1].Value = 2_000
	require.NoError(t, store.Set(ctx, tx))

	got, err = store.Get(ctx, &tx.TxID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000), got.Outputs[1].Value)

	require.NoError(t, store.Delete(ctx, &tx.TxID))

	_, err = store.Get(ctx, &tx.TxID)
	require.ErrorIs(t, err, errors.ErrTxNotFound)
}

func TestFactoryUnknownScheme(t *testing.T) {
	u, err := url.Parse("redis://localhost")
	require.NoError(t, err)

	_, err = factory.New(ulogger.TestLogger{}, u, t.TempDir())
	require.ErrorIs(t, err, errors.ErrConfiguration)

	store, err := factory.New(ulogger.TestLogger{}, nil, "")
	require.NoError(t, err)
	assert.Nil(t, store)
}
