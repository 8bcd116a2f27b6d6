package export

import (
	"context"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/graph"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/services/txfetch"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/ulogger"
	"github.com/stretchr/testify/require"
)

const (
	genesisTime = 1_231_469_665
	firstTxTime = 1_231_731_025
)

// coinbase and firstTx mirror the first coin transfer: 50 BTC split 10 / 40 less a fee.
func fixtureTxs() (cb, first *model.Transaction) {
	cb = &model.Transaction{
		TxID:        chainhash.HashH([]byte("coinbase 9")),
		Timestamp:   genesisTime,
		BlockHeight: 9,
		Inputs:      []model.Input{{Vout: 0xffffffff}},
		Outputs:     []model.Output{{Value: 5_000_000_000, Address: "12cbQLTFMXRnSzktFkuoG3eHoMeFtpTu3S"}},
	}

	first = &model.Transaction{
		TxID:        chainhash.HashH([]byte("first transfer")),
		Timestamp:   firstTxTime,
		BlockHeight: 170,
		Inputs: []model.Input{{
			PrevTxID: cb.TxID,
			Value:    5_000_000_000,
			Address:  "12cbQLTFMXRnSzktFkuoG3eHoMeFtpTu3S",
		}},
		Outputs: []model.Output{
			{Value: 1_000_000_000, Address: "1Q2TWHE3GMdB6BZKafqwxXtWAWgFt5Jvm3"},
			{Value: 3_999_990_000, Address: "12cbQLTFMXRnSzktFkuoG3eHoMeFtpTu3S"},
		},
	}

	return cb, first
}

type testGraph struct {
	*graph.Graph
	pipeline *txfetch.Pipeline
}

func newTestGraph(t *testing.T, txs ...*model.Transaction) *testGraph {
	t.Helper()

	tSettings := settings.NewSettings()
	tSettings.Fetch.Workers = 2
	tSettings.Fetch.Timeout = 5 * time.Second

	p := txfetch.NewPipeline(context.Background(), ulogger.TestLogger{}, tSettings, txfetch.NewStaticFetcher(txs...), nil)
	t.Cleanup(p.Close)

	return &testGraph{
		Graph:    graph.New(ulogger.TestLogger{}, p, model.DefaultSizeScale()),
		pipeline: p,
	}
}

// settle polls until no fetch is outstanding.
func (g *testGraph) settle(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	for g.pipeline.PendingCount() > 0 {
		require.NoError(t, g.pipeline.Await(ctx))
		g.Poll()
	}

	require.NoError(t, g.Validate())
}
