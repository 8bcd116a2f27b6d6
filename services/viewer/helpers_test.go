package viewer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/txflow/model"
	"github.com/bsv-blockchain/txflow/services/txfetch"
	"github.com/bsv-blockchain/txflow/settings"
	"github.com/bsv-blockchain/txflow/simulation"
	"github.com/bsv-blockchain/txflow/ulogger"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

func newTestSettings() *settings.Settings {
	tSettings := settings.NewSettings()
	tSettings.Fetch.Workers = 2
	tSettings.Fetch.Timeout = 5 * time.Second
	tSettings.Fetch.CacheSize = 100
	tSettings.Layout.Kernel = "serial"
	tSettings.Simulation.FrameInterval = time.Millisecond
	tSettings.Viewer.HTTPListenAddress = "127.0.0.1:0"
	tSettings.Viewer.APIPrefix = "/api/v1"
	tSettings.Viewer.WebsocketPing = time.Second

	return tSettings
}

func newTx(seed string, spends []model.Outpoint, values ...uint64) *model.Transaction {
	tx := &model.Transaction{TxID: chainhash.HashH([]byte(seed)), Timestamp: 1_600_000_000}

	for _, op := range spends {
		tx.Inputs = append(tx.Inputs, model.Input{PrevTxID: op.TxID, Vout: op.Vout, Value: 5_000_000, Address: "1" + seed})
	}

	for _, v := range values {
		tx.Outputs = append(tx.Outputs, model.Output{Value: v})
	}

	return tx
}

// testChain is P:0 -> A; P:1 -> B; A:0, B:0 -> R.
func testChain() (root *model.Transaction, txs []*model.Transaction) {
	p := newTx("P", nil, 5_000_000, 5_000_000)
	a := newTx("A", []model.Outpoint{p.Outpoint(0)}, 5_000_000)
	b := newTx("B", []model.Outpoint{p.Outpoint(1)}, 5_000_000)
	r := newTx("R", []model.Outpoint{a.Outpoint(0), b.Outpoint(0)}, 9_000_000)

	return r, []*model.Transaction{p, a, b, r}
}

type testServer struct {
	*Server
	http *httptest.Server
	root *model.Transaction
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	root, txs := testChain()
	tSettings := newTestSettings()

	session, err := simulation.NewSession(context.Background(), ulogger.TestLogger{}, tSettings, txfetch.NewStaticFetcher(txs...))
	require.NoError(t, err)

	s := New(ulogger.TestLogger{}, tSettings, session)
	require.NoError(t, s.Init(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = session.Run(ctx)
	}()

	go s.hub.run(ctx)

	srv := httptest.NewServer(s.Handler())

	t.Cleanup(func() {
		cancel()
		<-done
		<-s.hub.stopped
		srv.Close()
		session.Close()
	})

	return &testServer{Server: s, http: srv, root: root}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, ts.http.URL+path, r)
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, b
}

func (ts *testServer) graph(t *testing.T) graphResponse {
	t.Helper()

	status, body := ts.do(t, http.MethodGet, "/api/v1/graph", "")
	require.Equal(t, http.StatusOK, status)

	var g graphResponse
	require.NoError(t, jsoniter.Unmarshal(body, &g))

	return g
}

// settled waits until the published graph has n nodes, all loaded.
func (ts *testServer) settled(t *testing.T, n int) graphResponse {
	t.Helper()

	var g graphResponse

	require.Eventually(t, func() bool {
		g = ts.graph(t)
		if len(g.Nodes) != n {
			return false
		}

		for _, node := range g.Nodes {
			if node.Status != "loaded" {
				return false
			}
		}

		return true
	}, 5*time.Second, 5*time.Millisecond)

	return g
}
