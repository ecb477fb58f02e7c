package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"activityrewards/core/events"
	"activityrewards/core/ledger"
	"activityrewards/native/rewards"
	"activityrewards/observability/metrics"
	"activityrewards/storage"
)

const testJWTSecret = "rpc-test-secret"

type testResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func newTestServer(t testing.TB, cfg ServerConfig) (*Server, *Hub) {
	t.Helper()
	engine, err := rewards.NewEngine(rewards.DefaultCatalog(), rewards.DefaultParams())
	require.NoError(t, err)
	hub := NewHub(8)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor, err := ledger.NewProcessor(engine, ledger.NewStore(storage.NewMemDB()),
		ledger.WithEmitter(events.Fanout{hub}),
		ledger.WithMetrics(metrics.NewRewardMetrics(prometheus.NewRegistry())),
		ledger.WithLogger(logger),
	)
	require.NoError(t, err)
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	srv, err := NewServer(processor, hub, cfg)
	require.NoError(t, err)
	return srv, hub
}

func authConfig() ServerConfig {
	return ServerConfig{Auth: AuthConfig{Enabled: true, HMACSecret: testJWTSecret, Issuer: "rewards-tests"}}
}

func callRPC(t testing.TB, handler http.Handler, token, method string, params ...interface{}) (int, testResponse) {
	t.Helper()
	rawParams := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		encoded, err := json.Marshal(p)
		require.NoError(t, err)
		rawParams = append(rawParams, encoded)
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: rawParams, ID: 1})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	req.RemoteAddr = "192.0.2.10:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	var resp testResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func decodeResult(t testing.TB, resp testResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.Error)
	require.NoError(t, json.Unmarshal(resp.Result, out))
}
