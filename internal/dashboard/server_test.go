package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/models"
	"github.com/msevon/NATGAS-trader/internal/perf"
	"github.com/msevon/NATGAS-trader/internal/storage"
)

// mockRecorder serves canned data for handler tests.
type mockRecorder struct {
	runs   []storage.RunRecord
	trades map[string][]models.Trade
	equity map[string][]models.PortfolioValue
}

var _ storage.Recorder = (*mockRecorder)(nil)

func (m *mockRecorder) RecordRun(engine.Params, *engine.Result, *perf.Summary) (string, error) {
	return "", nil
}

func (m *mockRecorder) Runs(int) ([]storage.RunRecord, error) { return m.runs, nil }

func (m *mockRecorder) Run(id string) (*storage.RunRecord, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			return &m.runs[i], nil
		}
	}
	return nil, fmt.Errorf("run %s not found", id)
}

func (m *mockRecorder) Trades(id string) ([]models.Trade, error) { return m.trades[id], nil }
func (m *mockRecorder) Equity(id string) ([]models.PortfolioValue, error) {
	return m.equity[id], nil
}
func (m *mockRecorder) Close() error { return nil }

func testServer(authToken string) *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := &mockRecorder{
		runs: []storage.RunRecord{{
			ID: "run-1", CreatedAt: now, Symbol: "BOIL", InverseSymbol: "KOLD",
			InitialCapital: 100000, FinalCapital: 104200, TotalReturnPct: 4.2,
			TotalTrades: 6,
		}},
		trades: map[string][]models.Trade{
			"run-1": {models.NewTrade(now, "BOIL", models.SideBuy, 9, 100.1, 0.5, 1.2, models.ReasonSignal)},
		},
		equity: map[string][]models.PortfolioValue{
			"run-1": {{Date: now, Value: 100000}},
		},
	}
	return NewServer(Config{Port: 0, AuthToken: authToken}, rec, logger)
}

func get(t *testing.T, srv *Server, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	w := get(t, testServer(""), "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestListRuns(t *testing.T) {
	w := get(t, testServer(""), "/api/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var runs []storage.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.InDelta(t, 4.2, runs[0].TotalReturnPct, 1e-9)
}

func TestGetRunAndChildren(t *testing.T) {
	srv := testServer("")

	w := get(t, srv, "/api/runs/run-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = get(t, srv, "/api/runs/run-1/trades", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var trades []models.Trade
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trades))
	require.Len(t, trades, 1)
	assert.Equal(t, "BOIL", trades[0].Symbol)

	w = get(t, srv, "/api/runs/run-1/equity", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetRunNotFound(t *testing.T) {
	srv := testServer("")
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/runs/nope", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/runs/nope/trades", nil).Code)
}

func TestAuthToken(t *testing.T) {
	srv := testServer("sekrit")

	// Health and metrics stay open.
	assert.Equal(t, http.StatusOK, get(t, srv, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/metrics", nil).Code)

	// API requires the token, via header or query parameter.
	assert.Equal(t, http.StatusUnauthorized, get(t, srv, "/api/runs", nil).Code)
	assert.Equal(t, http.StatusOK,
		get(t, srv, "/api/runs", map[string]string{"X-Auth-Token": "sekrit"}).Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/runs?token=sekrit", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		get(t, srv, "/api/runs", map[string]string{"X-Auth-Token": "wrong"}).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	w := get(t, testServer(""), "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "natgas_runs_total")
}
