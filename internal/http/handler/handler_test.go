package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/mtf-macd-bot/internal/datastore"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

type staticLedger []tracker.Record

func (l staticLedger) Orders() []tracker.Record { return l }

type fakeStore struct {
	summary *datastore.PnLSummary
	err     error
}

func (s fakeStore) FetchLatestPnLSummary(context.Context) (*datastore.PnLSummary, error) {
	return s.summary, s.err
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, NewRouter(nil, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestGetLatestPnl(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := staticLedger{
		{Timestamp: ts, Side: "BUY", Symbol: "ETHUSDT", Price: 100, Size: 1, OrderID: "1", Status: "FILLED"},
		{Timestamp: ts.Add(time.Hour), Side: "SELL", Symbol: "ETHUSDT", Price: 110, Size: 1, OrderID: "2", Status: "FILLED"},
	}
	r := NewRouter(NewPnlHandler("live", ledger, nil), nil)

	rec := serve(t, r, "/pnl/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "live", body["label"])
	assert.Equal(t, float64(1), body["closed_trades"])
	assert.Equal(t, "10", body["total_pnl"])
}

func TestGetLatestSummary(t *testing.T) {
	noStore := NewRouter(NewPnlHandler("live", staticLedger{}, nil), nil)
	assert.Equal(t, http.StatusNotFound, serve(t, noStore, "/pnl/latest_summary").Code)

	empty := NewRouter(NewPnlHandler("live", staticLedger{}, fakeStore{}), nil)
	assert.Equal(t, http.StatusNotFound, serve(t, empty, "/pnl/latest_summary").Code)

	failing := NewRouter(NewPnlHandler("live", staticLedger{}, fakeStore{err: assert.AnError}), nil)
	assert.Equal(t, http.StatusInternalServerError, serve(t, failing, "/pnl/latest_summary").Code)

	ok := NewRouter(NewPnlHandler("live", staticLedger{}, fakeStore{summary: &datastore.PnLSummary{SessionID: "s1", TotalPnL: decimal.NewFromInt(3)}}), nil)
	rec := serve(t, ok, "/pnl/latest_summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_id":"s1"`)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("metric 1\n"))
	})
	rec := serve(t, NewRouter(nil, metrics), "/metrics")
	assert.Equal(t, "metric 1\n", rec.Body.String())
}
