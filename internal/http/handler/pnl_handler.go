package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/your-org/mtf-macd-bot/internal/datastore"
	"github.com/your-org/mtf-macd-bot/internal/pnl"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// LedgerSource exposes the in-process ledger.
type LedgerSource interface {
	Orders() []tracker.Record
}

// SummaryStore returns the last persisted PnL summary.
type SummaryStore interface {
	FetchLatestPnLSummary(ctx context.Context) (*datastore.PnLSummary, error)
}

// PnlHandler はPnL関連のHTTPリクエストを処理します。
type PnlHandler struct {
	label  string
	ledger LedgerSource
	store  SummaryStore
}

// NewPnlHandler serves metrics of ledger. store may be nil when no database
// is configured.
func NewPnlHandler(label string, ledger LedgerSource, store SummaryStore) *PnlHandler {
	return &PnlHandler{label: label, ledger: ledger, store: store}
}

// RegisterRoutes はchiルーターにPnL関連のルートを登録します。
func (h *PnlHandler) RegisterRoutes(r chi.Router) {
	r.Get("/pnl/latest", h.GetLatestPnl)
	r.Get("/pnl/latest_summary", h.GetLatestSummary)
}

// GetLatestPnl matches the current ledger and returns its metrics.
func (h *PnlHandler) GetLatestPnl(w http.ResponseWriter, r *http.Request) {
	m := pnl.Summarize(h.label, pnl.Match(h.ledger.Orders()))
	writeJSON(w, m)
}

// GetLatestSummary returns the most recent stored summary.
func (h *PnlHandler) GetLatestSummary(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "PnL store is not configured", http.StatusNotFound)
		return
	}
	s, err := h.store.FetchLatestPnLSummary(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch latest PnL summary", http.StatusInternalServerError)
		return
	}
	if s == nil {
		http.Error(w, "No PnL summary stored yet", http.StatusNotFound)
		return
	}
	writeJSON(w, s)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response to JSON", http.StatusInternalServerError)
	}
}
