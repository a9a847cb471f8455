package dbwriter

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/mtf-macd-bot/internal/pnl"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// OrderFromRecord maps a ledger record onto an orders row.
func OrderFromRecord(sessionID string, r tracker.Record) Order {
	return Order{
		Time:      r.Timestamp,
		SessionID: sessionID,
		Symbol:    r.Symbol,
		Side:      r.Side,
		Price:     decimal.NewFromFloat(r.Price),
		Size:      decimal.NewFromFloat(r.Size),
		OrderID:   r.OrderID,
		Status:    r.Status,
	}
}

// SummaryFromMetrics builds a pnl_summary row. size and avgEntry describe the
// open position at t.
func SummaryFromMetrics(t time.Time, sessionID, symbol string, m pnl.Metrics, size, avgEntry float64) PnLSummary {
	return PnLSummary{
		Time:          t,
		SessionID:     sessionID,
		Symbol:        symbol,
		RealizedPnL:   m.RealizedPnL,
		UnrealizedPnL: m.UnrealizedPnL,
		TotalPnL:      m.TotalPnL,
		PositionSize:  decimal.NewFromFloat(size),
		AvgEntryPrice: decimal.NewFromFloat(avgEntry),
		ClosedTrades:  m.ClosedTrades,
		WinRate:       m.WinRate,
	}
}
