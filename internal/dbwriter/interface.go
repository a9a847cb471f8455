package dbwriter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is one executed order as stored in the orders hypertable.
type Order struct {
	Time      time.Time       `db:"time"`
	SessionID string          `db:"session_id"`
	Symbol    string          `db:"symbol"`
	Side      string          `db:"side"`
	Price     decimal.Decimal `db:"price"`
	Size      decimal.Decimal `db:"size"`
	OrderID   string          `db:"order_id"`
	Status    string          `db:"status"`
}

// PnLSummary is a point-in-time PnL snapshot of a session.
type PnLSummary struct {
	Time          time.Time       `db:"time"`
	SessionID     string          `db:"session_id"`
	Symbol        string          `db:"symbol"`
	RealizedPnL   decimal.Decimal `db:"realized_pnl"`
	UnrealizedPnL decimal.Decimal `db:"unrealized_pnl"`
	TotalPnL      decimal.Decimal `db:"total_pnl"`
	PositionSize  decimal.Decimal `db:"position_size"`
	AvgEntryPrice decimal.Decimal `db:"avg_entry_price"`
	ClosedTrades  int             `db:"closed_trades"`
	WinRate       float64         `db:"win_rate"`
}

// Repository defines the interface for database writing operations.
// This allows for mocking in tests and abstracting the writer implementation.
type Repository interface {
	// SaveOrder adds an order to the buffer.
	SaveOrder(o Order)

	// SavePnLSummary saves a single PnL summary to the database.
	SavePnLSummary(ctx context.Context, pnl PnLSummary) error

	// Close flushes any buffered data and closes the database connection.
	Close()
}
