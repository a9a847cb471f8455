package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads orders and PnL summaries stored by dbwriter.
type Repository struct {
	db Querier
}

// NewRepository creates a new Repository.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// PnLSummary is the latest stored summary of a session.
type PnLSummary struct {
	Time          time.Time       `json:"time"`
	SessionID     string          `json:"session_id"`
	Symbol        string          `json:"symbol"`
	RealizedPnL   decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	ClosedTrades  int             `json:"closed_trades"`
	WinRate       float64         `json:"win_rate"`
}

// FetchOrders returns the ledger of one session ordered by time. An empty
// sessionID matches every session.
func (r *Repository) FetchOrders(ctx context.Context, sessionID string) ([]tracker.Record, error) {
	query := `
        SELECT time, side, symbol, price, size, order_id, status
        FROM orders
        WHERE ($1 = '' OR session_id = $1)
        ORDER BY time ASC, order_id ASC;
    `
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	records := []tracker.Record{}
	for rows.Next() {
		var rec tracker.Record
		var price, size decimal.Decimal
		if err := rows.Scan(&rec.Timestamp, &rec.Side, &rec.Symbol, &price, &size, &rec.OrderID, &rec.Status); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		rec.Price = price.InexactFloat64()
		rec.Size = size.InexactFloat64()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FetchLatestPnLSummary returns the most recent summary, or (nil, nil) when
// none has been stored yet.
func (r *Repository) FetchLatestPnLSummary(ctx context.Context) (*PnLSummary, error) {
	query := `
        SELECT time, session_id, symbol, realized_pnl, unrealized_pnl, total_pnl, closed_trades, win_rate
        FROM pnl_summary
        ORDER BY time DESC
        LIMIT 1;
    `
	var s PnLSummary
	err := r.db.QueryRow(ctx, query).Scan(&s.Time, &s.SessionID, &s.Symbol,
		&s.RealizedPnL, &s.UnrealizedPnL, &s.TotalPnL, &s.ClosedTrades, &s.WinRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest pnl summary: %w", err)
	}
	return &s, nil
}
