package datastore

import (
	"context"
	"fmt"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

// ClickHouseOptions locates the 1-minute kline table.
type ClickHouseOptions struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// OpenClickHouse connects to ClickHouse and pings it.
func OpenClickHouse(ctx context.Context, opts ClickHouseOptions) (clickhouse.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return conn, nil
}

// rowScanner is the subset of driver.Rows used to decode klines.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type queryFunc func(ctx context.Context, query string, args ...any) (rowScanner, error)

// ClickHouseBarSource loads 1-minute bars from a table with the columns
// symbol, interval, open_time_ms, open, high, low, close, volume.
type ClickHouseBarSource struct {
	query    queryFunc
	database string
	table    string
}

// NewClickHouseBarSource reads from database.table over conn.
func NewClickHouseBarSource(conn clickhouse.Conn, database, table string) *ClickHouseBarSource {
	return &ClickHouseBarSource{
		query: func(ctx context.Context, q string, args ...any) (rowScanner, error) {
			return conn.Query(ctx, q, args...)
		},
		database: database,
		table:    table,
	}
}

func (s *ClickHouseBarSource) statement() string {
	return fmt.Sprintf(`
        SELECT open_time_ms, open, high, low, close, volume
        FROM %s.%s FINAL
        WHERE symbol = ? AND interval = '1m' AND open_time_ms >= ? AND open_time_ms <= ?
        ORDER BY open_time_ms ASC`, s.database, s.table)
}

// Load returns the 1-minute bars of symbol with open time in [start, end].
func (s *ClickHouseBarSource) Load(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	rows, err := s.query(ctx, s.statement(), symbol, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("failed to query klines: %w", err)
	}
	defer rows.Close()

	var bars []market.Bar
	for rows.Next() {
		var openTime uint64
		b := market.Bar{Symbol: symbol, Timeframe: market.TF1m}
		if err := rows.Scan(&openTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan kline: %w", err)
		}
		b.Timestamp = time.UnixMilli(int64(openTime)).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.Infof("Loaded %d %s bars from clickhouse %s.%s", len(bars), symbol, s.database, s.table)
	return bars, nil
}
