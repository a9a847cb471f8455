package datastore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/mtf-macd-bot/internal/market"
)

type fakeKlineRows struct {
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func (r *fakeKlineRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeKlineRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	*dest[0].(*uint64) = row[0].(uint64)
	for i := 1; i < len(dest); i++ {
		*dest[i].(*float64) = row[i].(float64)
	}
	return nil
}

func (r *fakeKlineRows) Err() error   { return r.err }
func (r *fakeKlineRows) Close() error { r.closed = true; return nil }

func TestClickHouseBarSource_Load(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	rows := &fakeKlineRows{rows: [][]any{
		{uint64(start.UnixMilli()), 100.0, 101.0, 99.0, 100.5, 7.0},
		{uint64(start.Add(time.Minute).UnixMilli()), 100.5, 102.0, 100.0, 101.5, 3.0},
	}}

	var gotQuery string
	var gotArgs []any
	src := &ClickHouseBarSource{
		database: "market",
		table:    "klines_1m",
		query: func(_ context.Context, q string, args ...any) (rowScanner, error) {
			gotQuery = q
			gotArgs = args
			return rows, nil
		},
	}

	bars, err := src.Load(context.Background(), "ETHUSDT", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, rows.closed)

	assert.Contains(t, gotQuery, "FROM market.klines_1m FINAL")
	assert.True(t, strings.Contains(gotQuery, "ORDER BY open_time_ms"))
	assert.Equal(t, []any{"ETHUSDT", uint64(start.UnixMilli()), uint64(end.UnixMilli())}, gotArgs)

	assert.Equal(t, market.Bar{
		Timestamp: start.Add(time.Minute),
		Open:      100.5, High: 102, Low: 100, Close: 101.5, Volume: 3,
		Symbol: "ETHUSDT", Timeframe: market.TF1m,
	}, bars[1])
}

func TestClickHouseBarSource_Errors(t *testing.T) {
	boom := errors.New("boom")
	src := &ClickHouseBarSource{database: "d", table: "t",
		query: func(context.Context, string, ...any) (rowScanner, error) { return nil, boom }}
	_, err := src.Load(context.Background(), "ETHUSDT", time.Now(), time.Now())
	assert.ErrorIs(t, err, boom)

	src.query = func(context.Context, string, ...any) (rowScanner, error) {
		return &fakeKlineRows{err: boom}, nil
	}
	_, err = src.Load(context.Background(), "ETHUSDT", time.Now(), time.Now())
	assert.ErrorIs(t, err, boom)
}
