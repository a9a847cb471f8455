package pnl

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

var t0 = time.Date(2025, 12, 29, 9, 0, 0, 0, time.UTC)

func rec(i int, side string, size, price float64) tracker.Record {
	return tracker.Record{
		Timestamp: t0.Add(time.Duration(i) * time.Minute),
		Side:      side,
		Symbol:    "ETHUSDT",
		Price:     price,
		Size:      size,
		OrderID:   "bt-" + string(rune('1'+i)),
		Status:    "FILLED",
	}
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func assertDec(t *testing.T, want float64, got decimal.Decimal, msg ...interface{}) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %v, got %s %v", want, got, msg)
}

func TestMatch_RoundTrip(t *testing.T) {
	res := Match([]tracker.Record{rec(0, "BUY", 1, 100), rec(1, "SELL", 1, 110)})

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assertDec(t, 100, tr.EntryPrice)
	assertDec(t, 110, tr.ExitPrice)
	assertDec(t, 1, tr.Size)
	assertDec(t, 10, tr.PnL)
	assert.Equal(t, Long, tr.Direction)
	assert.True(t, res.Unrealized.IsZero())
	assert.Empty(t, res.OpenLongs)
	assert.Empty(t, res.OpenShorts)
	assert.Equal(t, 2, res.TotalOrders)
}

func TestMatch_PartialFill(t *testing.T) {
	res := Match([]tracker.Record{rec(0, "BUY", 2, 100), rec(1, "SELL", 1, 110), rec(2, "SELL", 1, 120)})

	require.Len(t, res.Trades, 2)
	assertDec(t, 100, res.Trades[0].EntryPrice)
	assertDec(t, 100, res.Trades[1].EntryPrice)
	assertDec(t, 10, res.Trades[0].PnL)
	assertDec(t, 20, res.Trades[1].PnL)
	assert.Empty(t, res.OpenLongs)

	m := Summarize("BACKTEST", res)
	assertDec(t, 30, m.RealizedPnL)
	assertDec(t, 30, m.TotalPnL)
}

func TestMatch_ShortsAndFlip(t *testing.T) {
	// Sell opens a short, the larger buy closes it and opens a long with the
	// remainder, marked to the final price.
	res := Match([]tracker.Record{rec(0, "sell", 1, 120), rec(1, "buy", 3, 100), rec(2, "BUY", 0, 90)})

	require.Len(t, res.Trades, 1)
	assert.Equal(t, Short, res.Trades[0].Direction)
	assertDec(t, 20, res.Trades[0].PnL)

	require.Len(t, res.OpenLongs, 1)
	assertDec(t, 2, res.OpenLongs[0].Size)
	assertDec(t, 100, res.OpenLongs[0].EntryPrice)
	assert.Empty(t, res.OpenShorts)
	assertDec(t, 90, res.LastPrice)
	assertDec(t, -20, res.Unrealized)
}

func TestMatch_FIFOOrder(t *testing.T) {
	res := Match([]tracker.Record{
		rec(0, "BUY", 1, 100),
		rec(1, "BUY", 1, 200),
		rec(2, "SELL", 1.5, 150),
	})
	require.Len(t, res.Trades, 2)
	assertDec(t, 100, res.Trades[0].EntryPrice)
	assertDec(t, 1, res.Trades[0].Size)
	assertDec(t, 200, res.Trades[1].EntryPrice)
	assertDec(t, 0.5, res.Trades[1].Size)
	assertDec(t, -25, res.Trades[1].PnL)

	require.Len(t, res.OpenLongs, 1)
	assertDec(t, 0.5, res.OpenLongs[0].Size)
	// 0.5 left at 200, marked to 150.
	assertDec(t, -25, res.Unrealized)
}

func TestMatch_DecimalExactness(t *testing.T) {
	res := Match([]tracker.Record{
		rec(0, "BUY", 0.1, 0.3),
		rec(1, "BUY", 0.2, 0.3),
		rec(2, "SELL", 0.3, 0.6),
	})
	m := Summarize("x", res)
	assertDec(t, 0.09, m.RealizedPnL)
	assert.Empty(t, res.OpenLongs)
}

func TestMatch_UnknownSideIsSkipped(t *testing.T) {
	res := Match([]tracker.Record{rec(0, "BUY", 1, 100), rec(1, "HOLD", 1, 130)})
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.TotalOrders)
	assert.Empty(t, res.Trades)
	require.Len(t, res.OpenLongs, 1)
	// The final row's price still marks the open lot.
	assertDec(t, 30, res.Unrealized)
}

func TestMatch_Empty(t *testing.T) {
	res := Match(nil)
	assert.Empty(t, res.Trades)
	assert.True(t, res.Unrealized.IsZero())
	assert.Zero(t, res.TotalOrders)

	m := Summarize("LIVE", res)
	assert.True(t, m.RealizedPnL.IsZero())
	assert.True(t, m.TotalPnL.IsZero())
	assert.False(t, m.AveragePnL.Valid)
	assert.False(t, m.LargestWin.Valid)
	assert.False(t, m.LargestLoss.Valid)
}

func TestMatch_Idempotent(t *testing.T) {
	ledger := []tracker.Record{
		rec(0, "BUY", 2, 100), rec(1, "SELL", 1, 110), rec(2, "SELL", 3, 90), rec(3, "BUY", 1, 95),
	}
	before := append([]tracker.Record(nil), ledger...)

	a, b := Match(ledger), Match(ledger)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("results differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(Summarize("x", a), Summarize("x", b)); diff != "" {
		t.Errorf("metrics differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, ledger); diff != "" {
		t.Errorf("ledger mutated (-before +after):\n%s", diff)
	}
}
