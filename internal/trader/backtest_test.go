package trader

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/mtf-macd-bot/internal/indicator"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/internal/sizing"
	"github.com/your-org/mtf-macd-bot/internal/strategy"
)

func TestFilterRange(t *testing.T) {
	bars := []market.Bar{minute(t0, 3, 1), minute(t0, 1, 1), minute(t0, 0, 1), minute(t0, 2, 1)}
	got := FilterRange(bars, t0.Add(time.Minute), t0.Add(2*time.Minute))
	require.Len(t, got, 2)
	assert.Equal(t, t0.Add(time.Minute), got[0].Timestamp)
	assert.Equal(t, t0.Add(2*time.Minute), got[1].Timestamp)
	assert.Equal(t, t0.Add(3*time.Minute), bars[0].Timestamp, "input must not be reordered")

	assert.Len(t, FilterRange(bars, time.Time{}, time.Time{}), 4)
}

func TestBacktest_Run_Scripted(t *testing.T) {
	strat := &scriptedStrategy{size: 1, batches: [][]signal.Signal{
		nil,
		{sig(signal.Buy, t0.Add(time.Minute))},
		nil,
		{sig(signal.Sell, t0.Add(3*time.Minute))},
	}}
	bt, err := NewBacktest(strat, BacktestOptions{Symbol: "ETHUSDT"})
	require.NoError(t, err)
	assert.NotEmpty(t, bt.SessionID)
	assert.Equal(t, DefaultCash, bt.Pipeline().Account.Balance)

	bars := []market.Bar{minute(t0, 0, 100), minute(t0, 1, 101), minute(t0, 2, 102), minute(t0, 3, 103)}
	orders, err := bt.Run(context.Background(), bars, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "bt-1", orders[0].OrderID)
	assert.Equal(t, "BUY", orders[0].Side)
	assert.Equal(t, 101.0, orders[0].Price, "fills at the close of the in-progress 15m bar")
	assert.Equal(t, "bt-2", orders[1].OrderID)
	assert.Equal(t, 103.0, orders[1].Price)
	assert.InDelta(t, DefaultCash+2, bt.Pipeline().Account.Balance, 1e-9)

	realized := bt.Pipeline().Position.Realized()
	assert.InDelta(t, 2, realized, 1e-9)
}

func TestBacktest_Run_Cancelled(t *testing.T) {
	bt, err := NewBacktest(&scriptedStrategy{}, BacktestOptions{})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = bt.Run(ctx, []market.Bar{minute(t0, 0, 1)}, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBacktest_Run_PropagatesEngineError(t *testing.T) {
	strat := &scriptedStrategy{size: 1, batches: [][]signal.Signal{{sig(signal.Buy, t0)}}}
	bt, err := NewBacktest(strat, BacktestOptions{Deps: Deps{Engine: failingEngine{err: errBoom}}})
	require.NoError(t, err)

	_, err = bt.Run(context.Background(), []market.Bar{minute(t0, 0, 1)}, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, errBoom)
}

func TestBacktest_Run_MultiTFOnOscillatingPrices(t *testing.T) {
	strat := strategy.NewMultiTF(
		indicator.Config{FastPeriod: 2, SlowPeriod: 3, SignalPeriod: 2, ATRPeriod: 2},
		sizing.DefaultParams(),
	)
	var bars []market.Bar
	for i := 0; i < 24*60; i++ {
		bars = append(bars, minute(t0, i, 100+10*math.Sin(float64(i)*2*math.Pi/240)))
	}

	bt, err := NewBacktest(strat, BacktestOptions{Symbol: "ETHUSDT"})
	require.NoError(t, err)
	orders, err := bt.Run(context.Background(), bars, t0, t0.Add(24*time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, orders)

	params := sizing.DefaultParams()
	for i, o := range orders {
		assert.Contains(t, []string{"BUY", "SELL"}, o.Side)
		assert.Equal(t, "FILLED", o.Status)
		assert.LessOrEqual(t, o.Size, params.MaxPositionSize)
		assert.LessOrEqual(t, o.Size*o.Price, params.MaxPositionValue+1e-9)
		if i > 0 {
			assert.False(t, o.Timestamp.Before(orders[i-1].Timestamp))
		}
	}
}
