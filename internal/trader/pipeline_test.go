package trader

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/your-org/mtf-macd-bot/internal/dbwriter"
	"github.com/your-org/mtf-macd-bot/internal/engine"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/metrics"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/position"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, strat *scriptedStrategy, d Deps) *Pipeline {
	t.Helper()
	d.Strategy = strat
	if d.Engine == nil {
		d.Engine = engine.NewSimulatedExecutionEngine("sim")
	}
	if d.Tracker == nil {
		d.Tracker = tracker.New()
	}
	if d.Account == nil {
		d.Account = order.NewAccount(1000)
	}
	p, err := NewPipeline(d)
	require.NoError(t, err)
	return p
}

func TestNewPipeline_RequiresCollaborators(t *testing.T) {
	_, err := NewPipeline(Deps{})
	assert.Error(t, err)
}

func TestPipeline_OnMinuteBar_FeedsHourThenQuarter(t *testing.T) {
	strat := &scriptedStrategy{}
	p := newTestPipeline(t, strat, Deps{})

	for i := 0; i < 3; i++ {
		n, err := p.OnMinuteBar(context.Background(), minute(t0, i, 100+float64(i)))
		require.NoError(t, err)
		assert.Zero(t, n)
	}

	assert.Equal(t, []market.Timeframe{
		market.TF1h, market.TF15m,
		market.TF1h, market.TF15m,
		market.TF1h, market.TF15m,
	}, strat.timeframes())

	last15m := strat.bars[5]
	assert.Equal(t, t0, last15m.Timestamp)
	assert.Equal(t, 100.0, last15m.Open)
	assert.Equal(t, 102.0, last15m.Close)
	assert.Equal(t, 3.0, last15m.Volume)
	assert.Equal(t, "ETHUSDT", last15m.Symbol)
}

func TestPipeline_Execute_FillsAndRecords(t *testing.T) {
	strat := &scriptedStrategy{size: 2, batches: [][]signal.Signal{{sig(signal.Buy, t0)}}}
	m := metrics.New()
	w := dbwriter.NewInMemWriter()
	core, logs := observer.New(zap.InfoLevel)
	p := newTestPipeline(t, strat, Deps{
		Metrics:   m,
		Writer:    w,
		Position:  position.New("ETHUSDT"),
		Logger:    zap.New(core),
		SessionID: "s1",
	})

	ref := market.Bar{Timestamp: t0, Close: 50, Symbol: "ETHUSDT", Timeframe: market.TF15m}
	n, err := p.Execute(context.Background(), &ref)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	orders := p.Tracker.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, tracker.Record{
		Timestamp: t0, Side: "BUY", Symbol: "ETHUSDT", Price: 50, Size: 2, OrderID: "sim-1", Status: "FILLED",
	}, orders[0])

	assert.Equal(t, 900.0, p.Account.Balance)
	require.Len(t, strat.fills, 1)
	assert.Equal(t, "sim-1", strat.fills[0].ID)

	saved, _ := w.Snapshot()
	require.Len(t, saved, 1)
	assert.Equal(t, "s1", saved[0].SessionID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Signals.WithLabelValues("BUY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Orders.WithLabelValues("backtest", "BUY")))
	assert.Equal(t, 900.0, testutil.ToFloat64(m.Balance))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PositionSize))

	p.Feed(market.Bar{Timestamp: t0.Add(15 * time.Minute), Close: 60, Symbol: "ETHUSDT", Timeframe: market.TF15m})
	assert.Equal(t, 20.0, testutil.ToFloat64(m.Unrealized))

	for _, msg := range []string{"Signal Generation", "ORDER PLACED", "ORDER FILLED", "Order Logged"} {
		assert.Equal(t, 1, logs.FilterMessage(msg).Len(), msg)
	}
}

func TestPipeline_Execute_SkipsHoldAndEmptySize(t *testing.T) {
	strat := &scriptedStrategy{size: 0, batches: [][]signal.Signal{
		{sig(signal.Hold, t0), sig(signal.Sell, t0)},
	}}
	p := newTestPipeline(t, strat, Deps{})

	ref := market.Bar{Timestamp: t0, Close: 50}
	n, err := p.Execute(context.Background(), &ref)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, p.Tracker.Len())
	assert.Equal(t, 1000.0, p.Account.Balance)
}

func TestPipeline_Execute_PropagatesEngineError(t *testing.T) {
	strat := &scriptedStrategy{size: 1, batches: [][]signal.Signal{{sig(signal.Buy, t0), sig(signal.Sell, t0)}}}
	m := metrics.New()
	p := newTestPipeline(t, strat, Deps{Engine: failingEngine{err: errBoom}, Metrics: m, Mode: ModeLive})

	ref := market.Bar{Timestamp: t0, Close: 50}
	n, err := p.Execute(context.Background(), &ref)
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, n)
	assert.Zero(t, p.Tracker.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrderErrors.WithLabelValues("live")))
}

func TestPipeline_SellCreditsAccount(t *testing.T) {
	strat := &scriptedStrategy{size: 1, batches: [][]signal.Signal{{sig(signal.Sell, t0)}}}
	p := newTestPipeline(t, strat, Deps{})

	ref := market.Bar{Timestamp: t0, Close: 25}
	_, err := p.Execute(context.Background(), &ref)
	require.NoError(t, err)
	assert.Equal(t, 1025.0, p.Account.Balance)
	assert.Equal(t, "SELL", p.Tracker.Orders()[0].Side)
}

func TestPipeline_SaveSummary(t *testing.T) {
	strat := &scriptedStrategy{size: 1, batches: [][]signal.Signal{
		{sig(signal.Buy, t0)},
		{sig(signal.Sell, t0.Add(time.Minute))},
	}}
	w := dbwriter.NewInMemWriter()
	p := newTestPipeline(t, strat, Deps{Writer: w, Position: position.New("ETHUSDT"), SessionID: "s2"})

	ctx := context.Background()
	_, err := p.Execute(ctx, &market.Bar{Timestamp: t0, Close: 100, Symbol: "ETHUSDT"})
	require.NoError(t, err)
	_, err = p.Execute(ctx, &market.Bar{Timestamp: t0.Add(time.Minute), Close: 110, Symbol: "ETHUSDT"})
	require.NoError(t, err)

	at := t0.Add(2 * time.Minute)
	require.NoError(t, p.SaveSummary(ctx, at))

	_, summaries := w.Snapshot()
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, at, s.Time)
	assert.Equal(t, "s2", s.SessionID)
	assert.Equal(t, "ETHUSDT", s.Symbol)
	assert.Equal(t, "10", s.RealizedPnL.String())
	assert.Equal(t, 1, s.ClosedTrades)
	assert.True(t, s.PositionSize.IsZero())
}

func TestPipeline_SaveSummary_NoWriter(t *testing.T) {
	p := newTestPipeline(t, &scriptedStrategy{}, Deps{})
	assert.NoError(t, p.SaveSummary(context.Background(), t0))
}
