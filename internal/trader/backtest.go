package trader

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/engine"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/position"
	"github.com/your-org/mtf-macd-bot/internal/strategy"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// DefaultCash is the starting balance of a backtest.
const DefaultCash = 100000.0

// BacktestOptions configure a Backtest. Zero values use defaults.
type BacktestOptions struct {
	Cash    float64
	Symbol  string
	Deps    Deps
	Session string
}

// Backtest replays 1-minute bars through a Pipeline with a simulated venue.
type Backtest struct {
	pipeline  *Pipeline
	SessionID string
}

// NewBacktest prepares a replay of strat. Fills are simulated with
// "bt-<n>" order IDs unless opts.Deps.Engine is set.
func NewBacktest(strat strategy.Strategy, opts BacktestOptions) (*Backtest, error) {
	d := opts.Deps
	d.Strategy = strat
	d.Mode = ModeBacktest
	if d.Engine == nil {
		d.Engine = engine.NewSimulatedExecutionEngine("bt")
	}
	if d.Tracker == nil {
		d.Tracker = tracker.New()
	}
	if d.Account == nil {
		cash := opts.Cash
		if cash <= 0 {
			cash = DefaultCash
		}
		d.Account = order.NewAccount(cash)
	}
	if d.Position == nil && opts.Symbol != "" {
		d.Position = position.New(opts.Symbol)
	}
	d.SessionID = opts.Session
	if d.SessionID == "" {
		d.SessionID = uuid.NewString()
	}

	p, err := NewPipeline(d)
	if err != nil {
		return nil, err
	}
	return &Backtest{pipeline: p, SessionID: d.SessionID}, nil
}

// Run feeds the bars with timestamps in [start, end] in timestamp order and
// returns the resulting ledger. A zero start or end leaves that side open.
func (b *Backtest) Run(ctx context.Context, bars []market.Bar, start, end time.Time) ([]tracker.Record, error) {
	window := FilterRange(bars, start, end)
	log := b.pipeline.Logger
	log.Info("Starting backtest...",
		zap.String("session", b.SessionID),
		zap.Int("bars", len(window)),
		zap.Float64("cash", b.pipeline.Account.Balance))

	for i, bar := range window {
		if err := ctx.Err(); err != nil {
			return b.pipeline.Tracker.Orders(), err
		}
		if _, err := b.pipeline.OnMinuteBar(ctx, bar); err != nil {
			return b.pipeline.Tracker.Orders(), fmt.Errorf("bar %d at %s: %w", i, bar.Timestamp.Format(time.RFC3339), err)
		}
	}

	orders := b.pipeline.Tracker.Orders()
	at := end
	if len(window) > 0 {
		at = window[len(window)-1].Timestamp
	}
	if err := b.pipeline.SaveSummary(ctx, at); err != nil {
		return orders, err
	}
	log.Info("Backtesting completed",
		zap.String("session", b.SessionID),
		zap.Int("orders", len(orders)),
		zap.Float64("balance", b.pipeline.Account.Balance))
	return orders, nil
}

// Pipeline returns the pipeline driven by the replay.
func (b *Backtest) Pipeline() *Pipeline {
	return b.pipeline
}

// FilterRange returns the bars inside [start, end] sorted by timestamp. The
// input slice is not modified.
func FilterRange(bars []market.Bar, start, end time.Time) []market.Bar {
	out := make([]market.Bar, 0, len(bars))
	for _, b := range bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
