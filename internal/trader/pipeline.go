// Package trader drives the strategy from bar feeds: a backtest replay over
// 1-minute bars and a live polling loop against an exchange.
package trader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/aggregator"
	"github.com/your-org/mtf-macd-bot/internal/dbwriter"
	"github.com/your-org/mtf-macd-bot/internal/engine"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/metrics"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/pnl"
	"github.com/your-org/mtf-macd-bot/internal/position"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/internal/strategy"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// Mode labels metrics and persisted rows.
type Mode string

const (
	ModeBacktest Mode = "backtest"
	ModeLive     Mode = "live"
)

// Deps are the collaborators of a Pipeline. Strategy, Engine, Tracker and
// Account are required; the rest may be left nil.
type Deps struct {
	Strategy   strategy.Strategy
	Engine     engine.ExecutionEngine
	Tracker    *tracker.Tracker
	Account    *order.Account
	Aggregator *aggregator.Aggregator
	Position   *position.Position
	Metrics    *metrics.Metrics
	Writer     dbwriter.Repository
	Logger     *zap.Logger
	Mode       Mode
	SessionID  string
}

// Pipeline runs one bar through the strategy and executes the resulting
// signals. It is not safe for concurrent use.
type Pipeline struct {
	Deps
}

// NewPipeline validates deps and fills the optional ones.
func NewPipeline(d Deps) (*Pipeline, error) {
	if d.Strategy == nil || d.Engine == nil || d.Tracker == nil || d.Account == nil {
		return nil, fmt.Errorf("trader: strategy, engine, tracker and account are required")
	}
	if d.Aggregator == nil {
		d.Aggregator = aggregator.New(0)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Mode == "" {
		d.Mode = ModeBacktest
	}
	return &Pipeline{Deps: d}, nil
}

// OnMinuteBar appends a 1-minute bar, feeds the in-progress 1h and 15m bars
// to the strategy in that order, then executes any signals. The 15m bar is
// the execution reference when present, otherwise the 1h bar.
func (p *Pipeline) OnMinuteBar(ctx context.Context, bar market.Bar) (int, error) {
	p.Aggregator.Add(bar)

	var ref *market.Bar
	for _, tf := range []market.Timeframe{market.TF1h, market.TF15m} {
		b, ok := p.Aggregator.At(bar.Timestamp, tf)
		if !ok {
			continue
		}
		b.Symbol = bar.Symbol
		p.Feed(b)
		ref = &b
	}
	if ref == nil {
		return 0, nil
	}
	return p.Execute(ctx, ref)
}

// Feed passes an already aggregated bar to the strategy.
func (p *Pipeline) Feed(b market.Bar) {
	logMarketData(p.Logger, b)
	p.Strategy.OnBar(b)
	if p.Metrics != nil {
		p.Metrics.Bars.WithLabelValues(b.Timeframe.String()).Inc()
		if p.Position != nil {
			p.Metrics.Unrealized.Set(p.Position.Unrealized(b.Close))
		}
	}
}

// Execute generates signals and fills every actionable one against ref.
// It returns the number of filled orders. Placement errors abort the
// remaining signals and are returned.
func (p *Pipeline) Execute(ctx context.Context, ref *market.Bar) (int, error) {
	sigs := p.Strategy.GenerateSignals()
	logSignalGeneration(p.Logger, sigs, ref.Timestamp)

	filled := 0
	for _, sig := range sigs {
		if sig.Side == signal.Hold {
			continue
		}
		if p.Metrics != nil {
			p.Metrics.Signals.WithLabelValues(sig.Side.String()).Inc()
		}

		size := p.Strategy.PositionSize(sig, p.Account.Snapshot())
		if size <= 0 {
			p.Logger.Info("Skipping signal with non-positive size",
				zap.Stringer("side", sig.Side), zap.Time("bar", sig.Timestamp))
			continue
		}
		sig.Size = size

		o, err := p.Engine.Place(ctx, sig, ref)
		if err != nil {
			if p.Metrics != nil {
				p.Metrics.OrderErrors.WithLabelValues(string(p.Mode)).Inc()
			}
			return filled, fmt.Errorf("place %s %s: %w", sig.Side, sig.Symbol, err)
		}
		logOrderPlacement(p.Logger, o)
		logOrderFill(p.Logger, o)
		p.record(o)
		filled++
	}
	return filled, nil
}

func (p *Pipeline) record(o order.Order) {
	rec := p.Tracker.AddOrder(o)
	logTrade(p.Logger, rec)

	p.Account.ApplyFill(o)
	p.Strategy.OnOrderFilled(o)

	if p.Position != nil {
		p.Position.Apply(rec)
	}
	if p.Writer != nil {
		p.Writer.SaveOrder(dbwriter.OrderFromRecord(p.SessionID, rec))
	}
	if p.Metrics != nil {
		p.Metrics.Orders.WithLabelValues(string(p.Mode), rec.Side).Inc()
		p.Metrics.Balance.Set(p.Account.Balance)
		if p.Position != nil {
			size, _ := p.Position.Get()
			p.Metrics.PositionSize.Set(size)
			p.Metrics.RealizedPnL.Set(p.Position.Realized())
		}
	}
}

// SaveSummary persists the FIFO PnL of the ledger so far, stamped at. It is
// a no-op without a Writer.
func (p *Pipeline) SaveSummary(ctx context.Context, at time.Time) error {
	if p.Writer == nil {
		return nil
	}
	m := pnl.Summarize(string(p.Mode), pnl.Match(p.Tracker.Orders()))
	var size, avg float64
	symbol := ""
	if p.Position != nil {
		size, avg = p.Position.Get()
		symbol = p.Position.Symbol()
	}
	if err := p.Writer.SavePnLSummary(ctx, dbwriter.SummaryFromMetrics(at, p.SessionID, symbol, m, size, avg)); err != nil {
		return fmt.Errorf("save pnl summary: %w", err)
	}
	return nil
}
