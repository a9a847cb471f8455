package trader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/alert"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/strategy"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// Clock abstracts wall time for the polling loop.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// BarSource returns the most recent limit bars of a timeframe, oldest first.
type BarSource interface {
	Klines(ctx context.Context, symbol string, tf market.Timeframe, limit int) ([]market.Bar, error)
}

// AccountSource fetches the exchange account.
type AccountSource interface {
	Account(ctx context.Context) (*order.Account, error)
}

// LedgerSink persists the full ledger after every iteration.
type LedgerSink interface {
	Save(records []tracker.Record) error
}

// LiveOptions configure the polling loop.
type LiveOptions struct {
	Symbol         string
	PollInterval   time.Duration
	PrefillHistory bool
	History1h      int
	History15m     int
}

// Live is the cooperative polling loop. It runs until an error occurs or
// ctx is cancelled.
type Live struct {
	opts     LiveOptions
	deps     Deps
	source   BarSource
	accounts AccountSource
	clock    Clock
	ledger   LedgerSink
	notifier alert.Notifier
}

// NewLive creates a live loop. deps.Account is replaced by the exchange
// account during Run when accounts is not nil.
func NewLive(opts LiveOptions, deps Deps, source BarSource, accounts AccountSource, clock Clock, ledger LedgerSink, notifier alert.Notifier) *Live {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Minute
	}
	if opts.History1h <= 0 {
		opts.History1h = 100
	}
	if opts.History15m <= 0 {
		opts.History15m = 50
	}
	if clock == nil {
		clock = SystemClock()
	}
	if notifier == nil {
		notifier = alert.NewNoOpNotifier()
	}
	deps.Mode = ModeLive
	return &Live{opts: opts, deps: deps, source: source, accounts: accounts, clock: clock, ledger: ledger, notifier: notifier}
}

// Run prefills history, bootstraps the account and polls until failure.
// Cancellation of ctx stops the loop and returns nil. Any other error stops
// trading and is returned.
func (l *Live) Run(ctx context.Context) error {
	p, err := l.setup(ctx)
	if err != nil {
		return l.fail(err)
	}

	for {
		if ctx.Err() != nil {
			return l.stop(ctx, p)
		}
		if err := l.iterate(ctx, p); err != nil {
			if ctx.Err() != nil {
				return l.stop(ctx, p)
			}
			return l.fail(err)
		}
	}
}

func (l *Live) setup(ctx context.Context) (*Pipeline, error) {
	log := l.deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if loader, ok := l.deps.Strategy.(strategy.HistoryLoader); ok && l.opts.PrefillHistory {
		log.Info("Fetching past data to prefill memory",
			zap.Int("bars1h", l.opts.History1h), zap.Int("bars15m", l.opts.History15m))
		h1, err := l.source.Klines(ctx, l.opts.Symbol, market.TF1h, l.opts.History1h)
		if err != nil {
			return nil, fmt.Errorf("prefill 1h: %w", err)
		}
		h15, err := l.source.Klines(ctx, l.opts.Symbol, market.TF15m, l.opts.History15m)
		if err != nil {
			return nil, fmt.Errorf("prefill 15m: %w", err)
		}
		loader.InitializeWithHistory(h1, h15)
	}

	if l.accounts != nil {
		acct, err := l.accounts.Account(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch account: %w", err)
		}
		l.deps.Account = acct
		log.Info("Account loaded", zap.Float64("balance", acct.Balance), zap.Int("assets", len(acct.Positions)))
	}
	return NewPipeline(l.deps)
}

func (l *Live) iterate(ctx context.Context, p *Pipeline) error {
	bars1h, err := l.source.Klines(ctx, l.opts.Symbol, market.TF1h, 2)
	if err != nil {
		return fmt.Errorf("fetch 1h klines: %w", err)
	}
	if len(bars1h) > 0 {
		p.Feed(bars1h[len(bars1h)-1])
	}

	bars15m, err := l.source.Klines(ctx, l.opts.Symbol, market.TF15m, 2)
	if err != nil {
		return fmt.Errorf("fetch 15m klines: %w", err)
	}
	if len(bars15m) == 0 {
		return l.clock.Sleep(ctx, l.opts.PollInterval)
	}

	bar := bars15m[len(bars15m)-1]
	p.Feed(bar)
	if _, err := p.Execute(ctx, &bar); err != nil {
		return err
	}
	if err := l.save(ctx, p); err != nil {
		return err
	}
	p.Logger.Debug("Live Trading Result", zap.Int("totalOrders", p.Tracker.Len()))
	return l.clock.Sleep(ctx, l.opts.PollInterval)
}

func (l *Live) save(ctx context.Context, p *Pipeline) error {
	if l.ledger != nil {
		if err := l.ledger.Save(p.Tracker.Orders()); err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
	}
	return p.SaveSummary(ctx, l.clock.Now())
}

func (l *Live) stop(ctx context.Context, p *Pipeline) error {
	p.Logger.Info("Live trading stopped", zap.Int("totalOrders", p.Tracker.Len()))
	return l.save(context.WithoutCancel(ctx), p)
}

func (l *Live) fail(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	_ = l.notifier.Send(fmt.Sprintf("live trading stopped: %v", err))
	if l.deps.Logger != nil {
		l.deps.Logger.Error("Live trading terminated", zap.Error(err))
	}
	return err
}
