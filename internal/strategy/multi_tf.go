package strategy

import (
	"github.com/your-org/mtf-macd-bot/internal/indicator"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/internal/sizing"
)

// MultiTF trades MACD crossovers, confirming on 1h bars and triggering on
// 15m bars. Bars of both timeframes feed a single indicator series.
type MultiTF struct {
	state  *indicator.State
	engine *signal.Engine
	sizer  *sizing.Sizer

	last1h  *market.Bar
	last15m *market.Bar
}

// NewMultiTF builds the strategy.
func NewMultiTF(ind indicator.Config, params sizing.Params) *MultiTF {
	return &MultiTF{
		state:  indicator.NewState(ind),
		engine: signal.NewEngine(),
		sizer:  sizing.NewSizer(params),
	}
}

// Name returns the identifier for the strategy implementation.
func (s *MultiTF) Name() string { return "MultiTFMACD" }

// OnBar folds bar into the indicator series and remembers it as the latest
// bar of its timeframe.
func (s *MultiTF) OnBar(bar market.Bar) {
	switch bar.Timeframe {
	case market.TF1h:
		b := bar
		s.last1h = &b
	case market.TF15m:
		b := bar
		s.last15m = &b
	}

	s.state.Update(bar)
	snap := s.state.Snapshot()
	s.engine.Observe(snap.MACD, snap.Signal)
}

// GenerateSignals returns at most one crossover signal.
func (s *MultiTF) GenerateSignals() []signal.Signal {
	sig, ok := s.engine.Evaluate(s.last1h, s.last15m)
	if !ok {
		return nil
	}
	return []signal.Signal{sig}
}

// PositionSize sizes sig from the current ATR and the latest 15m close.
func (s *MultiTF) PositionSize(sig signal.Signal, account order.Account) float64 {
	atr, atrOK := s.state.ATR()
	entry, entryOK := sizing.EntryPrice(s.last15m, sig)
	return s.sizer.Size(atr, atrOK, entry, entryOK, account)
}

// OnOrderFilled is a no-op; the strategy keeps no position state.
func (s *MultiTF) OnOrderFilled(order.Order) {}

// InitializeWithHistory replays 1h bars then 15m bars so signals are available
// immediately.
func (s *MultiTF) InitializeWithHistory(bars1h, bars15m []market.Bar) {
	for _, b := range bars1h {
		s.OnBar(b)
	}
	for _, b := range bars15m {
		s.OnBar(b)
	}
}

// Indicators returns the current indicator values.
func (s *MultiTF) Indicators() indicator.Snapshot {
	return s.state.Snapshot()
}

// Bars returns the number of bars folded into the indicator series.
func (s *MultiTF) Bars() int {
	return s.state.Count()
}
