package strategy

import (
	"math/rand"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/signal"
)

// DemoParams configures RandomDemo.
type DemoParams struct {
	Seed     int64   `yaml:"seed"`
	BuyProb  float64 `yaml:"buy_prob"`
	SellProb float64 `yaml:"sell_prob"`
	Size     float64 `yaml:"size"`
}

// DefaultDemoParams returns seed 42, 20% buy and sell odds and 0.01 lots.
func DefaultDemoParams() DemoParams {
	return DemoParams{Seed: 42, BuyProb: 0.2, SellProb: 0.2, Size: 0.01}
}

// RandomDemo emits random fixed-size signals. It exercises the backtest and
// live pipelines without depending on indicator warm-up.
type RandomDemo struct {
	p       DemoParams
	rng     *rand.Rand
	lastBar *market.Bar
}

// NewRandomDemo builds a deterministic random strategy.
func NewRandomDemo(p DemoParams) *RandomDemo {
	return &RandomDemo{p: p, rng: rand.New(rand.NewSource(p.Seed))}
}

// Name returns the identifier for the strategy implementation.
func (s *RandomDemo) Name() string { return "RandomDemo" }

// OnBar stores the latest bar.
func (s *RandomDemo) OnBar(bar market.Bar) {
	b := bar
	s.lastBar = &b
}

// GenerateSignals draws once and emits a buy, a sell or nothing.
func (s *RandomDemo) GenerateSignals() []signal.Signal {
	if s.lastBar == nil {
		return nil
	}
	p := s.rng.Float64()

	var side signal.Side
	switch {
	case p < s.p.BuyProb:
		side = signal.Buy
	case p > 1.0-s.p.SellProb:
		side = signal.Sell
	default:
		return nil
	}
	return []signal.Signal{{
		Symbol:    s.lastBar.Symbol,
		Side:      side,
		Timestamp: s.lastBar.Timestamp,
	}}
}

// PositionSize returns the configured fixed lot.
func (s *RandomDemo) PositionSize(signal.Signal, order.Account) float64 {
	return s.p.Size
}

// OnOrderFilled is a no-op.
func (s *RandomDemo) OnOrderFilled(order.Order) {}
