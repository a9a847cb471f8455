// Package sizing converts directional signals into bounded order quantities.
package sizing

import (
	"math"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/signal"
)

// Params are the risk budget and clamp limits.
type Params struct {
	RiskPerTrade     float64 `yaml:"risk_per_trade"`
	ATRMultiplier    float64 `yaml:"atr_multiplier"`
	MaxLeverage      float64 `yaml:"max_leverage"`
	MinPositionSize  float64 `yaml:"min_position_size"`
	MaxPositionSize  float64 `yaml:"max_position_size"`
	MinPositionValue float64 `yaml:"min_position_value"`
	MaxPositionValue float64 `yaml:"max_position_value"`
}

// DefaultParams returns 1% risk per trade against a 2x ATR stop, no leverage.
func DefaultParams() Params {
	return Params{
		RiskPerTrade:     0.01,
		ATRMultiplier:    2.0,
		MaxLeverage:      1.0,
		MinPositionSize:  0.001,
		MaxPositionSize:  10.0,
		MinPositionValue: 1.0,
		MaxPositionValue: 100.0,
	}
}

// Sizer computes position sizes from ATR and account balance.
type Sizer struct {
	p Params
}

// NewSizer creates a Sizer.
func NewSizer(p Params) *Sizer {
	return &Sizer{p: p}
}

// Params returns the configured limits.
func (s *Sizer) Params() Params {
	return s.p
}

// Size returns the quantity to trade, or 0 when the inputs do not allow a
// trade. A zero result means no order should be submitted.
func (s *Sizer) Size(atr float64, atrOK bool, entry float64, entryOK bool, account order.Account) float64 {
	if !atrOK || math.IsNaN(atr) || atr <= 0 {
		return 0
	}
	if !entryOK || math.IsNaN(entry) || entry <= 0 {
		return 0
	}

	stop := s.p.ATRMultiplier * atr
	qty := (s.p.RiskPerTrade * account.Balance) / stop
	maxQty := (account.Balance * s.p.MaxLeverage) / entry

	pos := s.clampSize(math.Min(qty, maxQty))

	value := pos * entry
	if value < s.p.MinPositionValue {
		pos = s.p.MinPositionValue / entry
	} else if value > s.p.MaxPositionValue {
		pos = s.p.MaxPositionValue / entry
	}

	// The notional adjustment can leave the size band.
	return s.clampSize(pos)
}

func (s *Sizer) clampSize(v float64) float64 {
	return math.Min(math.Max(v, s.p.MinPositionSize), s.p.MaxPositionSize)
}

// EntryPrice prefers the close of the latest trigger bar and falls back to the
// signal's own price.
func EntryPrice(lastTrigger *market.Bar, sig signal.Signal) (float64, bool) {
	if lastTrigger != nil {
		return lastTrigger.Close, true
	}
	if sig.Price != nil {
		return *sig.Price, true
	}
	return 0, false
}
