// Package signal provides the logic for generating trading signals.
package signal

import (
	"time"

	"github.com/your-org/mtf-macd-bot/internal/market"
)

// Side is the direction of a trading signal.
type Side int

const (
	// Sell indicates a sell signal.
	Sell Side = -1
	// Hold indicates no action.
	Hold Side = 0
	// Buy indicates a buy signal.
	Buy Side = 1
)

// String returns the string representation of Side.
func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case Hold:
		return "HOLD"
	default:
		return "UNKNOWN"
	}
}

// Signal is a directional trading decision. Size stays 0 until a position
// sizer fills it in; a nil Price means a market order.
type Signal struct {
	Symbol    string
	Side      Side
	Size      float64
	Price     *float64
	Timestamp time.Time
}

// Engine detects MACD/signal-line crossovers. It retains the previous
// MACD/signal pair so each evaluation can compare against it.
type Engine struct {
	macd, sig         *float64
	prevMACD, prevSig *float64
}

// NewEngine creates a SignalEngine with no transition memory.
func NewEngine() *Engine {
	return &Engine{}
}

// Observe records the latest indicator values, shifting the current pair into
// the previous slot. Nil values mean the indicator is not yet defined.
func (e *Engine) Observe(macd, sig *float64) {
	e.prevMACD, e.prevSig = e.macd, e.sig
	e.macd, e.sig = copyPtr(macd), copyPtr(sig)
}

// Evaluate returns a BUY signal on a cross-up and a SELL signal on a
// cross-down of the MACD line through its signal line. confirm is the latest
// slower-timeframe bar and trigger the latest faster-timeframe bar; both must
// have been observed. The signal carries the trigger bar's symbol and time.
func (e *Engine) Evaluate(confirm, trigger *market.Bar) (Signal, bool) {
	if e.macd == nil || e.sig == nil || e.prevMACD == nil || e.prevSig == nil {
		return Signal{}, false
	}
	if confirm == nil || trigger == nil {
		return Signal{}, false
	}

	side := Crossover(*e.prevMACD, *e.prevSig, *e.macd, *e.sig)
	if side == Hold {
		return Signal{}, false
	}
	return Signal{
		Symbol:    trigger.Symbol,
		Side:      side,
		Size:      0,
		Price:     nil,
		Timestamp: trigger.Timestamp,
	}, true
}

// Crossover classifies a transition between two MACD/signal pairs.
func Crossover(prevMACD, prevSig, macd, sig float64) Side {
	switch {
	case prevMACD <= prevSig && macd > sig:
		return Buy
	case prevMACD >= prevSig && macd < sig:
		return Sell
	default:
		return Hold
	}
}

func copyPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
