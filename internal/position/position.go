// Package position tracks the net average-cost position of one symbol.
package position

import (
	"fmt"
	"math"
	"sync"

	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// Position holds the signed size and average entry price of a symbol.
// Long positions have a positive size.
type Position struct {
	symbol        string
	size          float64
	avgEntryPrice float64
	realized      float64
	mutex         sync.RWMutex
}

// New creates a flat position for symbol.
func New(symbol string) *Position {
	return &Position{symbol: symbol}
}

// Apply folds a ledger record into the position and returns the PnL it
// realized. Records of another symbol or with an unknown side are ignored.
func (p *Position) Apply(r tracker.Record) (float64, bool) {
	if r.Symbol != p.symbol || r.Size <= 0 {
		return 0, false
	}
	switch r.Side {
	case "BUY":
		return p.Update(r.Size, r.Price), true
	case "SELL":
		return p.Update(-r.Size, r.Price), true
	default:
		return 0, false
	}
}

// Update applies a signed trade and returns the realized PnL.
func (p *Position) Update(tradeSize, tradePrice float64) float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.size == 0 {
		p.size = tradeSize
		p.avgEntryPrice = tradePrice
		return 0
	}

	// Same direction: the entry price becomes the size-weighted average.
	if math.Signbit(p.size) == math.Signbit(tradeSize) {
		newSize := p.size + tradeSize
		p.avgEntryPrice = (p.size*p.avgEntryPrice + tradeSize*tradePrice) / newSize
		p.size = newSize
		return 0
	}

	closed := math.Min(math.Abs(tradeSize), math.Abs(p.size))
	realized := (tradePrice - p.avgEntryPrice) * closed
	if p.size < 0 {
		realized = -realized
	}
	p.realized += realized

	newSize := p.size + tradeSize
	switch {
	case newSize == 0:
		p.avgEntryPrice = 0
	case math.Signbit(newSize) != math.Signbit(p.size):
		// Flipped through flat: the remainder opens at the trade price.
		p.avgEntryPrice = tradePrice
	}
	p.size = newSize
	return realized
}

// Symbol returns the tracked symbol.
func (p *Position) Symbol() string { return p.symbol }

// Get returns the current size and average entry price of the position.
func (p *Position) Get() (float64, float64) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.size, p.avgEntryPrice
}

// Realized returns the cumulative realized PnL.
func (p *Position) Realized() float64 {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.realized
}

// Unrealized marks the open size to price.
func (p *Position) Unrealized(price float64) float64 {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return (price - p.avgEntryPrice) * p.size
}

// String returns a string representation of the position.
func (p *Position) String() string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return fmt.Sprintf("Position{%s Size: %.4f, AvgEntryPrice: %.2f}", p.symbol, p.size, p.avgEntryPrice)
}
