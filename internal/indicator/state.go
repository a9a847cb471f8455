// Copyright (c) 2024 MTF-MACD-Bot
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package indicator

import (
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/pkg/ring"
)

// Config holds the indicator periods.
type Config struct {
	FastPeriod   int `yaml:"ema_fast_period"`
	SlowPeriod   int `yaml:"ema_slow_period"`
	SignalPeriod int `yaml:"signal_period"`
	ATRPeriod    int `yaml:"atr_period"`
}

// DefaultConfig returns 15/60 EMAs with a 3-period signal line and a 10-period ATR.
func DefaultConfig() Config {
	return Config{
		FastPeriod:   15,
		SlowPeriod:   60,
		SignalPeriod: 3,
		ATRPeriod:    10,
	}
}

// HistoryCapacity is the number of bars retained: max(3*slow, 200).
func (c Config) HistoryCapacity() int {
	if n := 3 * c.SlowPeriod; n > 200 {
		return n
	}
	return 200
}

// Snapshot is a read-only view of the indicator values. Nil means the value
// is not yet defined.
type Snapshot struct {
	MACD   *float64
	Signal *float64
	ATR    *float64
}

// State computes MACD, its signal line and ATR incrementally as bars arrive.
type State struct {
	cfg     Config
	history *ring.Buffer[market.Bar]
	fast    *EMA
	slow    *EMA
	signal  *EMA
	count   int

	macd      float64
	macdSig   float64
	macdReady bool
	atr       float64
	atrReady  bool
}

// NewState creates an empty indicator state.
func NewState(cfg Config) *State {
	return &State{
		cfg:     cfg,
		history: ring.New[market.Bar](cfg.HistoryCapacity()),
		fast:    NewEMA(cfg.FastPeriod),
		slow:    NewEMA(cfg.SlowPeriod),
		signal:  NewEMA(cfg.SignalPeriod),
	}
}

// Update appends bar to the series and recomputes the indicators.
// Bars must be delivered in order; the EMA recurrence is order-sensitive.
func (s *State) Update(bar market.Bar) {
	s.history.Add(bar)
	s.count++

	fast := s.fast.Update(bar.Close)
	slow := s.slow.Update(bar.Close)
	line := fast - slow
	sig := s.signal.Update(line)

	if s.count < s.cfg.SlowPeriod {
		return
	}
	s.macd = line
	s.macdSig = sig
	s.macdReady = true

	if s.count >= s.cfg.ATRPeriod {
		s.atr, s.atrReady = AverageTrueRange(s.history.Last(s.cfg.ATRPeriod+1), s.cfg.ATRPeriod)
	}
}

// MACD returns the MACD line.
func (s *State) MACD() (float64, bool) {
	return s.macd, s.macdReady
}

// Signal returns the signal line of the MACD.
func (s *State) Signal() (float64, bool) {
	return s.macdSig, s.macdReady
}

// ATR returns the average true range.
func (s *State) ATR() (float64, bool) {
	return s.atr, s.atrReady
}

// Snapshot returns the current values.
func (s *State) Snapshot() Snapshot {
	var snap Snapshot
	if s.macdReady {
		m, sig := s.macd, s.macdSig
		snap.MACD, snap.Signal = &m, &sig
	}
	if s.atrReady {
		a := s.atr
		snap.ATR = &a
	}
	return snap
}

// Count returns the number of bars observed since creation.
func (s *State) Count() int {
	return s.count
}

// History returns the n most recent retained bars, oldest first.
func (s *State) History(n int) []market.Bar {
	return s.history.Last(n)
}

// Config returns the configured periods.
func (s *State) Config() Config {
	return s.cfg
}
