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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/mtf-macd-bot/internal/market"
)

const float64EqualityThreshold = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= float64EqualityThreshold
}

func TestEMA_Update(t *testing.T) {
	tests := []struct {
		name     string
		period   int
		prices   []float64
		expected []float64
	}{
		{
			name:   "Seeded by first value",
			period: 3, // alpha = 0.5
			prices: []float64{1, 2, 3, 4},
			// 1 | 0.5*2+0.5*1=1.5 | 0.5*3+0.5*1.5=2.25 | 0.5*4+0.5*2.25=3.125
			expected: []float64{1, 1.5, 2.25, 3.125},
		},
		{
			name:     "Stable price",
			period:   15,
			prices:   []float64{100, 100, 100},
			expected: []float64{100, 100, 100},
		},
		{
			name:   "Period one tracks price",
			period: 1,
			prices: []float64{5, 7, 3},
			// alpha = 1
			expected: []float64{5, 7, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ema := NewEMA(tt.period)
			_, ok := ema.Value()
			assert.False(t, ok)
			for i, p := range tt.prices {
				got := ema.Update(p)
				if !almostEqual(got, tt.expected[i]) {
					t.Errorf("step %d: expected %.10f, got %.10f", i, tt.expected[i], got)
				}
			}
			v, ok := ema.Value()
			assert.True(t, ok)
			assert.Equal(t, tt.expected[len(tt.expected)-1], v)
		})
	}
}

func TestEMA_MatchesRecurrenceBitForBit(t *testing.T) {
	prices := []float64{2001.5, 1999.25, 2003.75, 2010, 2008.5, 1995.125, 2000}
	ema := NewEMA(15)
	alpha := 2.0 / 16.0

	want := prices[0]
	for i, p := range prices {
		if i > 0 {
			want = alpha*p + (1-alpha)*want
		}
		assert.Equal(t, want, ema.Update(p), "step %d", i)
	}
	assert.Equal(t, alpha, ema.Alpha())
}

func TestEMA_WeightsSumToOne(t *testing.T) {
	// An EMA is a weighted average of its inputs, so a series that is a
	// constant c everywhere must produce exactly c.
	ema := NewEMA(60)
	for i := 0; i < 500; i++ {
		ema.Update(42)
	}
	v, _ := ema.Value()
	assert.True(t, almostEqual(42, v))
}

func bar(ts time.Time, h, l, c float64) market.Bar {
	return market.Bar{Timestamp: ts, Open: c, High: h, Low: l, Close: c, Symbol: "ETHUSDT", Timeframe: market.TF15m}
}

func TestAverageTrueRange(t *testing.T) {
	t0 := time.Date(2025, 12, 29, 16, 0, 0, 0, time.UTC)
	bars := []market.Bar{
		bar(t0, 10, 8, 9),
		bar(t0.Add(time.Minute), 12, 9, 11),
		bar(t0.Add(2*time.Minute), 11, 7, 8),
	}

	// TR: 2 (no prev close) | max(3, 3, 0)=3 | max(4, 0, 4)=4
	atr, ok := AverageTrueRange(bars, 3)
	require.True(t, ok)
	assert.True(t, almostEqual(3, atr))

	atr, ok = AverageTrueRange(bars, 2)
	require.True(t, ok)
	assert.True(t, almostEqual(3.5, atr))

	_, ok = AverageTrueRange(bars, 4)
	assert.False(t, ok)
	_, ok = AverageTrueRange(bars, 0)
	assert.False(t, ok)
}

func TestTrueRange_GapAboveRange(t *testing.T) {
	b := bar(time.Time{}, 105, 103, 104)
	assert.Equal(t, 2.0, TrueRange(b, 0, false))
	assert.Equal(t, 5.0, TrueRange(b, 100, true))
}

func TestState_AbsentUntilEnoughHistory(t *testing.T) {
	cfg := Config{FastPeriod: 2, SlowPeriod: 3, SignalPeriod: 2, ATRPeriod: 2}
	s := NewState(cfg)
	t0 := time.Date(2025, 12, 29, 16, 0, 0, 0, time.UTC)

	s.Update(bar(t0, 10, 8, 9))
	s.Update(bar(t0.Add(time.Minute), 12, 9, 11))
	_, ok := s.MACD()
	assert.False(t, ok, "MACD must be absent before slow period observations")
	_, ok = s.ATR()
	assert.False(t, ok, "ATR must be absent before MACD is defined")
	assert.Equal(t, Snapshot{}, s.Snapshot())

	s.Update(bar(t0.Add(2*time.Minute), 11, 7, 8))
	macd, ok := s.MACD()
	require.True(t, ok)
	sig, ok := s.Signal()
	require.True(t, ok)
	atr, ok := s.ATR()
	require.True(t, ok)
	assert.True(t, almostEqual(3.5, atr))

	// Independent recurrence over the same closes.
	fast, slow, signal := NewEMA(2), NewEMA(3), NewEMA(2)
	var wantMACD, wantSig float64
	for _, c := range []float64{9, 11, 8} {
		wantMACD = fast.Update(c) - slow.Update(c)
		wantSig = signal.Update(wantMACD)
	}
	assert.Equal(t, wantMACD, macd)
	assert.Equal(t, wantSig, sig)

	snap := s.Snapshot()
	require.NotNil(t, snap.MACD)
	require.NotNil(t, snap.Signal)
	require.NotNil(t, snap.ATR)
	assert.Equal(t, macd, *snap.MACD)
}

func TestState_ATRPeriodLongerThanSlow(t *testing.T) {
	cfg := Config{FastPeriod: 2, SlowPeriod: 2, SignalPeriod: 2, ATRPeriod: 4}
	s := NewState(cfg)
	t0 := time.Date(2025, 12, 29, 16, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Update(bar(t0.Add(time.Duration(i)*time.Minute), 10, 8, 9))
	}
	_, ok := s.MACD()
	assert.True(t, ok)
	_, ok = s.ATR()
	assert.False(t, ok)

	s.Update(bar(t0.Add(3*time.Minute), 10, 8, 9))
	atr, ok := s.ATR()
	require.True(t, ok)
	assert.True(t, almostEqual(2, atr))
}

func TestState_BoundedHistory(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 200, cfg.HistoryCapacity())
	assert.Equal(t, 300, Config{SlowPeriod: 100}.HistoryCapacity())

	s := NewState(cfg)
	t0 := time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		s.Update(bar(t0.Add(time.Duration(i)*time.Minute), 101, 99, 100))
	}
	assert.Equal(t, 250, s.Count())
	hist := s.History(1000)
	assert.Len(t, hist, 200)
	assert.True(t, t0.Add(50*time.Minute).Equal(hist[0].Timestamp))
}
