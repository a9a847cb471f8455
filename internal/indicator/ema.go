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

// Package indicator maintains incremental EMA, MACD and ATR state over a bar series.
package indicator

// EMA is an exponential moving average kept as a running scalar.
// It is seeded by the first value, with no separate warm-up window:
// ema_t = alpha*x_t + (1-alpha)*ema_{t-1}, alpha = 2/(period+1).
type EMA struct {
	alpha         float64
	value         float64
	isInitialized bool
}

// NewEMA creates an EMA for the given period. Periods below 1 are treated as 1.
func NewEMA(period int) *EMA {
	if period < 1 {
		period = 1
	}
	return &EMA{alpha: 2.0 / float64(period+1)}
}

// Update folds x into the average and returns the new value.
func (e *EMA) Update(x float64) float64 {
	if !e.isInitialized {
		e.value = x
		e.isInitialized = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current average, or false before the first update.
func (e *EMA) Value() (float64, bool) {
	return e.value, e.isInitialized
}

// Alpha returns the smoothing factor.
func (e *EMA) Alpha() float64 {
	return e.alpha
}
