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

	"github.com/your-org/mtf-macd-bot/internal/market"
)

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
// Without a previous close only high-low is used.
func TrueRange(bar market.Bar, prevClose float64, hasPrev bool) float64 {
	tr := bar.High - bar.Low
	if !hasPrev {
		return tr
	}
	return math.Max(tr, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

// AverageTrueRange returns the simple mean of the true range over the last
// period bars of a chronological series. The bar preceding the window, if
// present, supplies the previous close of the first bar in the window.
// It returns false when fewer than period bars are given.
func AverageTrueRange(bars []market.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period {
		return 0, false
	}
	start := len(bars) - period
	sum := 0.0
	for i := start; i < len(bars); i++ {
		if i == 0 {
			sum += TrueRange(bars[i], 0, false)
			continue
		}
		sum += TrueRange(bars[i], bars[i-1].Close, true)
	}
	return sum / float64(period), true
}
