// Package aggregator folds 1-minute bars into clock-aligned higher-timeframe bars.
package aggregator

import (
	"math"
	"sort"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/pkg/ring"
)

// DefaultHistory is one trading day of 1-minute bars.
const DefaultHistory = 24 * 60

// IntervalStart returns the start of the tf interval containing now.
// The start is aligned to midnight of now's own calendar date, so it never
// crosses into the previous day.
func IntervalStart(now time.Time, tf market.Timeframe) (time.Time, bool) {
	interval, ok := tf.Minutes()
	if !ok {
		return time.Time{}, false
	}
	minutesSinceMidnight := now.Hour()*60 + now.Minute()
	startMinutes := (minutesSinceMidnight / interval) * interval
	y, m, d := now.Date()
	return time.Date(y, m, d, startMinutes/60, startMinutes%60, 0, 0, now.Location()), true
}

// Aggregate builds the tf bar covering [interval start, now] from bars, which
// must be ordered by timestamp. The returned bar is stamped with the interval
// start. If no bar falls in the window, ok is false.
func Aggregate(bars []market.Bar, now time.Time, tf market.Timeframe) (market.Bar, bool) {
	start, ok := IntervalStart(now, tf)
	if !ok {
		return market.Bar{}, false
	}

	lo := sort.Search(len(bars), func(i int) bool { return !bars[i].Timestamp.Before(start) })
	hi := sort.Search(len(bars), func(i int) bool { return bars[i].Timestamp.After(now) })
	if lo >= hi {
		return market.Bar{}, false
	}
	return fold(bars[lo:hi], start, tf), true
}

func fold(window []market.Bar, start time.Time, tf market.Timeframe) market.Bar {
	out := market.Bar{
		Timestamp: start,
		Open:      window[0].Open,
		High:      math.Inf(-1),
		Low:       math.Inf(1),
		Close:     window[len(window)-1].Close,
		Symbol:    window[0].Symbol,
		Timeframe: tf,
	}
	for _, b := range window {
		out.High = math.Max(out.High, b.High)
		out.Low = math.Min(out.Low, b.Low)
		out.Volume += b.Volume
	}
	return out
}

// Aggregator keeps a bounded feed of 1-minute bars and aggregates on demand.
type Aggregator struct {
	history *ring.Buffer[market.Bar]
}

// New creates an Aggregator retaining up to capacity 1-minute bars.
// A non-positive capacity uses DefaultHistory.
func New(capacity int) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &Aggregator{history: ring.New[market.Bar](capacity)}
}

// Add appends a 1-minute bar. Bars must arrive in non-decreasing timestamp order.
func (a *Aggregator) Add(bar market.Bar) {
	a.history.Add(bar)
}

// Len returns the number of retained 1-minute bars.
func (a *Aggregator) Len() int {
	return a.history.Len()
}

// At returns the tf bar for the interval containing now over the retained history.
func (a *Aggregator) At(now time.Time, tf market.Timeframe) (market.Bar, bool) {
	start, ok := IntervalStart(now, tf)
	if !ok {
		return market.Bar{}, false
	}

	// Walk back from the newest bar; the window is a suffix of the history
	// once bars newer than now are skipped.
	hi := a.history.Len()
	for hi > 0 && a.history.At(hi-1).Timestamp.After(now) {
		hi--
	}
	lo := hi
	for lo > 0 && !a.history.At(lo-1).Timestamp.Before(start) {
		lo--
	}
	if lo >= hi {
		return market.Bar{}, false
	}

	window := make([]market.Bar, 0, hi-lo)
	for i := lo; i < hi; i++ {
		window = append(window, a.history.At(i))
	}
	return fold(window, start, tf), true
}
