// Package market defines the price bar types shared by the strategy engine.
package market

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Timeframe is a bar aggregation interval.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	// TFUnknown marks bars loaded from feeds that carry no timeframe column.
	TFUnknown Timeframe = "UNK"
)

// Minutes returns the length of the timeframe in minutes.
func (tf Timeframe) Minutes() (int, bool) {
	switch tf {
	case TF1m:
		return 1, true
	case TF15m:
		return 15, true
	case TF1h:
		return 60, true
	default:
		return 0, false
	}
}

// String returns the timeframe label.
func (tf Timeframe) String() string {
	return string(tf)
}

// ParseTimeframe parses labels such as "15m" or "1h".
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tf.Minutes(); !ok {
		return TFUnknown, fmt.Errorf("unsupported timeframe %q", s)
	}
	return tf, nil
}

// Bar is one OHLCV observation. Bars are values and never modified once built.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Symbol    string
	Timeframe Timeframe
}

// Valid reports whether the high/low envelope contains open and close.
func (b Bar) Valid() bool {
	return b.High >= math.Max(b.Open, b.Close) && b.Low <= math.Min(b.Open, b.Close)
}

// String returns a compact representation of the bar.
func (b Bar) String() string {
	return fmt.Sprintf("Bar{%s %s %s O=%.4f H=%.4f L=%.4f C=%.4f V=%.4f}",
		b.Symbol, b.Timeframe, b.Timestamp.Format(time.RFC3339), b.Open, b.High, b.Low, b.Close, b.Volume)
}
