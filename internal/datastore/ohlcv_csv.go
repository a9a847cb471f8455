package datastore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

// UnknownSymbol is used for rows without a symbol column.
const UnknownSymbol = "UNK"

var requiredOHLCVColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

// timestampLayouts are tried in order before falling back to epoch milliseconds.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05-07:00",
}

// LoadOHLCVCSV reads 1-minute bars from a CSV file with a header row.
// Required columns are timestamp, open, high, low, close and volume; symbol
// and timeframe are optional and default to "UNK". Column order is free.
func LoadOHLCVCSV(path string) ([]market.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ohlcv csv: %w", err)
	}
	defer f.Close()

	bars, err := ReadOHLCV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Infof("Loaded %d bars from %s", len(bars), path)
	return bars, nil
}

// ReadOHLCV decodes OHLCV rows from r. See LoadOHLCVCSV for the format.
func ReadOHLCV(r io.Reader) ([]market.Bar, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := indexColumns(header)
	for _, name := range requiredOHLCVColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var bars []market.Bar
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bar, err := decodeOHLCVRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func decodeOHLCVRow(rec []string, cols map[string]int) (market.Bar, error) {
	ts, err := ParseTimestamp(field(rec, cols, "timestamp"))
	if err != nil {
		return market.Bar{}, err
	}
	var vals [5]float64
	for i, name := range requiredOHLCVColumns[1:] {
		v, err := strconv.ParseFloat(field(rec, cols, name), 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("invalid %s: %w", name, err)
		}
		vals[i] = v
	}

	bar := market.Bar{
		Timestamp: ts,
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
		Symbol:    UnknownSymbol,
		Timeframe: market.TFUnknown,
	}
	if s := field(rec, cols, "symbol"); s != "" {
		bar.Symbol = s
	}
	if s := field(rec, cols, "timeframe"); s != "" {
		bar.Timeframe = market.Timeframe(s)
	}
	return bar, nil
}

// ParseTimestamp accepts RFC3339, "2006-01-02 15:04:05" (UTC) or epoch
// milliseconds.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return cols
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
