// Command download saves historical klines from the exchange as an OHLCV CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/config"
	"github.com/your-org/mtf-macd-bot/internal/csvwriter"
	"github.com/your-org/mtf-macd-bot/internal/datastore"
	"github.com/your-org/mtf-macd-bot/internal/exchange/binance"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

// pageSize is the kline limit accepted per request.
const pageSize = 1000

type klineFetcher interface {
	GetKlines(ctx context.Context, q binance.KlineQuery) ([]market.Bar, error)
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	symbol := flag.String("symbol", "", "Symbol to download (defaults to the configured symbol)")
	interval := flag.String("interval", "1m", "Kline interval: 1m, 15m or 1h")
	startStr := flag.String("start", "", "Start time (YYYY-MM-DD HH:MM:SS)")
	endStr := flag.String("end", "", "End time (YYYY-MM-DD HH:MM:SS)")
	out := flag.String("out", "data/eth_1m.csv", "Output CSV path")
	flag.Parse()

	if *startStr == "" || *endStr == "" {
		logger.Fatal("Both --start and --end flags are required.")
	}
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)

	start, err := datastore.ParseTimestamp(*startStr)
	if err != nil {
		logger.Fatalf("Invalid --start: %v", err)
	}
	end, err := datastore.ParseTimestamp(*endStr)
	if err != nil {
		logger.Fatalf("Invalid --end: %v", err)
	}
	tf, err := market.ParseTimeframe(*interval)
	if err != nil {
		logger.Fatalf("Invalid --interval: %v", err)
	}
	if *symbol == "" {
		*symbol = cfg.Symbol
	}

	client := binance.NewClient(cfg.APIKey, cfg.APISecret, cfg.BaseURL)
	logger.Infof("Getting %s data for %s from %s to %s...", tf, *symbol, start, end)
	bars, err := fetchRange(context.Background(), client, *symbol, tf, start, end)
	if err != nil {
		logger.Fatalf("Download failed: %v", err)
	}
	if err := csvwriter.WriteOHLCV(*out, bars, logger.Zap()); err != nil {
		logger.Fatalf("Failed to write %s: %v", *out, err)
	}
	logger.Infof("Saved %d bars to %s", len(bars), *out)
}

// fetchRange pages through [start, end] and returns the bars inside it,
// oldest first.
func fetchRange(ctx context.Context, c klineFetcher, symbol string, tf market.Timeframe, start, end time.Time) ([]market.Bar, error) {
	step, ok := tf.Minutes()
	if !ok {
		return nil, fmt.Errorf("unsupported interval %q", tf)
	}
	var out []market.Bar
	cursor := start
	for !cursor.After(end) {
		page, err := c.GetKlines(ctx, binance.KlineQuery{
			Symbol: symbol, Interval: tf, Start: cursor, End: end, Limit: pageSize,
		})
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			if !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
				out = append(out, b)
			}
		}
		if len(page) < pageSize {
			break
		}
		next := page[len(page)-1].Timestamp.Add(time.Duration(step) * time.Minute)
		if !next.After(cursor) {
			break
		}
		cursor = next
	}
	return out, nil
}
