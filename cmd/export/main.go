// Command export writes the orders stored in TimescaleDB as a ledger CSV.
package main

import (
	"context"
	"flag"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/mtf-macd-bot/internal/config"
	"github.com/your-org/mtf-macd-bot/internal/csvwriter"
	"github.com/your-org/mtf-macd-bot/internal/datastore"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

func main() {
	// --- Argument Parsing ---
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	sessionID := flag.String("session", "", "Session to export (all sessions when empty)")
	out := flag.String("out", "data/exported_trades.csv", "Output CSV path")
	flag.Parse()

	// --- Config and Logger Setup ---
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration to get DB settings: %v", err)
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)

	// --- Database Connection ---
	ctx := context.Background()
	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		logger.Fatalf("Unable to connect to database: %v", err)
	}
	defer dbpool.Close()

	logger.Infof("Successfully connected to the database. Exporting orders of session %q...", *sessionID)

	records, err := datastore.NewRepository(dbpool).FetchOrders(ctx, *sessionID)
	if err != nil {
		logger.Fatalf("Failed to query orders: %v", err)
	}
	if err := csvwriter.WriteLedger(*out, records, logger.Zap()); err != nil {
		logger.Fatalf("Failed to write %s: %v", *out, err)
	}
	logger.Infof("Successfully exported %d rows to %s.", len(records), *out)
}
