// Command migrate applies or reverts the TimescaleDB schema.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/your-org/mtf-macd-bot/db/schema"
	"github.com/your-org/mtf-macd-bot/internal/config"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	steps := flag.Int("steps", 1, "Number of migrations to revert with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up|down|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetGlobalLogLevel(cfg.LogLevel)

	m, err := schema.NewMigrator(cfg.DatabaseURL())
	if err != nil {
		logger.Fatalf("Failed to open migrator: %v", err)
	}
	defer m.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down(*steps)
	case "version":
	default:
		logger.Fatalf("Unknown command %q", cmd)
	}
	if err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.Fatalf("Failed to read schema version: %v", err)
	}
	logger.Infof("Schema version %d (dirty=%t)", version, dirty)
}
