// Package main is the entry point of the multi-timeframe MACD bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/your-org/mtf-macd-bot/internal/alert"
	"github.com/your-org/mtf-macd-bot/internal/config"
	"github.com/your-org/mtf-macd-bot/internal/csvwriter"
	"github.com/your-org/mtf-macd-bot/internal/datastore"
	"github.com/your-org/mtf-macd-bot/internal/dbwriter"
	"github.com/your-org/mtf-macd-bot/internal/engine"
	"github.com/your-org/mtf-macd-bot/internal/exchange/binance"
	"github.com/your-org/mtf-macd-bot/internal/http/handler"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/metrics"
	"github.com/your-org/mtf-macd-bot/internal/position"
	"github.com/your-org/mtf-macd-bot/internal/strategy"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
	"github.com/your-org/mtf-macd-bot/internal/trader"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", "config/config.yaml", "Path to the configuration file")
	mode := flag.String("mode", "backtest", "Run mode: backtest or live")
	dataPath := flag.String("data", "", "1m OHLCV CSV for backtests (overrides backtest.data_path)")
	startStr := flag.String("start", "", "Backtest window start (YYYY-MM-DD or RFC3339)")
	endStr := flag.String("end", "", "Backtest window end (YYYY-MM-DD or RFC3339)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	logger.SetGlobalLogLevel(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logger.Infof("MTF MACD bot starting in %s mode", *mode)
	logger.Infof("Loaded configuration from: %s", *configPath)
	logger.Infof("Target symbol: %s, strategy: %s", cfg.Symbol, cfg.Strategy)

	// --- Graceful Shutdown Setup ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- TimescaleDB Writer (Optional) ---
	writer, repo, closeDB := openDatabase(ctx, cfg)
	defer closeDB()

	m := metrics.New()
	strat, err := strategy.Build(cfg.Strategy, cfg.StrategyConfig())
	if err != nil {
		logger.Fatalf("Invalid strategy: %v", err)
	}
	pos := position.New(cfg.Symbol)
	ledger := tracker.New()

	deps := trader.Deps{
		Tracker:  ledger,
		Position: pos,
		Metrics:  m,
		Writer:   writer,
		Logger:   logger.Zap(),
	}

	switch *mode {
	case "backtest":
		start, end, err := parseWindow(*startStr, *endStr)
		if err != nil {
			logger.Fatalf("Invalid backtest window: %v", err)
		}
		if *dataPath != "" {
			cfg.Backtest.Source = "csv"
			cfg.Backtest.DataPath = *dataPath
		}
		if err := runBacktest(ctx, cfg, strat, deps, start, end); err != nil {
			logger.Fatalf("Backtest failed: %v", err)
		}
	case "live":
		srv := startHTTPServer(cfg, handler.NewPnlHandler(string(trader.ModeLive), ledger, repo), m.Handler())
		err := runLive(ctx, cfg, strat, deps)
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(shutdownCtx)
			cancel()
		}
		if err != nil {
			logger.Fatalf("Live trading stopped with error: %v", err)
		}
	default:
		logger.Fatalf("Unknown mode %q (want backtest or live)", *mode)
	}
	logger.Info("MTF MACD bot shut down gracefully.")
}

// openDatabase returns the order writer and the summary store. Without a
// database both fall back to no-op implementations.
func openDatabase(ctx context.Context, cfg *config.Config) (dbwriter.Repository, handler.SummaryStore, func()) {
	if !cfg.DB.Enabled {
		return dbwriter.NewDummyWriter(logger.New(logger.Zap())), nil, func() {}
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL())
	if err != nil {
		logger.Fatalf("Unable to connect to database: %v", err)
	}
	w, err := dbwriter.NewTimescaleWriter(pool, cfg.DB.Writer, logger.Zap().Named("dbwriter"))
	if err != nil {
		pool.Close()
		logger.Fatalf("Failed to initialize TimescaleDB writer: %v", err)
	}
	logger.Info("TimescaleDB writer initialized successfully.")
	return w, datastore.NewRepository(pool), w.Close
}

func runBacktest(ctx context.Context, cfg *config.Config, strat strategy.Strategy, deps trader.Deps, start, end time.Time) error {
	bars, err := loadBars(ctx, cfg, start, end)
	if err != nil {
		return err
	}
	bt, err := trader.NewBacktest(strat, trader.BacktestOptions{
		Cash:   cfg.Backtest.Cash,
		Symbol: cfg.Symbol,
		Deps:   deps,
	})
	if err != nil {
		return err
	}
	orders, err := bt.Run(ctx, bars, start, end)
	if err != nil {
		return err
	}
	if err := csvwriter.WriteLedger(cfg.Backtest.OutputPath, orders, logger.Zap()); err != nil {
		return fmt.Errorf("write backtest ledger: %w", err)
	}
	logger.Infof("Backtest ledger (%d orders) written to %s", len(orders), cfg.Backtest.OutputPath)
	return nil
}

func loadBars(ctx context.Context, cfg *config.Config, start, end time.Time) ([]market.Bar, error) {
	if cfg.Backtest.Source != "clickhouse" {
		return datastore.LoadOHLCVCSV(cfg.Backtest.DataPath)
	}
	if start.IsZero() || end.IsZero() {
		return nil, errors.New("clickhouse source requires --start and --end")
	}
	ch := cfg.ClickHouse
	conn, err := datastore.OpenClickHouse(ctx, datastore.ClickHouseOptions{
		Addr:     ch.Addr,
		Database: ch.Database,
		Username: ch.Username,
		Password: ch.Password,
		Table:    ch.Table,
	})
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return datastore.NewClickHouseBarSource(conn, ch.Database, ch.Table).Load(ctx, cfg.Symbol, start, end)
}

func runLive(ctx context.Context, cfg *config.Config, strat strategy.Strategy, deps trader.Deps) error {
	client := binance.NewClient(cfg.APIKey, cfg.APISecret, cfg.BaseURL)

	var exec engine.ExecutionEngine
	if cfg.Live.DryRun {
		logger.Warn("Dry run enabled: orders are simulated")
		exec = engine.NewSimulatedExecutionEngine("sim")
	} else {
		exec = engine.NewLiveExecutionEngine(client)
	}
	deps.Engine = engine.NewRetryingEngine(exec, cfg.Live.OrderRetries, cfg.Live.RetryBackoff)

	var source trader.BarSource = client
	if cfg.Live.UseStream {
		stream := binance.NewKlineStream(cfg.Live.StreamURL, cfg.Symbol, 2, market.TF1h, market.TF15m)
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Kline stream exited: %v", err)
			}
		}()
		source = &streamSource{stream: stream, rest: client}
	}

	live := trader.NewLive(trader.LiveOptions{
		Symbol:         cfg.Symbol,
		PollInterval:   cfg.Live.PollInterval,
		PrefillHistory: bool(cfg.Live.PrefillHistory),
		History1h:      cfg.Live.History1h,
		History15m:     cfg.Live.History15m,
	}, deps, source, client, trader.SystemClock(),
		trader.CSVLedger{Path: cfg.Live.OutputPath, Logger: logger.Zap()},
		alert.NewLogNotifier(logger.Zap(), 5*time.Minute))
	return live.Run(ctx)
}

// streamSource serves polls from the websocket cache and falls back to REST
// when the cache holds fewer bars than requested, as during prefill.
type streamSource struct {
	stream *binance.KlineStream
	rest   trader.BarSource
}

func (s *streamSource) Klines(ctx context.Context, symbol string, tf market.Timeframe, limit int) ([]market.Bar, error) {
	bars, err := s.stream.Klines(ctx, symbol, tf, limit)
	if err == nil && len(bars) >= limit {
		return bars, nil
	}
	return s.rest.Klines(ctx, symbol, tf, limit)
}

func startHTTPServer(cfg *config.Config, pnl *handler.PnlHandler, metricsHandler http.Handler) *http.Server {
	if !cfg.HTTP.Enabled {
		return nil
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.NewRouter(pnl, metricsHandler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("HTTP server starting on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server failed: %v", err)
		}
	}()
	return srv
}

func parseWindow(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if startStr != "" {
		if start, err = parseBound(startStr); err != nil {
			return start, end, fmt.Errorf("--start: %w", err)
		}
	}
	if endStr != "" {
		if end, err = parseBound(endStr); err != nil {
			return start, end, fmt.Errorf("--end: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, errors.New("--end is before --start")
	}
	return start, end, nil
}

func parseBound(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return datastore.ParseTimestamp(s)
}
