// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/your-org/mtf-macd-bot/internal/indicator"
	"github.com/your-org/mtf-macd-bot/internal/sizing"
	"github.com/your-org/mtf-macd-bot/internal/strategy"
)

// Config defines the structure for all application configuration.
type Config struct {
	Symbol     string              `yaml:"symbol"`
	Strategy   string              `yaml:"strategy"`
	Indicator  indicator.Config    `yaml:"indicator"`
	Sizing     sizing.Params       `yaml:"sizing"`
	Demo       strategy.DemoParams `yaml:"demo"`
	Backtest   BacktestConf        `yaml:"backtest"`
	Live       LiveConf            `yaml:"live"`
	HTTP       HTTPConf            `yaml:"http"`
	DB         DBConf              `yaml:"db"`
	ClickHouse ClickHouseConf      `yaml:"clickhouse"`
	APIKey     string              `yaml:"-"` // Loaded from env
	APISecret  string              `yaml:"-"` // Loaded from env
	BaseURL    string              `yaml:"base_url"`
	LogLevel   string              `yaml:"log_level"`
}

// BacktestConf configures the historical replay.
type BacktestConf struct {
	// Source is "csv" or "clickhouse".
	Source     string  `yaml:"source"`
	DataPath   string  `yaml:"data_path"`
	Cash       float64 `yaml:"cash"`
	OutputPath string  `yaml:"output_path"`
}

// LiveConf configures the polling loop.
type LiveConf struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	PrefillHistory FlexBool      `yaml:"prefill_history"`
	History1h      int           `yaml:"history_1h"`
	History15m     int           `yaml:"history_15m"`
	OutputPath     string        `yaml:"output_path"`
	OrderRetries   int           `yaml:"order_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`
	UseStream      FlexBool      `yaml:"use_stream"`
	StreamURL      string        `yaml:"stream_url"`
	DryRun         FlexBool      `yaml:"dry_run"`
}

// HTTPConf configures the status server.
type HTTPConf struct {
	Enabled FlexBool `yaml:"enabled"`
	Addr    string   `yaml:"addr"`
}

// DBConf holds TimescaleDB settings. Credentials come from the environment.
type DBConf struct {
	Enabled  FlexBool     `yaml:"enabled"`
	Host     string       `yaml:"-"`
	Port     string       `yaml:"-"`
	User     string       `yaml:"-"`
	Password string       `yaml:"-"`
	Name     string       `yaml:"-"`
	SSLMode  string       `yaml:"sslmode"`
	Writer   DBWriterConf `yaml:"writer"`
}

// DBWriterConf controls how order rows are batched before insertion.
type DBWriterConf struct {
	BatchSize     int           `yaml:"batch_size"`
	WriteInterval time.Duration `yaml:"write_interval"`
}

// ClickHouseConf holds the 1m bar archive settings.
type ClickHouseConf struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`
	Table    string `yaml:"table"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Symbol:    "ETHUSDT",
		Strategy:  "multi_tf",
		Indicator: indicator.DefaultConfig(),
		Sizing:    sizing.DefaultParams(),
		Demo:      strategy.DefaultDemoParams(),
		Backtest: BacktestConf{
			Source:     "csv",
			DataPath:   "data/eth_1m.csv",
			Cash:       100000,
			OutputPath: "data/backtest_trades.csv",
		},
		Live: LiveConf{
			PollInterval:   60 * time.Second,
			PrefillHistory: true,
			History1h:      100,
			History15m:     50,
			OutputPath:     "data/live_trades.csv",
			RetryBackoff:   time.Second,
		},
		HTTP: HTTPConf{Addr: ":8080"},
		DB: DBConf{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
			Writer: DBWriterConf{
				BatchSize:     50,
				WriteInterval: 5 * time.Second,
			},
		},
		ClickHouse: ClickHouseConf{
			Addr:     "localhost:9000",
			Database: "default",
			Username: "default",
			Table:    "klines_1m",
		},
		APIKey:    "YOUR_API_KEY_HERE",
		APISecret: "YOUR_API_SECRET_HERE",
		BaseURL:   "https://testnet.binance.vision",
		LogLevel:  "info",
	}
}

// LoadConfig loads configuration from the specified YAML file path
// and environment variables. An empty path skips the file.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultEnvFile is read by LoadConfig when present.
const DefaultEnvFile = ".env"

// LoadEnvFile exports the variables of a dotenv file that are not already set
// in the environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"BINANCE_API_KEY", &cfg.APIKey},
		{"BINANCE_API_SECRET", &cfg.APISecret},
		{"BINANCE_TESTNET_URL", &cfg.BaseURL},
		{"DEFAULT_SYMBOL", &cfg.Symbol},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"DB_HOST", &cfg.DB.Host},
		{"DB_PORT", &cfg.DB.Port},
		{"DB_USER", &cfg.DB.User},
		{"DB_PASSWORD", &cfg.DB.Password},
		{"DB_NAME", &cfg.DB.Name},
		{"CLICKHOUSE_ADDR", &cfg.ClickHouse.Addr},
		{"CLICKHOUSE_DATABASE", &cfg.ClickHouse.Database},
		{"CLICKHOUSE_USER", &cfg.ClickHouse.Username},
		{"CLICKHOUSE_PASSWORD", &cfg.ClickHouse.Password},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// Validate rejects configurations the strategy cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Symbol) == "" {
		errs = append(errs, errors.New("symbol must not be empty"))
	}
	if !strategy.Known(c.Strategy) {
		errs = append(errs, fmt.Errorf("strategy %q is not one of multi_tf or random", c.Strategy))
	}
	ind := c.Indicator
	if ind.FastPeriod <= 0 || ind.SlowPeriod <= 0 || ind.SignalPeriod <= 0 || ind.ATRPeriod <= 0 {
		errs = append(errs, fmt.Errorf("indicator periods must be positive: %+v", ind))
	}
	if ind.FastPeriod >= ind.SlowPeriod {
		errs = append(errs, fmt.Errorf("ema_fast_period (%d) must be below ema_slow_period (%d)", ind.FastPeriod, ind.SlowPeriod))
	}
	s := c.Sizing
	if s.MinPositionSize > s.MaxPositionSize {
		errs = append(errs, fmt.Errorf("min_position_size %v exceeds max_position_size %v", s.MinPositionSize, s.MaxPositionSize))
	}
	if s.MinPositionValue > s.MaxPositionValue {
		errs = append(errs, fmt.Errorf("min_position_value %v exceeds max_position_value %v", s.MinPositionValue, s.MaxPositionValue))
	}
	if s.ATRMultiplier <= 0 {
		errs = append(errs, errors.New("atr_multiplier must be positive"))
	}
	if c.Live.PollInterval <= 0 {
		errs = append(errs, errors.New("live.poll_interval must be positive"))
	}
	if c.Live.OrderRetries < 0 {
		errs = append(errs, errors.New("live.order_retries must not be negative"))
	}
	switch c.Backtest.Source {
	case "csv", "clickhouse":
	default:
		errs = append(errs, fmt.Errorf("backtest.source %q must be csv or clickhouse", c.Backtest.Source))
	}
	return errors.Join(errs...)
}

// StrategyConfig returns the parameters for strategy.Build.
func (c *Config) StrategyConfig() strategy.Config {
	return strategy.Config{Indicator: c.Indicator, Sizing: c.Sizing, Demo: c.Demo}
}

// DatabaseURL returns the postgres connection string for TimescaleDB.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}
