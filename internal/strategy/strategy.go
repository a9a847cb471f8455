// Package strategy turns a bar stream into sized trading signals.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/mtf-macd-bot/internal/indicator"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/internal/sizing"
)

// Strategy is the contract between the trading pipeline and signal logic.
type Strategy interface {
	Name() string
	OnBar(bar market.Bar)
	GenerateSignals() []signal.Signal
	PositionSize(sig signal.Signal, account order.Account) float64
	OnOrderFilled(o order.Order)
}

// HistoryLoader is implemented by strategies that can be warmed up from past
// bars before live trading starts.
type HistoryLoader interface {
	InitializeWithHistory(bars1h, bars15m []market.Bar)
}

// Config collects the knobs of every strategy variant.
type Config struct {
	Indicator indicator.Config `yaml:"indicator"`
	Sizing    sizing.Params    `yaml:"sizing"`
	Demo      DemoParams       `yaml:"demo"`
}

// DefaultConfig returns the default MACD and sizing parameters.
func DefaultConfig() Config {
	return Config{
		Indicator: indicator.DefaultConfig(),
		Sizing:    sizing.DefaultParams(),
		Demo:      DefaultDemoParams(),
	}
}

// ErrUnknownStrategy is returned by Build for names it does not recognise.
var ErrUnknownStrategy = errors.New("unknown strategy")

type kind int

const (
	kindUnknown kind = iota
	kindMultiTF
	kindDemo
)

func lookup(name string) kind {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "random", "random_demo", "demo":
		return kindDemo
	case "", "multi_tf", "macd", "multi_tf_macd":
		return kindMultiTF
	}
	return kindUnknown
}

// Known reports whether Build accepts name.
func Known(name string) bool { return lookup(name) != kindUnknown }

// Build returns the strategy implementation matching name. An empty name
// selects the multi-timeframe MACD strategy.
func Build(name string, cfg Config) (Strategy, error) {
	switch lookup(name) {
	case kindDemo:
		return NewRandomDemo(cfg.Demo), nil
	case kindMultiTF:
		return NewMultiTF(cfg.Indicator, cfg.Sizing), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
