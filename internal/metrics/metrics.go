// Package metrics exposes Prometheus instruments for the trading loop.
//
//   - mtfmacd_bars_total{timeframe}      bars fed to the strategy
//   - mtfmacd_signals_total{side}        non-HOLD signals generated
//   - mtfmacd_orders_total{mode,side}    orders filled (mode: backtest|live)
//   - mtfmacd_order_errors_total{mode}   placement failures
//   - mtfmacd_balance                    quote balance after the last fill
//   - mtfmacd_position_size              net position of the traded symbol
//   - mtfmacd_realized_pnl               cumulative realized PnL
//   - mtfmacd_unrealized_pnl             open position marked to the last bar close
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the instruments of one process. Each instance has its own
// registry so tests do not collide.
type Metrics struct {
	registry *prometheus.Registry

	Bars         *prometheus.CounterVec
	Signals      *prometheus.CounterVec
	Orders       *prometheus.CounterVec
	OrderErrors  *prometheus.CounterVec
	Balance      prometheus.Gauge
	PositionSize prometheus.Gauge
	RealizedPnL  prometheus.Gauge
	Unrealized   prometheus.Gauge
}

// New creates and registers the instruments.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Bars: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfmacd_bars_total",
			Help: "Aggregated bars fed to the strategy",
		}, []string{"timeframe"}),
		Signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfmacd_signals_total",
			Help: "Actionable signals generated",
		}, []string{"side"}),
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfmacd_orders_total",
			Help: "Orders filled",
		}, []string{"mode", "side"}),
		OrderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mtfmacd_order_errors_total",
			Help: "Order placement failures",
		}, []string{"mode"}),
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtfmacd_balance",
			Help: "Quote balance after the last fill",
		}),
		PositionSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtfmacd_position_size",
			Help: "Net position of the traded symbol",
		}),
		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtfmacd_realized_pnl",
			Help: "Cumulative realized PnL",
		}),
		Unrealized: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mtfmacd_unrealized_pnl",
			Help: "Open position marked to the last bar close",
		}),
	}
	m.registry.MustRegister(m.Bars, m.Signals, m.Orders, m.OrderErrors, m.Balance, m.PositionSize, m.RealizedPnL, m.Unrealized)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
