package pnl

import (
	"math"

	"github.com/shopspring/decimal"
)

// Metrics summarizes a matched ledger.
type Metrics struct {
	Label         string              `json:"label"`
	TotalOrders   int                 `json:"total_orders"`
	ClosedTrades  int                 `json:"closed_trades"`
	RealizedPnL   decimal.Decimal     `json:"realized_pnl"`
	UnrealizedPnL decimal.Decimal     `json:"unrealized_pnl"`
	TotalPnL      decimal.Decimal     `json:"total_pnl"`
	AveragePnL    decimal.NullDecimal `json:"average_pnl"`
	LargestWin    decimal.NullDecimal `json:"largest_win"`
	LargestLoss   decimal.NullDecimal `json:"largest_loss"`
	WinningTrades int                 `json:"winning_trades"`
	LosingTrades  int                 `json:"losing_trades"`
	WinRate       float64             `json:"win_rate"`
	ProfitFactor  float64             `json:"profit_factor"`
	MaxDrawdown   decimal.Decimal     `json:"max_drawdown"`
	SharpeRatio   float64             `json:"sharpe_ratio"`
}

// Summarize derives aggregate metrics from a match result. AveragePnL,
// LargestWin and LargestLoss are invalid when there is nothing to report.
func Summarize(label string, res Result) Metrics {
	m := Metrics{
		Label:         label,
		TotalOrders:   res.TotalOrders,
		ClosedTrades:  len(res.Trades),
		UnrealizedPnL: res.Unrealized,
	}

	var totalProfit, totalLoss decimal.Decimal
	pnls := make([]float64, 0, len(res.Trades))
	peak, equity := decimal.Zero, decimal.Zero

	for _, t := range res.Trades {
		m.RealizedPnL = m.RealizedPnL.Add(t.PnL)
		pnls = append(pnls, t.PnL.InexactFloat64())

		switch {
		case t.PnL.IsPositive():
			m.WinningTrades++
			totalProfit = totalProfit.Add(t.PnL)
			if !m.LargestWin.Valid || t.PnL.GreaterThan(m.LargestWin.Decimal) {
				m.LargestWin = decimal.NewNullDecimal(t.PnL)
			}
		case t.PnL.IsNegative():
			m.LosingTrades++
			totalLoss = totalLoss.Add(t.PnL)
			if !m.LargestLoss.Valid || t.PnL.LessThan(m.LargestLoss.Decimal) {
				m.LargestLoss = decimal.NewNullDecimal(t.PnL)
			}
		}

		equity = equity.Add(t.PnL)
		if equity.GreaterThan(peak) {
			peak = equity
		}
		if dd := peak.Sub(equity); dd.GreaterThan(m.MaxDrawdown) {
			m.MaxDrawdown = dd
		}
	}

	m.TotalPnL = m.RealizedPnL.Add(m.UnrealizedPnL)
	if n := len(res.Trades); n > 0 {
		m.AveragePnL = decimal.NewNullDecimal(m.RealizedPnL.Div(decimal.NewFromInt(int64(n))))
	}
	if decided := m.WinningTrades + m.LosingTrades; decided > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(decided) * 100
	}
	if totalLoss.IsNegative() {
		m.ProfitFactor = totalProfit.Div(totalLoss.Abs()).InexactFloat64()
	}
	m.SharpeRatio = sharpeRatio(pnls)
	return m
}

// sharpeRatio is the per-trade mean over the population standard deviation,
// with a zero risk-free rate.
func sharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)))
	if std == 0 {
		return 0
	}
	return mean / std
}

// Comparison is live minus backtest for the headline metrics.
type Comparison struct {
	Backtest        Metrics             `json:"backtest"`
	Live            Metrics             `json:"live"`
	TotalOrdersDiff int                 `json:"total_orders_diff"`
	TotalPnLDiff    decimal.Decimal     `json:"total_pnl_diff"`
	AveragePnLDiff  decimal.NullDecimal `json:"average_pnl_diff"`
}

// Compare reports how the live run deviates from the backtest.
func Compare(backtest, live Metrics) Comparison {
	c := Comparison{
		Backtest:        backtest,
		Live:            live,
		TotalOrdersDiff: live.TotalOrders - backtest.TotalOrders,
		TotalPnLDiff:    live.TotalPnL.Sub(backtest.TotalPnL),
	}
	if backtest.AveragePnL.Valid && live.AveragePnL.Valid {
		c.AveragePnLDiff = decimal.NewNullDecimal(live.AveragePnL.Decimal.Sub(backtest.AveragePnL.Decimal))
	}
	return c
}
