// Package report renders PnL metrics as plain-text tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/your-org/mtf-macd-bot/internal/pnl"
)

const rule = 80

// na is printed for metrics that have no value, such as the largest loss of
// a ledger without losing trades.
const na = "n/a"

func fixed(d decimal.Decimal) string { return d.StringFixed(4) }

func nullable(d decimal.NullDecimal) string {
	if !d.Valid {
		return na
	}
	return fixed(d.Decimal)
}

// WriteMetrics prints one labelled metrics block.
func WriteMetrics(w io.Writer, m pnl.Metrics) error {
	if _, err := fmt.Fprintf(w, "\n%s\n%s\n", m.Label, strings.Repeat("_", rule)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 4, ' ', 0)
	rows := [][2]string{
		{"Total Orders", fmt.Sprint(m.TotalOrders)},
		{"Closed Trades", fmt.Sprint(m.ClosedTrades)},
		{"Realized PnL", fixed(m.RealizedPnL)},
		{"Unrealized PnL", fixed(m.UnrealizedPnL)},
		{"Total PnL", fixed(m.TotalPnL)},
		{"Average PnL", nullable(m.AveragePnL)},
		{"Largest Win", nullable(m.LargestWin)},
		{"Largest Loss", nullable(m.LargestLoss)},
		{"Win Rate", fmt.Sprintf("%.2f%%", m.WinRate)},
		{"Profit Factor", fmt.Sprintf("%.4f", m.ProfitFactor)},
		{"Max Drawdown", fixed(m.MaxDrawdown)},
		{"Sharpe Ratio", fmt.Sprintf("%.4f", m.SharpeRatio)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

// WriteComparison prints both metric blocks followed by the live minus
// backtest differences.
func WriteComparison(w io.Writer, c pnl.Comparison) error {
	if err := WriteMetrics(w, c.Backtest); err != nil {
		return err
	}
	if err := WriteMetrics(w, c.Live); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\n%s vs %s\n%s\n", c.Backtest.Label, c.Live.Label, strings.Repeat("_", rule)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 4, ' ', 0)
	fmt.Fprintf(tw, "Metric\t%s\t%s\tDiff\n", c.Backtest.Label, c.Live.Label)
	fmt.Fprintf(tw, "Total Orders\t%d\t%d\t%d\n", c.Backtest.TotalOrders, c.Live.TotalOrders, c.TotalOrdersDiff)
	fmt.Fprintf(tw, "Total PnL\t%s\t%s\t%s\n", fixed(c.Backtest.TotalPnL), fixed(c.Live.TotalPnL), fixed(c.TotalPnLDiff))
	fmt.Fprintf(tw, "Avg PnL\t%s\t%s\t%s\n", nullable(c.Backtest.AveragePnL), nullable(c.Live.AveragePnL), nullable(c.AveragePnLDiff))
	return tw.Flush()
}

// WriteJSON encodes c with indentation.
func WriteJSON(w io.Writer, c pnl.Comparison) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
