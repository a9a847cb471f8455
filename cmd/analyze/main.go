// Command analyze compares the FIFO PnL of a backtest ledger with a live one.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/your-org/mtf-macd-bot/internal/datastore"
	"github.com/your-org/mtf-macd-bot/internal/pnl"
	"github.com/your-org/mtf-macd-bot/internal/report"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

func main() {
	backtestPath := flag.String("backtest", "data/backtest_trades.csv", "Backtest ledger CSV")
	livePath := flag.String("live", "data/live_trades.csv", "Live ledger CSV")
	asJSON := flag.Bool("json", false, "Print the comparison as JSON")
	flag.Parse()

	logger.SetGlobalLogLevel("info")
	if err := run(os.Stdout, *backtestPath, *livePath, *asJSON); err != nil {
		logger.Fatalf("Analysis failed: %v", err)
	}
}

func run(w io.Writer, backtestPath, livePath string, asJSON bool) error {
	bt, err := summarize("BACKTEST", backtestPath)
	if err != nil {
		return err
	}
	live, err := summarize("LIVE", livePath)
	if err != nil {
		return err
	}
	cmp := pnl.Compare(bt, live)
	if asJSON {
		return report.WriteJSON(w, cmp)
	}
	return report.WriteComparison(w, cmp)
}

func summarize(label, path string) (pnl.Metrics, error) {
	records, err := datastore.ReadLedgerCSV(path)
	if err != nil {
		return pnl.Metrics{}, fmt.Errorf("%s ledger: %w", label, err)
	}
	return pnl.Summarize(label, pnl.Match(records)), nil
}
