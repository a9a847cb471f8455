package trader

import (
	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/csvwriter"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// CSVLedger rewrites a CSV file with the full ledger on every Save.
type CSVLedger struct {
	Path   string
	Logger *zap.Logger
}

// Save implements LedgerSink.
func (c CSVLedger) Save(records []tracker.Record) error {
	return csvwriter.WriteLedger(c.Path, records, c.Logger)
}
