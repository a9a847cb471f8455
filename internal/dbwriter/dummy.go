package dbwriter

import (
	"context"

	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

// dummyWriter drops every row. It replaces TimescaleWriter when db.enabled is
// off.
type dummyWriter struct {
	log     logger.Logger
	dropped int
}

// NewDummyWriter returns a Repository that only logs at debug level.
func NewDummyWriter(l logger.Logger) Repository {
	l.Info("Database disabled; orders and PnL summaries are not persisted.")
	return &dummyWriter{log: l}
}

func (d *dummyWriter) SaveOrder(o Order) {
	d.dropped++
	d.log.Debugf("dbwriter disabled: dropping order %s (%s %s)", o.OrderID, o.Side, o.Symbol)
}

func (d *dummyWriter) SavePnLSummary(_ context.Context, s PnLSummary) error {
	d.log.Debugf("dbwriter disabled: dropping pnl summary of session %s (total %s)", s.SessionID, s.TotalPnL)
	return nil
}

func (d *dummyWriter) Close() {
	d.log.Debugf("dbwriter disabled: %d orders dropped", d.dropped)
}
