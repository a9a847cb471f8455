package dbwriter

import (
	"context"
	"errors"
	"sync"
)

// ErrWriterClosed is returned for writes after Close.
var ErrWriterClosed = errors.New("dbwriter: writer closed")

// InMemWriter keeps every row in memory. Tests and dry runs use it in place
// of TimescaleWriter.
type InMemWriter struct {
	mu           sync.RWMutex
	Orders       []Order
	PnlSummaries []PnLSummary
	IsClosed     bool
}

func NewInMemWriter() *InMemWriter {
	return &InMemWriter{}
}

// SaveOrder stores o. Orders saved after Close are dropped, matching the
// batch writer, whose buffer is not flushed again once closed.
func (w *InMemWriter) SaveOrder(o Order) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.IsClosed {
		return
	}
	w.Orders = append(w.Orders, o)
}

func (w *InMemWriter) SavePnLSummary(ctx context.Context, s PnLSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.IsClosed {
		return ErrWriterClosed
	}
	w.PnlSummaries = append(w.PnlSummaries, s)
	return nil
}

func (w *InMemWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.IsClosed = true
}

// Snapshot returns copies of the stored rows.
func (w *InMemWriter) Snapshot() ([]Order, []PnLSummary) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Order(nil), w.Orders...), append([]PnLSummary(nil), w.PnlSummaries...)
}
