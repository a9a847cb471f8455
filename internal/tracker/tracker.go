// Package tracker keeps the append-only ledger of executed orders.
package tracker

import (
	"strings"
	"sync"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/order"
)

// Record is one ledger row. It is the schema shared by the CSV exports and
// the PnL matcher.
type Record struct {
	Timestamp time.Time
	Side      string
	Symbol    string
	Price     float64
	Size      float64
	OrderID   string
	Status    string
}

// Tracker accumulates order records in insertion order. It is safe for
// concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	records []Record
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{}
}

// AddOrder appends o to the ledger and returns the stored record.
func (t *Tracker) AddOrder(o order.Order) Record {
	r := FromOrder(o)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, r)
	return r
}

// FromOrder converts an order into a ledger record: the side is upper-cased,
// a missing price becomes 0 and the size is the filled size.
func FromOrder(o order.Order) Record {
	return Record{
		Timestamp: o.Timestamp,
		Side:      strings.ToUpper(string(o.Side)),
		Symbol:    o.Symbol,
		Price:     o.FillPrice(),
		Size:      o.FilledSize,
		OrderID:   o.ID,
		Status:    o.Status,
	}
}

// Orders returns a copy of the ledger.
func (t *Tracker) Orders() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Len returns the number of recorded orders.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}
