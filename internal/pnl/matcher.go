// Package pnl matches an order ledger into closed trades and computes
// performance metrics.
package pnl

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// Direction of a closed trade.
const (
	Long  = "LONG"
	Short = "SHORT"
)

// Lot is an open inventory slice awaiting closure.
type Lot struct {
	Symbol     string
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
	OpenedAt   time.Time
}

// TradeRecord is one closed lot slice.
type TradeRecord struct {
	Symbol     string
	Direction  string
	EntryPrice decimal.Decimal
	ExitPrice  decimal.Decimal
	Size       decimal.Decimal
	PnL        decimal.Decimal
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// Result is the outcome of matching a ledger.
type Result struct {
	Trades      []TradeRecord
	Unrealized  decimal.Decimal
	LastPrice   decimal.Decimal
	TotalOrders int
	// Skipped counts rows whose side is neither BUY nor SELL.
	Skipped    int
	OpenLongs  []Lot
	OpenShorts []Lot
}

// Match runs strict FIFO matching over a chronological ledger. A BUY first
// closes the oldest short lots and opens a long lot with any remainder; a
// SELL is symmetric. Open lots are marked to the price of the final ledger
// row.
func Match(records []tracker.Record) Result {
	res := Result{TotalOrders: len(records)}
	if len(records) == 0 {
		return res
	}

	var longs, shorts []Lot
	for _, r := range records {
		price := decimal.NewFromFloat(r.Price)
		qty := decimal.NewFromFloat(r.Size)

		switch strings.ToUpper(strings.TrimSpace(r.Side)) {
		case "BUY":
			var closed []TradeRecord
			shorts, qty, closed = drain(shorts, qty, price, r, Short)
			res.Trades = append(res.Trades, closed...)
			if qty.IsPositive() {
				longs = append(longs, Lot{Symbol: r.Symbol, EntryPrice: price, Size: qty, OpenedAt: r.Timestamp})
			}
		case "SELL":
			var closed []TradeRecord
			longs, qty, closed = drain(longs, qty, price, r, Long)
			res.Trades = append(res.Trades, closed...)
			if qty.IsPositive() {
				shorts = append(shorts, Lot{Symbol: r.Symbol, EntryPrice: price, Size: qty, OpenedAt: r.Timestamp})
			}
		default:
			res.Skipped++
		}
	}

	last := decimal.NewFromFloat(records[len(records)-1].Price)
	unrealized := decimal.Zero
	for _, l := range longs {
		unrealized = unrealized.Add(last.Sub(l.EntryPrice).Mul(l.Size))
	}
	for _, l := range shorts {
		unrealized = unrealized.Add(l.EntryPrice.Sub(last).Mul(l.Size))
	}

	res.Unrealized = unrealized
	res.LastPrice = last
	res.OpenLongs = longs
	res.OpenShorts = shorts
	return res
}

// drain closes lots oldest first against qty units at price. dir is the
// direction of the lots being closed.
func drain(lots []Lot, qty, price decimal.Decimal, r tracker.Record, dir string) ([]Lot, decimal.Decimal, []TradeRecord) {
	var closed []TradeRecord
	for qty.IsPositive() && len(lots) > 0 {
		lot := lots[0]
		size := decimal.Min(lot.Size, qty)

		var pnl decimal.Decimal
		if dir == Long {
			pnl = price.Sub(lot.EntryPrice).Mul(size)
		} else {
			pnl = lot.EntryPrice.Sub(price).Mul(size)
		}
		closed = append(closed, TradeRecord{
			Symbol:     r.Symbol,
			Direction:  dir,
			EntryPrice: lot.EntryPrice,
			ExitPrice:  price,
			Size:       size,
			PnL:        pnl,
			OpenedAt:   lot.OpenedAt,
			ClosedAt:   r.Timestamp,
		})

		qty = qty.Sub(size)
		lot.Size = lot.Size.Sub(size)
		if lot.Size.IsPositive() {
			lots[0] = lot
		} else {
			lots = lots[1:]
		}
	}
	return lots, qty, closed
}
