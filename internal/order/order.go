// Package order defines filled orders and the account snapshot they mutate.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/signal"
)

// Side is the order direction as sent to the venue.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
	Hold Side = "HOLD"
)

// Order statuses used by the simulated venue.
const (
	StatusFilled = "FILLED"
)

// SideFromSignal maps +1 to BUY, -1 to SELL and anything else to HOLD.
func SideFromSignal(s signal.Side) Side {
	switch s {
	case signal.Buy:
		return Buy
	case signal.Sell:
		return Sell
	default:
		return Hold
	}
}

// ParseSide upper-cases s and reports whether it names BUY or SELL.
func ParseSide(s string) (Side, bool) {
	switch side := Side(strings.ToUpper(strings.TrimSpace(s))); side {
	case Buy, Sell:
		return side, true
	default:
		return side, false
	}
}

// Order is an executed order. Price is the fill price; nil when the venue
// reported none.
type Order struct {
	ID         string
	Symbol     string
	Side       Side
	Size       float64
	Price      *float64
	Status     string
	FilledSize float64
	Timestamp  time.Time
}

// FillPrice returns the fill price or 0 when absent.
func (o Order) FillPrice() float64 {
	if o.Price == nil {
		return 0
	}
	return *o.Price
}

// Notional returns filled size times fill price.
func (o Order) Notional() float64 {
	return o.FilledSize * o.FillPrice()
}

func (o Order) String() string {
	return fmt.Sprintf("Order{%s %s %s size=%.6f filled=%.6f price=%.4f %s}",
		o.ID, o.Side, o.Symbol, o.Size, o.FilledSize, o.FillPrice(), o.Status)
}

// Account is the cash balance in quote currency and free asset quantities.
type Account struct {
	Balance   float64
	Positions map[string]float64
}

// NewAccount creates an account holding only cash.
func NewAccount(balance float64) *Account {
	return &Account{Balance: balance, Positions: make(map[string]float64)}
}

// ApplyFill debits the balance for a BUY and credits it for a SELL.
// Positions are left to the next snapshot refresh.
func (a *Account) ApplyFill(o Order) {
	switch o.Side {
	case Buy:
		a.Balance -= o.Notional()
	case Sell:
		a.Balance += o.Notional()
	}
}

// Snapshot returns a copy safe to hand to sizing logic.
func (a *Account) Snapshot() Account {
	pos := make(map[string]float64, len(a.Positions))
	for k, v := range a.Positions {
		pos[k] = v
	}
	return Account{Balance: a.Balance, Positions: pos}
}

// Balance is a single asset entry from an exchange account response.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// AccountFromBalances builds an account from exchange balances. Every asset
// with a positive free amount becomes a position; USDT and *USDT assets are
// also summed into the cash balance.
func AccountFromBalances(balances []Balance) *Account {
	acct := NewAccount(0)
	for _, b := range balances {
		if b.Free <= 0 {
			continue
		}
		acct.Positions[b.Asset] = b.Free
		if strings.HasSuffix(b.Asset, "USDT") {
			acct.Balance += b.Free
		}
	}
	return acct
}
