// Package binance handles interactions with the Binance spot REST and
// WebSocket APIs.
package binance

import (
	"fmt"
	"strconv"
)

// DefaultBaseURL is the spot testnet endpoint.
const DefaultBaseURL = "https://testnet.binance.vision"

// OrderRequest is the subset of /api/v3/order parameters the bot sends.
type OrderRequest struct {
	Symbol   string
	Side     string // BUY or SELL
	Type     string // MARKET or LIMIT
	Quantity float64
	Price    *float64 // required for LIMIT
}

// Fill is one partial execution reported with an order.
type Fill struct {
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
}

// OrderResponse is the FULL response type of /api/v3/order.
type OrderResponse struct {
	Symbol       string `json:"symbol"`
	OrderID      int64  `json:"orderId"`
	ClientID     string `json:"clientOrderId"`
	TransactTime int64  `json:"transactTime"`
	OrigQty      string `json:"origQty"`
	ExecutedQty  string `json:"executedQty"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	Side         string `json:"side"`
	Fills        []Fill `json:"fills"`
}

// OrigQtyFloat64 converts OrigQty to float64, returning 0 when unparsable.
func (r *OrderResponse) OrigQtyFloat64() float64 {
	return parseFloat(r.OrigQty)
}

// ExecutedQtyFloat64 converts ExecutedQty to float64, returning 0 when unparsable.
func (r *OrderResponse) ExecutedQtyFloat64() float64 {
	return parseFloat(r.ExecutedQty)
}

// AveragePrice returns the volume-weighted average fill price. ok is false
// when there are no fills with positive quantity.
func (r *OrderResponse) AveragePrice() (float64, bool) {
	var qty, notional float64
	for _, f := range r.Fills {
		q := parseFloat(f.Qty)
		qty += q
		notional += q * parseFloat(f.Price)
	}
	if qty <= 0 {
		return 0, false
	}
	return notional / qty, true
}

// AssetBalance is one entry of the account balances list.
type AssetBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// AccountResponse is the response of /api/v3/account.
type AccountResponse struct {
	CanTrade bool           `json:"canTrade"`
	Balances []AssetBalance `json:"balances"`
}

// APIError is the error payload Binance returns with non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
