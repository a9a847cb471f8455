package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

// Client provides methods to interact with the Binance REST API.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new Binance API client. An empty baseURL selects the
// spot testnet.
func NewClient(apiKey, secretKey, baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// BaseURL returns the REST endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// sign appends the HMAC-SHA256 signature of the encoded query.
func (c *Client) sign(params url.Values) string {
	query := params.Encode()
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(query))
	return query + "&signature=" + hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) newRequest(ctx context.Context, method, endpoint, query string) (*http.Request, error) {
	u := c.baseURL + endpoint
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body (status: %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = string(body)
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response (status: %d, body: %s): %w", resp.StatusCode, string(body), err)
	}
	return nil
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

// PlaceOrder submits a signed order. Quantity is rounded to 4 decimals.
func (c *Client) PlaceOrder(ctx context.Context, r OrderRequest) (*OrderResponse, error) {
	typ := strings.ToUpper(r.Type)
	if typ == "" {
		typ = "MARKET"
	}
	params := url.Values{}
	params.Set("symbol", r.Symbol)
	params.Set("side", strings.ToUpper(r.Side))
	params.Set("type", typ)
	params.Set("quantity", strconv.FormatFloat(math.Round(r.Quantity*1e4)/1e4, 'f', -1, 64))
	params.Set("newOrderRespType", "FULL")
	if typ == "LIMIT" {
		if r.Price == nil {
			return nil, errors.New("limit order requires a price")
		}
		params.Set("price", strconv.FormatFloat(*r.Price, 'f', -1, 64))
		params.Set("timeInForce", "GTC")
	}
	params.Set("timestamp", c.timestamp())

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v3/order", c.sign(params))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %w", err)
	}

	logger.Debugf("[Binance] placing order: %s %s %s qty=%s", r.Symbol, params.Get("side"), typ, params.Get("quantity"))
	var out OrderResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	return &out, nil
}

// GetAccount retrieves the signed account snapshot.
func (c *Client) GetAccount(ctx context.Context) (*AccountResponse, error) {
	params := url.Values{}
	params.Set("timestamp", c.timestamp())

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v3/account", c.sign(params))
	if err != nil {
		return nil, fmt.Errorf("failed to create account request: %w", err)
	}
	var out AccountResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &out, nil
}

// Account fetches the account and converts it with order.AccountFromBalances.
func (c *Client) Account(ctx context.Context) (*order.Account, error) {
	resp, err := c.GetAccount(ctx)
	if err != nil {
		return nil, err
	}
	balances := make([]order.Balance, 0, len(resp.Balances))
	for _, b := range resp.Balances {
		balances = append(balances, order.Balance{Asset: b.Asset, Free: parseFloat(b.Free), Locked: parseFloat(b.Locked)})
	}
	return order.AccountFromBalances(balances), nil
}

// KlineQuery selects a kline range. Zero times are omitted.
type KlineQuery struct {
	Symbol   string
	Interval market.Timeframe
	Start    time.Time
	End      time.Time
	Limit    int
}

// GetKlines retrieves historical klines as bars, oldest first.
func (c *Client) GetKlines(ctx context.Context, q KlineQuery) ([]market.Bar, error) {
	params := url.Values{}
	params.Set("symbol", q.Symbol)
	params.Set("interval", q.Interval.String())
	limit := q.Limit
	if limit <= 0 {
		limit = 500
	}
	params.Set("limit", strconv.Itoa(limit))
	if !q.Start.IsZero() {
		params.Set("startTime", strconv.FormatInt(q.Start.UnixMilli(), 10))
	}
	if !q.End.IsZero() {
		params.Set("endTime", strconv.FormatInt(q.End.UnixMilli(), 10))
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v3/klines", params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to create klines request: %w", err)
	}
	var rows [][]json.RawMessage
	if err := c.do(req, &rows); err != nil {
		return nil, fmt.Errorf("get klines: %w", err)
	}

	bars := make([]market.Bar, 0, len(rows))
	for i, row := range rows {
		b, err := decodeKline(row, q.Symbol, q.Interval)
		if err != nil {
			return nil, fmt.Errorf("kline %d: %w", i, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// Klines implements the live bar source contract.
func (c *Client) Klines(ctx context.Context, symbol string, tf market.Timeframe, limit int) ([]market.Bar, error) {
	return c.GetKlines(ctx, KlineQuery{Symbol: symbol, Interval: tf, Limit: limit})
}

// decodeKline converts [openTime, open, high, low, close, volume, ...].
func decodeKline(row []json.RawMessage, symbol string, tf market.Timeframe) (market.Bar, error) {
	if len(row) < 6 {
		return market.Bar{}, fmt.Errorf("expected at least 6 fields, got %d", len(row))
	}
	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return market.Bar{}, fmt.Errorf("open time: %w", err)
	}
	var vals [5]float64
	for i := range vals {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return market.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return market.Bar{
		Timestamp: time.UnixMilli(openTime).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
		Symbol:    symbol,
		Timeframe: tf,
	}, nil
}
