package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

// DefaultStreamURL is the spot market data stream endpoint.
const DefaultStreamURL = "wss://stream.binance.com:9443"

type klineEnvelope struct {
	Stream string     `json:"stream"`
	Data   klineEvent `json:"data"`
}

type klineEvent struct {
	EventType string       `json:"e"`
	Symbol    string       `json:"s"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	StartTime int64  `json:"t"`
	Interval  string `json:"i"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

func (k klinePayload) bar(symbol string) (market.Bar, error) {
	tf, err := market.ParseTimeframe(k.Interval)
	if err != nil {
		return market.Bar{}, err
	}
	var vals [5]float64
	for i, s := range []string{k.Open, k.High, k.Low, k.Close, k.Volume} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("invalid kline field %q: %w", s, err)
		}
		vals[i] = v
	}
	return market.Bar{
		Timestamp: time.UnixMilli(k.StartTime).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
		Symbol:    symbol,
		Timeframe: tf,
	}, nil
}

// KlineStream keeps the most recent klines per timeframe from the combined
// kline stream. The in-progress kline is included and replaced in place as
// updates arrive, mirroring what the REST endpoint returns.
type KlineStream struct {
	baseURL   string
	symbol    string
	intervals []market.Timeframe
	keep      int

	mu   sync.RWMutex
	bars map[market.Timeframe][]market.Bar
}

// NewKlineStream creates a stream for symbol. keep bounds the bars retained
// per timeframe.
func NewKlineStream(baseURL, symbol string, keep int, intervals ...market.Timeframe) *KlineStream {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultStreamURL
	}
	if keep <= 0 {
		keep = 2
	}
	return &KlineStream{
		baseURL:   strings.TrimRight(baseURL, "/"),
		symbol:    strings.ToUpper(symbol),
		intervals: intervals,
		keep:      keep,
		bars:      make(map[market.Timeframe][]market.Bar),
	}
}

// URL returns the combined stream URL.
func (s *KlineStream) URL() string {
	streams := make([]string, len(s.intervals))
	for i, tf := range s.intervals {
		streams[i] = strings.ToLower(s.symbol) + "@kline_" + tf.String()
	}
	return s.baseURL + "/stream?streams=" + strings.Join(streams, "/")
}

// Run consumes the stream until ctx is done, reconnecting with backoff.
func (s *KlineStream) Run(ctx context.Context) error {
	if len(s.intervals) == 0 {
		return fmt.Errorf("kline stream requires at least one interval")
	}
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warnf("[Binance] kline stream disconnected: %v; retrying in %v", err, backoff)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*2))
	}
}

func (s *KlineStream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.URL(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Infof("[Binance] connected kline stream %s", s.URL())

	// Unblock ReadMessage on cancellation.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var env klineEnvelope
		if err := json.Unmarshal(msg, &env); err != nil {
			logger.Warnf("[Binance] failed to decode kline message: %v", err)
			continue
		}
		if env.Data.EventType != "kline" {
			continue
		}
		b, err := env.Data.Kline.bar(s.symbol)
		if err != nil {
			logger.Warnf("[Binance] invalid kline: %v", err)
			continue
		}
		s.store(b)
	}
}

func (s *KlineStream) store(b market.Bar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.bars[b.Timeframe]
	if n := len(list); n > 0 && list[n-1].Timestamp.Equal(b.Timestamp) {
		list[n-1] = b
		return
	}
	list = append(list, b)
	if len(list) > s.keep {
		list = list[len(list)-s.keep:]
	}
	s.bars[b.Timeframe] = list
}

// Klines returns up to limit retained bars of tf, oldest first. symbol must
// match the stream symbol.
func (s *KlineStream) Klines(_ context.Context, symbol string, tf market.Timeframe, limit int) ([]market.Bar, error) {
	if !strings.EqualFold(symbol, s.symbol) {
		return nil, fmt.Errorf("kline stream serves %s, not %s", s.symbol, symbol)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.bars[tf]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	out := make([]market.Bar, len(list))
	copy(out, list)
	return out, nil
}
