package binance

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/mtf-macd-bot/internal/market"
)

const klineMsg = `{"stream":"ethusdt@kline_15m","data":{"e":"kline","s":"ETHUSDT","k":{"t":%d,"i":"15m","o":"1","h":"%s","l":"0.5","c":"1.5","v":"10","x":%t}}}`

func TestKlineStream_URL(t *testing.T) {
	s := NewKlineStream("", "ethusdt", 2, market.TF1h, market.TF15m)
	assert.Equal(t, "wss://stream.binance.com:9443/stream?streams=ethusdt@kline_1h/ethusdt@kline_15m", s.URL())
}

func TestKlineStream_StoreReplacesInProgress(t *testing.T) {
	s := NewKlineStream("", "ETHUSDT", 2, market.TF15m)
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.store(market.Bar{Timestamp: t0, Close: 1, Timeframe: market.TF15m})
	s.store(market.Bar{Timestamp: t0, Close: 2, Timeframe: market.TF15m})
	bars, err := s.Klines(context.Background(), "ETHUSDT", market.TF15m, 2)
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2.0, bars[0].Close)

	s.store(market.Bar{Timestamp: t0.Add(15 * time.Minute), Close: 3, Timeframe: market.TF15m})
	s.store(market.Bar{Timestamp: t0.Add(30 * time.Minute), Close: 4, Timeframe: market.TF15m})
	bars, _ = s.Klines(context.Background(), "ETHUSDT", market.TF15m, 5)
	require.Len(t, bars, 2)
	assert.Equal(t, 3.0, bars[0].Close)
	assert.Equal(t, 4.0, bars[1].Close)

	_, err = s.Klines(context.Background(), "BTCUSDT", market.TF15m, 1)
	assert.Error(t, err)
}

func TestKlineStream_Run(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stream", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range []string{
			fmt.Sprintf(klineMsg, 1766998800000, "2", false),
			`not json`,
			fmt.Sprintf(klineMsg, 1766998800000, "3", true),
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer srv.Close()

	s := NewKlineStream("ws"+strings.TrimPrefix(srv.URL, "http"), "ETHUSDT", 2, market.TF15m)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		bars, _ := s.Klines(ctx, "ETHUSDT", market.TF15m, 2)
		return len(bars) == 1 && bars[0].High == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
}
