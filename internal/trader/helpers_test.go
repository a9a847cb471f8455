package trader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// scriptedStrategy returns queued signals, one batch per GenerateSignals call.
type scriptedStrategy struct {
	bars    []market.Bar
	batches [][]signal.Signal
	size    float64
	fills   []order.Order
	history [2][]market.Bar
}

func (s *scriptedStrategy) Name() string                { return "scripted" }
func (s *scriptedStrategy) OnBar(b market.Bar)          { s.bars = append(s.bars, b) }
func (s *scriptedStrategy) OnOrderFilled(o order.Order) { s.fills = append(s.fills, o) }

func (s *scriptedStrategy) GenerateSignals() []signal.Signal {
	if len(s.batches) == 0 {
		return nil
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next
}

func (s *scriptedStrategy) PositionSize(signal.Signal, order.Account) float64 { return s.size }

func (s *scriptedStrategy) timeframes() []market.Timeframe {
	out := make([]market.Timeframe, len(s.bars))
	for i, b := range s.bars {
		out[i] = b.Timeframe
	}
	return out
}

// historyStrategy adds prefill support to scriptedStrategy.
type historyStrategy struct {
	scriptedStrategy
}

func (s *historyStrategy) InitializeWithHistory(h1, h15 []market.Bar) {
	s.history = [2][]market.Bar{h1, h15}
}

func sig(side signal.Side, at time.Time) signal.Signal {
	return signal.Signal{Symbol: "ETHUSDT", Side: side, Timestamp: at}
}

func minute(start time.Time, i int, close float64) market.Bar {
	return market.Bar{
		Timestamp: start.Add(time.Duration(i) * time.Minute),
		Open:      close, High: close + 1, Low: close - 1, Close: close, Volume: 1,
		Symbol: "ETHUSDT", Timeframe: market.TF1m,
	}
}

type failingEngine struct{ err error }

func (e failingEngine) Place(context.Context, signal.Signal, *market.Bar) (order.Order, error) {
	return order.Order{}, e.err
}

type klineCall struct {
	tf    market.Timeframe
	limit int
}

// fakeSource serves queued responses per timeframe; an exhausted queue
// repeats its last entry.
type fakeSource struct {
	mu        sync.Mutex
	responses map[market.Timeframe][][]market.Bar
	errs      map[int]error
	calls     []klineCall
}

func (f *fakeSource) Klines(_ context.Context, _ string, tf market.Timeframe, limit int) ([]market.Bar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, klineCall{tf: tf, limit: limit})
	if err, ok := f.errs[len(f.calls)]; ok {
		return nil, err
	}
	q := f.responses[tf]
	if len(q) == 0 {
		return nil, nil
	}
	next := q[0]
	if len(q) > 1 {
		f.responses[tf] = q[1:]
	}
	return next, nil
}

type fakeAccounts struct {
	acct *order.Account
	err  error
}

func (f fakeAccounts) Account(context.Context) (*order.Account, error) { return f.acct, f.err }

// fakeClock cancels the loop after maxSleeps sleeps.
type fakeClock struct {
	now       time.Time
	sleeps    []time.Duration
	maxSleeps int
	cancel    context.CancelFunc
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	if len(c.sleeps) >= c.maxSleeps {
		c.cancel()
		return ctx.Err()
	}
	return nil
}

type memLedger struct {
	saves [][]tracker.Record
	err   error
}

func (m *memLedger) Save(r []tracker.Record) error {
	if m.err != nil {
		return m.err
	}
	m.saves = append(m.saves, r)
	return nil
}

type recordingNotifier struct{ messages []string }

func (n *recordingNotifier) Send(m string) error { n.messages = append(n.messages, m); return nil }
func (n *recordingNotifier) Close() error        { return nil }

var errBoom = errors.New("boom")
