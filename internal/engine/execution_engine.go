// Package engine turns sized signals into filled orders.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/your-org/mtf-macd-bot/internal/exchange/binance"
	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/pkg/logger"
)

var (
	// ErrHoldSignal is returned when a HOLD signal reaches execution.
	ErrHoldSignal = errors.New("hold signal must not be executed")
	// ErrNoFillPrice is returned by the simulated venue when neither a
	// reference bar nor a signal price is available.
	ErrNoFillPrice = errors.New("no reference price for simulated fill")
)

// ExecutionEngine defines the interface for order execution.
type ExecutionEngine interface {
	// Place executes sig. ref is the bar the signal was evaluated on; it may
	// be nil for venues that do not need it.
	Place(ctx context.Context, sig signal.Signal, ref *market.Bar) (order.Order, error)
}

// SimulatedExecutionEngine fills every order immediately at the reference
// bar's close.
type SimulatedExecutionEngine struct {
	prefix  string
	counter int
}

// NewSimulatedExecutionEngine creates a simulated venue. Order IDs are
// "<prefix>-<n>" starting at 1.
func NewSimulatedExecutionEngine(prefix string) *SimulatedExecutionEngine {
	if prefix == "" {
		prefix = "sim"
	}
	return &SimulatedExecutionEngine{prefix: prefix}
}

// Place fills sig in full.
func (e *SimulatedExecutionEngine) Place(_ context.Context, sig signal.Signal, ref *market.Bar) (order.Order, error) {
	side := order.SideFromSignal(sig.Side)
	if side == order.Hold {
		return order.Order{}, ErrHoldSignal
	}

	var price float64
	ts := sig.Timestamp
	switch {
	case ref != nil:
		price = ref.Close
		ts = ref.Timestamp
	case sig.Price != nil:
		price = *sig.Price
	default:
		return order.Order{}, ErrNoFillPrice
	}

	e.counter++
	o := order.Order{
		ID:         fmt.Sprintf("%s-%d", e.prefix, e.counter),
		Symbol:     sig.Symbol,
		Side:       side,
		Size:       sig.Size,
		Price:      &price,
		Status:     order.StatusFilled,
		FilledSize: sig.Size,
		Timestamp:  ts,
	}
	logger.Debugf("[Sim] filled %s", o)
	return o, nil
}

// OrderPlacer submits orders to a venue.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, r binance.OrderRequest) (*binance.OrderResponse, error)
}

// LiveExecutionEngine handles real order placement with the exchange.
type LiveExecutionEngine struct {
	client OrderPlacer
	now    func() time.Time
}

// NewLiveExecutionEngine creates a new LiveExecutionEngine.
func NewLiveExecutionEngine(client OrderPlacer) *LiveExecutionEngine {
	return &LiveExecutionEngine{client: client, now: time.Now}
}

// Place sends sig as a MARKET order. The fill price is the volume-weighted
// average of the reported fills, or the requested price when none are
// reported.
func (e *LiveExecutionEngine) Place(ctx context.Context, sig signal.Signal, _ *market.Bar) (order.Order, error) {
	if e.client == nil {
		return order.Order{}, fmt.Errorf("LiveExecutionEngine: exchange client is not initialized")
	}
	side := order.SideFromSignal(sig.Side)
	if side == order.Hold {
		return order.Order{}, ErrHoldSignal
	}

	req := binance.OrderRequest{
		Symbol:   sig.Symbol,
		Side:     string(side),
		Type:     "MARKET",
		Quantity: sig.Size,
	}
	logger.Infof("[Live] Placing order: %+v", req)
	resp, err := e.client.PlaceOrder(ctx, req)
	if err != nil {
		logger.Errorf("[Live] Error placing order: %v", err)
		return order.Order{}, err
	}

	price := sig.Price
	if avg, ok := resp.AveragePrice(); ok {
		price = &avg
	}
	respSide := side
	if s, ok := order.ParseSide(resp.Side); ok {
		respSide = s
	}
	symbol := resp.Symbol
	if symbol == "" {
		symbol = sig.Symbol
	}

	o := order.Order{
		ID:         strconv.FormatInt(resp.OrderID, 10),
		Symbol:     symbol,
		Side:       respSide,
		Size:       resp.OrigQtyFloat64(),
		Price:      price,
		Status:     resp.Status,
		FilledSize: resp.ExecutedQtyFloat64(),
		Timestamp:  e.now(),
	}
	logger.Infof("[Live] Order placed successfully: %s", o)
	return o, nil
}

// RetryingEngine retries transport failures of the wrapped engine a bounded
// number of times. With zero retries it behaves exactly like the wrapped
// engine.
type RetryingEngine struct {
	next    ExecutionEngine
	retries int
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetryingEngine wraps next.
func NewRetryingEngine(next ExecutionEngine, retries int, backoff time.Duration) *RetryingEngine {
	return &RetryingEngine{next: next, retries: retries, backoff: backoff, sleep: sleepCtx}
}

// Place calls the wrapped engine, doubling the backoff after each failure.
// ErrHoldSignal and context errors are never retried.
func (e *RetryingEngine) Place(ctx context.Context, sig signal.Signal, ref *market.Bar) (order.Order, error) {
	if e.retries <= 0 {
		return e.next.Place(ctx, sig, ref)
	}
	wait := e.backoff
	var lastErr error
	for attempt := 0; attempt <= e.retries; attempt++ {
		if attempt > 0 {
			logger.Warnf("[Retry] order attempt %d/%d after error: %v", attempt, e.retries, lastErr)
			if err := e.sleep(ctx, wait); err != nil {
				return order.Order{}, err
			}
			wait *= 2
		}
		o, err := e.next.Place(ctx, sig, ref)
		if err == nil {
			return o, nil
		}
		if errors.Is(err, ErrHoldSignal) || errors.Is(err, ErrNoFillPrice) || ctx.Err() != nil {
			return order.Order{}, err
		}
		lastErr = err
	}
	return order.Order{}, fmt.Errorf("order failed after %d attempts: %w", e.retries+1, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
