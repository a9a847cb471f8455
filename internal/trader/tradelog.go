package trader

import (
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/market"
	"github.com/your-org/mtf-macd-bot/internal/order"
	"github.com/your-org/mtf-macd-bot/internal/signal"
	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

func logMarketData(l *zap.Logger, b market.Bar) {
	l.Info("Market Data",
		zap.String("timeframe", b.Timeframe.String()),
		zap.Time("bar", b.Timestamp),
		zap.Float64("open", b.Open),
		zap.Float64("high", b.High),
		zap.Float64("low", b.Low),
		zap.Float64("close", b.Close),
		zap.Float64("volume", b.Volume),
	)
}

func logSignalGeneration(l *zap.Logger, sigs []signal.Signal, at time.Time) {
	fields := []zap.Field{zap.Time("bar", at), zap.Int("signals", len(sigs))}
	for _, s := range sigs {
		fields = append(fields, zap.Stringer("side", s.Side), zap.Float64("size", s.Size))
		if s.Price != nil {
			fields = append(fields, zap.Float64("price", *s.Price))
		}
	}
	l.Info("Signal Generation", fields...)
}

func logOrderPlacement(l *zap.Logger, o order.Order) {
	l.Info("ORDER PLACED",
		zap.String("orderID", o.ID),
		zap.String("side", string(o.Side)),
		zap.Float64("size", o.Size),
		zap.Float64("price", o.FillPrice()),
		zap.String("status", o.Status),
	)
}

func logOrderFill(l *zap.Logger, o order.Order) {
	l.Info("ORDER FILLED",
		zap.String("orderID", o.ID),
		zap.String("side", string(o.Side)),
		zap.Float64("filledSize", o.FilledSize),
		zap.Float64("fillPrice", o.FillPrice()),
		zap.String("status", o.Status),
	)
}

func logTrade(l *zap.Logger, r tracker.Record) {
	l.Info("Order Logged",
		zap.String("orderID", r.OrderID),
		zap.String("side", r.Side),
		zap.Float64("price", r.Price),
		zap.Float64("size", r.Size),
		zap.String("status", r.Status),
	)
}
