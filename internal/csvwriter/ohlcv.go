package csvwriter

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/market"
)

// OHLCVHeader is the column order written by WriteOHLCV.
var OHLCVHeader = []string{"timestamp", "open", "high", "low", "close", "volume", "symbol", "timeframe"}

// WriteOHLCV overwrites path with bars in OHLCVHeader order.
func WriteOHLCV(path string, bars []market.Bar, logger *zap.Logger) error {
	w, err := NewWriter(path, logger)
	if err != nil {
		return err
	}
	if err := w.Write(OHLCVHeader); err != nil {
		w.Abort()
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
			b.Symbol,
			b.Timeframe.String(),
		}
		if err := w.Write(row); err != nil {
			w.Abort()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	w.logger.Info("Bars saved", zap.String("path", path), zap.Int("rows", len(bars)))
	return nil
}
