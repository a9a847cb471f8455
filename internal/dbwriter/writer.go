package dbwriter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/config"
)

var orderColumns = []string{"time", "session_id", "symbol", "side", "price", "size", "order_id", "status"}

// Pool is an interface that abstracts the pgxpool.Pool for testability.
type Pool interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Close()
}

// TimescaleWriter はTimescaleDBへのデータ書き込みを担当します。
type TimescaleWriter struct {
	pool         Pool
	logger       *zap.Logger
	batchSize    int
	orderBuffer  []Order
	bufferMutex  sync.Mutex
	flushTicker  *time.Ticker
	shutdownChan chan struct{}
	closeOnce    sync.Once
}

// NewTimescaleWriter starts a batch writer over pool. Orders are flushed when
// the buffer reaches BatchSize or every WriteInterval, whichever comes first.
func NewTimescaleWriter(pool Pool, writerConfig config.DBWriterConf, logger *zap.Logger) (*TimescaleWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("dbwriter: nil pool")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if writerConfig.WriteInterval <= 0 {
		logger.Warn("WriteInterval is zero or negative, defaulting to 1s.", zap.Duration("originalValue", writerConfig.WriteInterval))
		writerConfig.WriteInterval = time.Second
	}
	if writerConfig.BatchSize <= 0 {
		logger.Warn("BatchSize is zero or negative, defaulting to 100.", zap.Int("originalValue", writerConfig.BatchSize))
		writerConfig.BatchSize = 100
	}

	w := &TimescaleWriter{
		pool:         pool,
		logger:       logger,
		batchSize:    writerConfig.BatchSize,
		orderBuffer:  make([]Order, 0, writerConfig.BatchSize),
		flushTicker:  time.NewTicker(writerConfig.WriteInterval),
		shutdownChan: make(chan struct{}),
	}
	go w.run()
	logger.Info("Started TimescaleDB batch writer", zap.Int("batchSize", w.batchSize), zap.Duration("interval", writerConfig.WriteInterval))
	return w, nil
}

func (w *TimescaleWriter) run() {
	for {
		select {
		case <-w.flushTicker.C:
			w.flushBuffers()
		case <-w.shutdownChan:
			return
		}
	}
}

// SaveOrder は注文をバッファに追加します。
func (w *TimescaleWriter) SaveOrder(o Order) {
	w.bufferMutex.Lock()
	w.orderBuffer = append(w.orderBuffer, o)
	shouldFlush := len(w.orderBuffer) >= w.batchSize
	w.bufferMutex.Unlock()

	if shouldFlush {
		w.flushBuffers()
	}
}

func (w *TimescaleWriter) flushBuffers() {
	w.bufferMutex.Lock()
	defer w.bufferMutex.Unlock()

	if len(w.orderBuffer) == 0 {
		return
	}
	w.batchInsertOrders(context.Background(), w.orderBuffer)
	w.orderBuffer = w.orderBuffer[:0]
}

func (w *TimescaleWriter) batchInsertOrders(ctx context.Context, orders []Order) {
	w.logger.Debug("Flushing orders", zap.Int("count", len(orders)))
	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"orders"},
		orderColumns,
		pgx.CopyFromRows(toOrderInterfaces(orders)),
	)
	if err != nil {
		w.logger.Error("Failed to batch insert orders", zap.Error(err), zap.Int("count", len(orders)))
	}
}

func toOrderInterfaces(orders []Order) [][]interface{} {
	rows := make([][]interface{}, len(orders))
	for i, o := range orders {
		rows[i] = []interface{}{o.Time, o.SessionID, o.Symbol, o.Side, o.Price, o.Size, o.OrderID, o.Status}
	}
	return rows
}

// SavePnLSummary は単一のPnLサマリーをデータベースに保存します。
func (w *TimescaleWriter) SavePnLSummary(ctx context.Context, pnl PnLSummary) error {
	query := `INSERT INTO pnl_summary (time, session_id, symbol, realized_pnl, unrealized_pnl, total_pnl,
	              position_size, avg_entry_price, closed_trades, win_rate)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := w.pool.Exec(ctx, query,
		pnl.Time, pnl.SessionID, pnl.Symbol,
		pnl.RealizedPnL, pnl.UnrealizedPnL, pnl.TotalPnL,
		pnl.PositionSize, pnl.AvgEntryPrice, pnl.ClosedTrades, pnl.WinRate,
	)
	if err != nil {
		w.logger.Error("Failed to insert PnL summary", zap.Error(err), zap.Any("pnl", pnl))
		return fmt.Errorf("failed to insert PnL summary: %w", err)
	}
	w.logger.Debug("Saved PnL summary to DB.", zap.String("session", pnl.SessionID))
	return nil
}

// Close はバッファをフラッシュし、データベース接続プールをクローズします。
func (w *TimescaleWriter) Close() {
	w.closeOnce.Do(func() {
		w.logger.Info("Closing TimescaleDB writer...")
		close(w.shutdownChan)
		w.flushTicker.Stop()
		w.flushBuffers()
		w.pool.Close()
		w.logger.Info("TimescaleDB connection pool closed")
	})
}
