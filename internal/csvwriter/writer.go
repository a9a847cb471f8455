// Package csvwriter persists the trade ledger and bar files as CSV.
package csvwriter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// LedgerHeader is the column order of every ledger file.
var LedgerHeader = []string{"timestamp", "side", "symbol", "price", "size", "order_id", "status"}

// Writer writes CSV rows to a temporary file next to the destination and
// renames it into place on Close, so readers never see a partial file.
type Writer struct {
	path   string
	file   *os.File
	writer *csv.Writer
	logger *zap.Logger
	mu     sync.Mutex
	done   bool
}

// NewWriter prepares a replacement for filePath, creating missing parent
// directories.
func NewWriter(filePath string, logger *zap.Logger) (*Writer, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for CSV: %w", err)
	}
	file, err := os.CreateTemp(dir, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		path:   filePath,
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger,
	}, nil
}

// Write writes a record to the CSV file.
func (w *Writer) Write(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record to CSV: %w", err)
	}
	return nil
}

// WriteRecord writes one ledger row.
func (w *Writer) WriteRecord(r tracker.Record) error {
	return w.Write(FormatRecord(r))
}

// Close flushes the rows and replaces the destination file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return nil
	}
	w.done = true

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.discard()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.file.Name())
		return fmt.Errorf("failed to close CSV: %w", err)
	}
	if err := os.Rename(w.file.Name(), w.path); err != nil {
		_ = os.Remove(w.file.Name())
		return fmt.Errorf("failed to replace %s: %w", w.path, err)
	}
	return nil
}

// Abort drops everything written so far and leaves the destination as it was.
func (w *Writer) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return
	}
	w.done = true
	w.discard()
}

func (w *Writer) discard() {
	_ = w.file.Close()
	_ = os.Remove(w.file.Name())
}

// FormatRecord renders r in LedgerHeader order. Timestamps are RFC3339 with
// sub-second precision when present.
func FormatRecord(r tracker.Record) []string {
	return []string{
		r.Timestamp.Format(time.RFC3339Nano),
		r.Side,
		r.Symbol,
		strconv.FormatFloat(r.Price, 'f', -1, 64),
		strconv.FormatFloat(r.Size, 'f', -1, 64),
		r.OrderID,
		r.Status,
	}
}

// WriteLedger replaces path with the header followed by records. The header
// is written even when records is empty.
func WriteLedger(path string, records []tracker.Record, logger *zap.Logger) error {
	w, err := NewWriter(path, logger)
	if err != nil {
		return err
	}
	if err := w.Write(LedgerHeader); err != nil {
		w.Abort()
		return err
	}
	for _, r := range records {
		if err := w.WriteRecord(r); err != nil {
			w.Abort()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize ledger %s: %w", path, err)
	}
	w.logger.Debug("Ledger saved", zap.String("path", path), zap.Int("rows", len(records)))
	return nil
}
