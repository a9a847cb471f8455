package datastore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/your-org/mtf-macd-bot/internal/tracker"
)

// ErrEmptyLedger is returned when a ledger file has no header row.
var ErrEmptyLedger = errors.New("ledger is empty")

var ledgerColumns = []string{"timestamp", "side", "symbol", "price", "size", "order_id", "status"}

// ReadLedgerCSV reads a trade ledger written by csvwriter.WriteLedger.
// A header-only file yields an empty ledger and no error.
func ReadLedgerCSV(path string) ([]tracker.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	records, err := ReadLedger(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadLedger decodes ledger rows from r.
func ReadLedger(r io.Reader) ([]tracker.Record, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyLedger
		}
		return nil, fmt.Errorf("failed to read ledger header: %w", err)
	}
	cols := indexColumns(header)
	for _, name := range ledgerColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	records := []tracker.Record{}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := ParseTimestamp(field(rec, cols, "timestamp"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(field(rec, cols, "price"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid price: %w", line, err)
		}
		size, err := strconv.ParseFloat(field(rec, cols, "size"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid size: %w", line, err)
		}
		records = append(records, tracker.Record{
			Timestamp: ts,
			Side:      field(rec, cols, "side"),
			Symbol:    field(rec, cols, "symbol"),
			Price:     price,
			Size:      size,
			OrderID:   field(rec, cols, "order_id"),
			Status:    field(rec, cols, "status"),
		})
	}
	return records, nil
}
