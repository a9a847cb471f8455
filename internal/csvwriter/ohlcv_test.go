package csvwriter_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/mtf-macd-bot/internal/csvwriter"
	"github.com/your-org/mtf-macd-bot/internal/datastore"
	"github.com/your-org/mtf-macd-bot/internal/market"
)

func TestWriteOHLCV_RoundTrip(t *testing.T) {
	bars := []market.Bar{
		{Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10, Symbol: "ETHUSDT", Timeframe: market.TF1m},
		{Timestamp: time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), Open: 1.5, High: 1.75, Low: 1.25, Close: 1.25, Volume: 3.5, Symbol: "ETHUSDT", Timeframe: market.TF1m},
	}
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, csvwriter.WriteOHLCV(path, bars, nil))

	got, err := datastore.LoadOHLCVCSV(path)
	require.NoError(t, err)
	assert.Equal(t, bars, got)
}
