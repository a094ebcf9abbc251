package backtest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCandlesCSVSkipsHeader(t *testing.T) {
	path := writeCSV(t, `open_time,open,high,low,close,volume,close_time
1717243200000,100,101,99,100.5,1234.5,1717243259999
1717243260000,100.5,102,100,101.5,2000,1717243319999
`)

	candles, err := LoadCandlesCSV(path)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, time.UnixMilli(1717243200000), candles[0].OpenTime)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 101.0, candles[0].High)
	assert.Equal(t, 99.0, candles[0].Low)
	assert.Equal(t, 100.5, candles[0].Close)
	assert.Equal(t, 1234.5, candles[0].Volume)
	assert.Equal(t, 101.5, candles[1].Close)
}

func TestLoadCandlesCSVWithoutHeader(t *testing.T) {
	path := writeCSV(t, "1717243200000,100,101,99,100.5,1234.5,1717243259999\n")

	candles, err := LoadCandlesCSV(path)
	require.NoError(t, err)
	require.Len(t, candles, 1)
}

func TestLoadCandlesCSVBadRowReportsLine(t *testing.T) {
	path := writeCSV(t, `open_time,open,high,low,close,volume,close_time
1717243200000,100,101,99,100.5,1234.5,1717243259999
1717243260000,not-a-number,102,100,101.5,2000,1717243319999
`)

	_, err := LoadCandlesCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoadCandlesCSVEmptyFile(t *testing.T) {
	path := writeCSV(t, "open_time,open,high,low,close,volume,close_time\n")
	_, err := LoadCandlesCSV(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candles")
}

func TestLoadCandlesCSVMissingFile(t *testing.T) {
	_, err := LoadCandlesCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}
