package downloader

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adshao/go-binance/v2"

	"trade-engine-go/internal/logger"
)

// KlineDownloader pulls historical candles from Binance into CSV files for
// the backtest harness.
type KlineDownloader struct {
	client *binance.Client
}

func NewKlineDownloader() *KlineDownloader {
	// Public market data endpoints need no API key.
	return &KlineDownloader{client: binance.NewClient("", "")}
}

// DownloadKlines fetches candles for the given symbol and interval into a CSV
// file. An existing file is treated as a cache and left untouched.
func (d *KlineDownloader) DownloadKlines(symbol, interval, filePath string, startTime, endTime time.Time) error {
	if _, err := os.Stat(filePath); err == nil {
		logger.S().Infof("using cached data: %s", filePath)
		return nil
	}

	logger.S().Infof("downloading %s %s candles from %s to %s",
		symbol, interval, startTime.Format("2006-01-02"), endTime.Format("2006-01-02"))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filePath, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"open_time", "open", "high", "low", "close", "volume", "close_time"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for t := startTime; t.Before(endTime); {
		klines, err := d.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(t.UnixMilli()).
			EndTime(endTime.UnixMilli()).
			Limit(1000). // Binance caps a single request at 1000 rows
			Do(context.Background())
		if err != nil {
			return fmt.Errorf("fetching klines: %w", err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			record := []string{
				fmt.Sprintf("%d", k.OpenTime),
				k.Open,
				k.High,
				k.Low,
				k.Close,
				k.Volume,
				fmt.Sprintf("%d", k.CloseTime),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("writing CSV record: %w", err)
			}
		}

		t = time.UnixMilli(klines[len(klines)-1].CloseTime + 1)
		logger.S().Debugf("downloaded through %s", t.Format("2006-01-02 15:04:05"))
		time.Sleep(200 * time.Millisecond) // stay under the public rate limit
	}

	logger.S().Infof("saved candle data to %s", filePath)
	return nil
}
