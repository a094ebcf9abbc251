package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"trade-engine-go/internal/models"
)

// LoadCandlesCSV reads candles from a CSV file in the downloader's format:
// open_time (ms), open, high, low, close, volume, close_time (ms). A leading
// header row is detected and skipped.
func LoadCandlesCSV(path string) ([]models.Candle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var candles []models.Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		line++
		if len(record) < 6 {
			return nil, fmt.Errorf("%s line %d: expected at least 6 fields, got %d", path, line, len(record))
		}
		if line == 1 {
			if _, err := strconv.ParseInt(record[0], 10, 64); err != nil {
				continue // header row
			}
		}

		c, err := parseCandle(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		candles = append(candles, c)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("%s contains no candles", path)
	}
	return candles, nil
}

func parseCandle(record []string) (models.Candle, error) {
	openMs, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return models.Candle{}, fmt.Errorf("open_time: %w", err)
	}
	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	return models.Candle{
		OpenTime: time.UnixMilli(openMs),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}
