package risk

import (
	"math"

	"trade-engine-go/internal/models"
)

// ATR returns the average true range over the last period candles. Returns 0
// when there is not enough history.
func ATR(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}

	start := len(candles) - period
	var sum float64
	for i := start; i < len(candles); i++ {
		prevClose := candles[i-1].Close
		tr := math.Max(candles[i].High-candles[i].Low,
			math.Max(math.Abs(candles[i].High-prevClose), math.Abs(candles[i].Low-prevClose)))
		sum += tr
	}
	return sum / float64(period)
}

// HighestHigh returns the maximum high of the last period candles, or 0 when
// history is short.
func HighestHigh(candles []models.Candle, period int) float64 {
	if period <= 0 || len(candles) == 0 {
		return 0
	}
	start := len(candles) - period
	if start < 0 {
		start = 0
	}
	var hh float64
	for _, c := range candles[start:] {
		if c.High > hh {
			hh = c.High
		}
	}
	return hh
}
