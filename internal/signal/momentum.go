package signal

import (
	"fmt"

	"trade-engine-go/internal/models"
)

// MomentumProvider is a minimal SMA-crossover provider so the engine can run
// end to end without an external model: enter long when the fast SMA is above
// the slow SMA and the last close confirms.
type MomentumProvider struct {
	fastPeriod int
	slowPeriod int
}

func NewMomentumProvider(fastPeriod, slowPeriod int) *MomentumProvider {
	return &MomentumProvider{fastPeriod: fastPeriod, slowPeriod: slowPeriod}
}

func (p *MomentumProvider) GenerateSignal(symbol string, candles []models.Candle, ob *models.Orderbook) (models.Signal, error) {
	if len(candles) < p.slowPeriod {
		return models.Signal{Type: models.SignalHold}, nil
	}
	if p.fastPeriod <= 0 || p.slowPeriod <= p.fastPeriod {
		return models.Signal{}, fmt.Errorf("invalid SMA periods fast=%d slow=%d", p.fastPeriod, p.slowPeriod)
	}

	fast := sma(candles, p.fastPeriod)
	slow := sma(candles, p.slowPeriod)
	last := candles[len(candles)-1].Close

	breakdown := map[string]float64{
		"sma_fast": fast,
		"sma_slow": slow,
		"last":     last,
	}

	if fast > slow && last > fast {
		confidence := (fast - slow) / slow
		if confidence > 1 {
			confidence = 1
		}
		return models.Signal{Type: models.SignalEnterLong, Confidence: confidence, Breakdown: breakdown}, nil
	}
	return models.Signal{Type: models.SignalHold, Breakdown: breakdown}, nil
}

func sma(candles []models.Candle, period int) float64 {
	var sum float64
	for _, c := range candles[len(candles)-period:] {
		sum += c.Close
	}
	return sum / float64(period)
}
