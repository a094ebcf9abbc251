package signal

import (
	"testing"

	"trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candlesFromCloses(closes ...float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 100}
	}
	return out
}

func risingCloses(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func TestMomentumEntersLongOnUptrend(t *testing.T) {
	p := NewMomentumProvider(3, 10)
	sig, err := p.GenerateSignal("BTCUSDT", candlesFromCloses(risingCloses(100, 20)...), nil)
	require.NoError(t, err)
	assert.Equal(t, models.SignalEnterLong, sig.Type)
	assert.Greater(t, sig.Confidence, 0.0)
	assert.Greater(t, sig.Breakdown["sma_fast"], sig.Breakdown["sma_slow"])
}

func TestMomentumHoldsOnDowntrend(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 120 - float64(i)
	}
	p := NewMomentumProvider(3, 10)
	sig, err := p.GenerateSignal("BTCUSDT", candlesFromCloses(closes...), nil)
	require.NoError(t, err)
	assert.Equal(t, models.SignalHold, sig.Type)
}

func TestMomentumHoldsWithShortHistory(t *testing.T) {
	p := NewMomentumProvider(3, 10)
	sig, err := p.GenerateSignal("BTCUSDT", candlesFromCloses(100, 101, 102), nil)
	require.NoError(t, err)
	assert.Equal(t, models.SignalHold, sig.Type)
	assert.Nil(t, sig.Breakdown)
}

func TestMomentumInvalidPeriods(t *testing.T) {
	p := NewMomentumProvider(10, 5)
	_, err := p.GenerateSignal("BTCUSDT", candlesFromCloses(risingCloses(100, 20)...), nil)
	require.Error(t, err)
}

func TestMomentumConfidenceCapped(t *testing.T) {
	// An extreme move keeps confidence within [0, 1].
	closes := append(risingCloses(1, 10), 1000, 2000, 3000)
	p := NewMomentumProvider(2, 10)
	sig, err := p.GenerateSignal("BTCUSDT", candlesFromCloses(closes...), nil)
	require.NoError(t, err)
	assert.Equal(t, models.SignalEnterLong, sig.Type)
	assert.LessOrEqual(t, sig.Confidence, 1.0)
}
