package backtest

import (
	"testing"
	"time"

	"trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replayCandles(n int) []models.Candle {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		price := 100 + float64(i)
		out[i] = models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Minute),
			Open:     price - 0.5,
			High:     price + 1,
			Low:      price - 1,
			Close:    price,
			Volume:   500,
		}
	}
	return out
}

func TestReplayNeverServesFutureBars(t *testing.T) {
	p := NewReplayProvider("BTCUSDT", replayCandles(20))

	// At the first bar only one candle exists regardless of the limit.
	window, err := p.GetCandles("BTCUSDT", "1m", 10)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, 100.0, window[0].Close)

	for i := 0; i < 5; i++ {
		require.True(t, p.Advance())
	}
	window, err = p.GetCandles("BTCUSDT", "1m", 3)
	require.NoError(t, err)
	require.Len(t, window, 3)
	// The last bar of the window is the current one.
	assert.Equal(t, p.Current().Close, window[2].Close)
	assert.Equal(t, 103.0, window[0].Close)
}

func TestReplayAdvanceExhausts(t *testing.T) {
	p := NewReplayProvider("BTCUSDT", replayCandles(3))
	assert.True(t, p.Advance())
	assert.True(t, p.Advance())
	assert.False(t, p.Advance())
	// The cursor stays on the last bar.
	assert.Equal(t, 102.0, p.Current().Close)
}

func TestReplaySyntheticBook(t *testing.T) {
	p := NewReplayProvider("BTCUSDT", replayCandles(5))

	ob, err := p.GetOrderbook("BTCUSDT", 5)
	require.NoError(t, err)
	require.Len(t, ob.Bids, 5)
	require.Len(t, ob.Asks, 5)

	bid, ok := ob.BestBid()
	require.True(t, ok)
	ask, ok := ob.BestAsk()
	require.True(t, ok)

	mid := 100.0
	half := mid * syntheticSpreadPct / 2
	assert.InDelta(t, mid-half, bid.Price, 1e-9)
	assert.InDelta(t, mid+half, ask.Price, 1e-9)
	assert.Less(t, bid.Price, ask.Price)

	// Level sizes derive from the bar's volume.
	assert.InDelta(t, 500.0/float64(syntheticLevels), bid.Size, 1e-9)

	// Bids descend, asks ascend.
	assert.Greater(t, ob.Bids[0].Price, ob.Bids[4].Price)
	assert.Less(t, ob.Asks[0].Price, ob.Asks[4].Price)
}

func TestReplayUnknownSymbol(t *testing.T) {
	p := NewReplayProvider("BTCUSDT", replayCandles(3))
	_, err := p.GetCandles("ETHUSDT", "1m", 10)
	require.Error(t, err)
	_, err = p.GetOrderbook("ETHUSDT", 5)
	require.Error(t, err)
}
