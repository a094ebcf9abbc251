package backtest

import (
	"fmt"
	"time"

	"trade-engine-go/internal/models"
)

// Spread and per-level size used for the synthetic book. Historical candle
// feeds carry no depth, so the replay book is generated around the close.
const (
	syntheticSpreadPct = 0.0004
	syntheticLevels    = 10
)

// ReplayProvider serves a recorded candle series as if it were live. The
// cursor marks the current bar; GetCandles never returns future bars.
type ReplayProvider struct {
	symbol  string
	candles []models.Candle
	cursor  int
}

func NewReplayProvider(symbol string, candles []models.Candle) *ReplayProvider {
	return &ReplayProvider{symbol: symbol, candles: candles}
}

// Advance moves the cursor to the next bar. Returns false when the series is
// exhausted.
func (p *ReplayProvider) Advance() bool {
	if p.cursor+1 >= len(p.candles) {
		return false
	}
	p.cursor++
	return true
}

// Current returns the bar at the cursor.
func (p *ReplayProvider) Current() models.Candle {
	return p.candles[p.cursor]
}

func (p *ReplayProvider) GetCandles(symbol, timeframe string, limit int) ([]models.Candle, error) {
	if symbol != p.symbol {
		return nil, fmt.Errorf("no recorded data for %s", symbol)
	}
	end := p.cursor + 1
	start := end - limit
	if start < 0 {
		start = 0
	}
	out := make([]models.Candle, end-start)
	copy(out, p.candles[start:end])
	return out, nil
}

// GetOrderbook synthesizes a book around the current close. Level sizes are
// derived from the bar's volume so liquidity roughly tracks the market.
func (p *ReplayProvider) GetOrderbook(symbol string, depth int) (*models.Orderbook, error) {
	if symbol != p.symbol {
		return nil, fmt.Errorf("no recorded data for %s", symbol)
	}
	bar := p.candles[p.cursor]
	mid := bar.Close
	half := mid * syntheticSpreadPct / 2
	if depth <= 0 || depth > syntheticLevels {
		depth = syntheticLevels
	}

	levelSize := bar.Volume / float64(syntheticLevels)
	if levelSize <= 0 {
		levelSize = 1
	}

	ob := &models.Orderbook{
		Symbol: symbol,
		Time:   bar.OpenTime.Add(time.Minute),
	}
	for i := 0; i < depth; i++ {
		step := half * float64(i)
		ob.Bids = append(ob.Bids, models.BookLevel{Price: mid - half - step, Size: levelSize})
		ob.Asks = append(ob.Asks, models.BookLevel{Price: mid + half + step, Size: levelSize})
	}
	return ob, nil
}
