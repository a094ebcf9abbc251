package market

import "trade-engine-go/internal/models"

// StreamingProvider layers per-symbol aggTrade streams over a REST provider.
// Candles and depth come from REST; the last candle's close is refreshed
// with the most recent streamed trade so decisions between bar closes see
// the current price rather than the last completed bar.
type StreamingProvider struct {
	rest    Provider
	streams map[string]*PriceStream
}

func NewStreamingProvider(rest Provider, wsBaseURL string, symbols []string) *StreamingProvider {
	streams := make(map[string]*PriceStream, len(symbols))
	for _, sym := range symbols {
		streams[sym] = NewPriceStream(wsBaseURL, sym)
	}
	return &StreamingProvider{rest: rest, streams: streams}
}

// Start launches every symbol stream.
func (p *StreamingProvider) Start() {
	for _, s := range p.streams {
		s.Start()
	}
}

// Stop shuts every symbol stream down.
func (p *StreamingProvider) Stop() {
	for _, s := range p.streams {
		s.Stop()
	}
}

func (p *StreamingProvider) GetCandles(symbol, timeframe string, limit int) ([]models.Candle, error) {
	candles, err := p.rest.GetCandles(symbol, timeframe, limit)
	if err != nil {
		return nil, err
	}
	if s, ok := p.streams[symbol]; ok && len(candles) > 0 {
		if price := s.Price(); price > 0 {
			last := &candles[len(candles)-1]
			last.Close = price
			if price > last.High {
				last.High = price
			}
			if price < last.Low {
				last.Low = price
			}
		}
	}
	return candles, nil
}

func (p *StreamingProvider) GetOrderbook(symbol string, depth int) (*models.Orderbook, error) {
	return p.rest.GetOrderbook(symbol, depth)
}
