package models

import "time"

// Candle is one OHLCV bar. Market data providers return candles oldest first.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Range is the high-low span of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// BookLevel is one price level of an orderbook side.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Orderbook is a depth snapshot. Bids are sorted best (highest) first, asks
// best (lowest) first.
type Orderbook struct {
	Symbol string      `json:"symbol"`
	Bids   []BookLevel `json:"bids"`
	Asks   []BookLevel `json:"asks"`
	Time   time.Time   `json:"time"`
}

// BestBid returns the top bid, or false when the side is empty.
func (ob *Orderbook) BestBid() (BookLevel, bool) {
	if len(ob.Bids) == 0 {
		return BookLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the top ask, or false when the side is empty.
func (ob *Orderbook) BestAsk() (BookLevel, bool) {
	if len(ob.Asks) == 0 {
		return BookLevel{}, false
	}
	return ob.Asks[0], true
}

// SpreadPct returns the bid-ask spread as a fraction of the mid price.
// Returns 0 when either side is empty.
func (ob *Orderbook) SpreadPct() float64 {
	bid, okB := ob.BestBid()
	ask, okA := ob.BestAsk()
	if !okB || !okA {
		return 0
	}
	mid := (bid.Price + ask.Price) / 2
	if mid <= 0 {
		return 0
	}
	return (ask.Price - bid.Price) / mid
}

// SignalType is the action a signal provider recommends.
type SignalType string

const (
	SignalEnterLong SignalType = "ENTER_LONG"
	SignalHold      SignalType = "HOLD"
	SignalExit      SignalType = "EXIT"
)

// Signal is the output of a signal provider. Breakdown carries per-strategy
// scores for observability; the engine only reads Type.
type Signal struct {
	Type       SignalType         `json:"type"`
	Confidence float64            `json:"confidence"`
	Breakdown  map[string]float64 `json:"breakdown,omitempty"`
}
