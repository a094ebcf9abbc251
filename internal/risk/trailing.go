package risk

import (
	"math"
	"sync"

	"trade-engine-go/internal/models"
)

// TrailingStopEntry is the per-open-trade trailing state. The stop only ever
// moves in the profitable direction for a long position.
type TrailingStopEntry struct {
	EntryPrice  float64
	Stop        float64
	HighestHigh float64 // running high since entry, used by chandelier
}

// TrailingStopManager ratchets the stop price of each open trade. Entries
// are inserted when a position opens and removed when it closes; the map is
// keyed by trade id.
type TrailingStopManager struct {
	mu      sync.Mutex
	cfg     models.TrailingStopConfig
	entries map[string]*TrailingStopEntry
}

func NewTrailingStopManager(cfg models.TrailingStopConfig) *TrailingStopManager {
	return &TrailingStopManager{
		cfg:     cfg,
		entries: make(map[string]*TrailingStopEntry),
	}
}

// Track starts trailing a trade at its initial stop.
func (m *TrailingStopManager) Track(tradeID string, entryPrice, initialStop float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[tradeID] = &TrailingStopEntry{
		EntryPrice:  entryPrice,
		Stop:        initialStop,
		HighestHigh: entryPrice,
	}
}

// Remove stops tracking a trade.
func (m *TrailingStopManager) Remove(tradeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tradeID)
}

// Stop returns the current stop level for a tracked trade.
func (m *TrailingStopManager) Stop(tradeID string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tradeID]
	if !ok {
		return 0, false
	}
	return e.Stop, true
}

// Update recomputes the stop for a tracked trade against the latest price
// and candle history, and returns the (possibly unchanged) stop. Trailing
// only activates once unrealized profit exceeds the activation threshold;
// the stop is only ever raised.
func (m *TrailingStopManager) Update(tradeID string, price float64, candles []models.Candle) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[tradeID]
	if !ok {
		return 0, false
	}
	if price > e.HighestHigh {
		e.HighestHigh = price
	}

	if e.EntryPrice <= 0 {
		return e.Stop, true
	}
	unrealizedPct := (price - e.EntryPrice) / e.EntryPrice
	if unrealizedPct < m.cfg.ActivationPct {
		return e.Stop, true
	}

	var candidate float64
	switch m.cfg.Method {
	case "pct":
		candidate = price * (1 - m.cfg.TrailPct)
	case "atr":
		atr := ATR(candles, m.cfg.ATRPeriod)
		if atr <= 0 {
			return e.Stop, true
		}
		candidate = price - m.cfg.ATRMultiplier*atr
	case "chandelier":
		atr := ATR(candles, m.cfg.ATRPeriod)
		if atr <= 0 {
			return e.Stop, true
		}
		hh := math.Max(e.HighestHigh, HighestHigh(candles, m.cfg.ATRPeriod))
		candidate = hh - m.cfg.ATRMultiplier*atr
	default:
		return e.Stop, true
	}

	e.Stop = math.Max(e.Stop, candidate)
	return e.Stop, true
}

// ShouldExit reports whether price has reached or crossed the stop for a
// tracked long trade.
func (m *TrailingStopManager) ShouldExit(tradeID string, price float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[tradeID]
	if !ok {
		return false
	}
	return price <= e.Stop
}
