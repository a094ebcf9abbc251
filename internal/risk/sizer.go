// Package risk contains position sizing and stop management.
package risk

import (
	"math"

	"trade-engine-go/internal/models"
)

// Sizer converts equity and trade geometry into an order quantity. The
// second return value is false when no viable size exists; that is a routine
// outcome, not an error.
type Sizer interface {
	Calculate(equity, entry, stop, target float64) (float64, bool)
}

// NewSizer returns the sizing strategy selected by the config: the adaptive
// candidate ladder, or the formula-based PositionSizer for every other
// method.
func NewSizer(sizing models.SizingConfig, profit models.ProfitConfig) Sizer {
	if sizing.Method == "adaptive" {
		return NewAdaptiveSizer(sizing, profit)
	}
	return NewPositionSizer(sizing)
}

// PositionSizer sizes by a fixed formula over equity and stop distance.
// Pure: no external state beyond its config.
type PositionSizer struct {
	cfg models.SizingConfig
}

func NewPositionSizer(cfg models.SizingConfig) *PositionSizer {
	return &PositionSizer{cfg: cfg}
}

// Calculate returns the order quantity for the configured method. The target
// is ignored here; only the adaptive sizer prices the reward side.
func (s *PositionSizer) Calculate(equity, entry, stop, target float64) (float64, bool) {
	if entry <= 0 || equity <= 0 {
		return 0, false
	}

	var quantity float64
	switch s.cfg.Method {
	case "fixed":
		quantity = s.cfg.FixedQuantity
	case "risk_pct":
		quantity = s.riskPct(equity, entry, stop)
	case "kelly":
		quantity = s.kelly(equity, entry, stop)
	default:
		return 0, false
	}

	quantity = s.capNotional(quantity, equity, entry)
	if quantity <= 0 {
		return 0, false
	}
	return quantity, true
}

func (s *PositionSizer) riskPct(equity, entry, stop float64) float64 {
	dist := math.Abs(entry - stop)
	if dist == 0 {
		return 0
	}
	riskAmount := equity * s.cfg.RiskPct
	return riskAmount / dist
}

// kelly sizes by the Kelly criterion with defaults for p and b when no live
// stats exist. A non-positive fraction falls back to the fixed method.
func (s *PositionSizer) kelly(equity, entry, stop float64) float64 {
	p := s.cfg.KellyWinRate
	b := s.cfg.KellyWinLoss
	if b <= 0 {
		return 0
	}
	fraction := (p*b - (1 - p)) / b
	if fraction <= 0 {
		return s.cfg.FixedQuantity
	}
	notional := equity * fraction * s.cfg.KellyMultiplier
	return notional / entry
}

// capNotional bounds the position at max_position_pct of equity.
func (s *PositionSizer) capNotional(quantity, equity, entry float64) float64 {
	if s.cfg.MaxPositionPct <= 0 {
		return quantity
	}
	maxNotional := equity * s.cfg.MaxPositionPct
	if quantity*entry > maxNotional {
		return maxNotional / entry
	}
	return quantity
}
