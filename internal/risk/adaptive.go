package risk

import (
	"trade-engine-go/internal/models"
)

// AdaptiveSizer searches a fixed ascending ladder of candidate notional
// values and returns the smallest one that is both inside the max-risk bound
// and expected to be profitable. Selected with the "adaptive" sizing method.
type AdaptiveSizer struct {
	sizing models.SizingConfig
	profit models.ProfitConfig
}

func NewAdaptiveSizer(sizing models.SizingConfig, profit models.ProfitConfig) *AdaptiveSizer {
	return &AdaptiveSizer{sizing: sizing, profit: profit}
}

// Calculate returns the smallest viable quantity for the trade geometry, or
// false when no ladder candidate qualifies.
//
// Candidates are iterated ascending; any candidate whose risk exceeds
// max_risk_pct of equity is skipped, and the first profitable one wins.
func (s *AdaptiveSizer) Calculate(equity, entry, stop, target float64) (float64, bool) {
	if entry <= 0 || equity <= 0 || s.sizing.CandidateSteps <= 0 {
		return 0, false
	}
	floor := s.sizing.CandidateFloor
	ceil := s.sizing.CandidateCeil
	if floor <= 0 || ceil < floor {
		return 0, false
	}

	step := 0.0
	if s.sizing.CandidateSteps > 1 {
		step = (ceil - floor) / float64(s.sizing.CandidateSteps-1)
	}

	for i := 0; i < s.sizing.CandidateSteps; i++ {
		notional := floor + float64(i)*step
		quantity := notional / entry

		risk := quantity * (entry - stop)
		if s.sizing.MaxRiskPct > 0 && risk > equity*s.sizing.MaxRiskPct {
			continue
		}
		if s.profitable(quantity, entry, target) {
			return quantity, true
		}
	}
	return 0, false
}

func (s *AdaptiveSizer) profitable(quantity, entry, target float64) bool {
	gross := quantity * (target - entry)
	notional := quantity * entry
	costs := 2*notional*s.profit.TakerFeeRate + notional*s.profit.SlippageRate
	return gross-costs >= s.profit.MinProfitUSD
}
