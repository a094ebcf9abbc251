package gates

import (
	"fmt"

	"trade-engine-go/internal/models"
)

// CostBreakdown itemizes the expected economics of a plan. It is returned on
// both accept and reject so the event log always carries the full picture.
type CostBreakdown struct {
	GrossReward float64 `json:"gross_reward"`
	Fee         float64 `json:"fee"`
	Slippage    float64 `json:"slippage"`
	SpreadCost  float64 `json:"spread_cost"`
	Net         float64 `json:"net"`
}

// ProfitabilityGate is the last gate in the pipeline: it accepts a plan only
// when the expected net profit clears the configured minimum. Pure function
// of the plan.
type ProfitabilityGate struct {
	minProfitUSD float64
}

func NewProfitabilityGate(cfg models.ProfitConfig) *ProfitabilityGate {
	return &ProfitabilityGate{minProfitUSD: cfg.MinProfitUSD}
}

func (g *ProfitabilityGate) Name() string { return "profitability" }

// EvaluatePlan decides whether the plan's expected net profit clears the
// minimum. net = reward - fee - slippage - spread.
func (g *ProfitabilityGate) EvaluatePlan(plan *models.TradePlan) (Decision, CostBreakdown) {
	breakdown := CostBreakdown{
		GrossReward: plan.Reward(),
		Fee:         plan.FeeEstimate,
		Slippage:    plan.SlippageEst,
		SpreadCost:  plan.SpreadCost,
	}
	breakdown.Net = breakdown.GrossReward - breakdown.Fee - breakdown.Slippage - breakdown.SpreadCost

	if breakdown.Net < g.minProfitUSD {
		return Reject(fmt.Sprintf("net profit %.4f below minimum %.4f",
			breakdown.Net, g.minProfitUSD)), breakdown
	}
	return Allow(), breakdown
}
