package gates

import (
	"testing"

	"trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePlan(entry, stop, target, qty, fee, slip, spread float64) *models.TradePlan {
	return &models.TradePlan{
		Symbol:      "BTCUSDT",
		Side:        models.Buy,
		EntryPrice:  entry,
		StopPrice:   stop,
		TargetPrice: target,
		Quantity:    qty,
		FeeEstimate: fee,
		SlippageEst: slip,
		SpreadCost:  spread,
	}
}

func TestProfitabilityGateAcceptsNetProfit(t *testing.T) {
	g := NewProfitabilityGate(models.ProfitConfig{MinProfitUSD: 1})
	// reward = (102-100)*1 = 2, costs = 0.5 -> net 1.5
	plan := makePlan(100, 99, 102, 1, 0.2, 0.2, 0.1)

	d, breakdown := g.EvaluatePlan(plan)
	assert.True(t, d.Allowed)
	assert.InDelta(t, 2.0, breakdown.GrossReward, 1e-9)
	assert.InDelta(t, 1.5, breakdown.Net, 1e-9)
}

func TestProfitabilityGateRejectsBelowMinimum(t *testing.T) {
	g := NewProfitabilityGate(models.ProfitConfig{MinProfitUSD: 2})
	plan := makePlan(100, 99, 102, 1, 0.2, 0.2, 0.1)

	d, breakdown := g.EvaluatePlan(plan)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "below minimum")
	assert.InDelta(t, 1.5, breakdown.Net, 1e-9)
}

func TestEstimateEntryCostsWalksBook(t *testing.T) {
	ob := &models.Orderbook{
		Symbol: "BTCUSDT",
		Bids:   []models.BookLevel{{Price: 99.9, Size: 10}},
		Asks: []models.BookLevel{
			{Price: 100.0, Size: 1},
			{Price: 100.2, Size: 1},
		},
	}
	cfg := models.ProfitConfig{TakerFeeRate: 0.001, SlippageRate: 0.0005}

	est, err := EstimateEntryCosts(ob, 2, cfg)
	require.NoError(t, err)

	// VWAP = (100 + 100.2) / 2 = 100.1
	assert.InDelta(t, 100.1, est.FillPrice, 1e-9)
	// round-trip fee = 2 * 200.2 * 0.001
	assert.InDelta(t, 0.4004, est.Fee, 1e-9)
	// slippage = (100.1-100)*2 + 200.2*0.0005
	assert.InDelta(t, 0.3001, est.Slippage, 1e-9)
	// half spread 0.05 * qty 2
	assert.InDelta(t, 0.1, est.SpreadCost, 1e-9)
}

func TestEstimateEntryCostsInsufficientLiquidity(t *testing.T) {
	ob := &models.Orderbook{
		Symbol: "BTCUSDT",
		Bids:   []models.BookLevel{{Price: 99.9, Size: 10}},
		Asks:   []models.BookLevel{{Price: 100.0, Size: 0.5}},
	}

	_, err := EstimateEntryCosts(ob, 2, models.ProfitConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient liquidity")
}

func TestEstimateEntryCostsEmptyBook(t *testing.T) {
	_, err := EstimateEntryCosts(&models.Orderbook{Symbol: "BTCUSDT"}, 1, models.ProfitConfig{})
	assert.Error(t, err)
}

func TestEstimateEntryCostsRejectsNonPositiveQuantity(t *testing.T) {
	ob := &models.Orderbook{
		Bids: []models.BookLevel{{Price: 99.9, Size: 1}},
		Asks: []models.BookLevel{{Price: 100.0, Size: 1}},
	}
	_, err := EstimateEntryCosts(ob, 0, models.ProfitConfig{})
	assert.Error(t, err)
}
