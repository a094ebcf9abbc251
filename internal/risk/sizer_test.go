package risk

import (
	"testing"

	"trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizerFixed(t *testing.T) {
	s := NewPositionSizer(models.SizingConfig{Method: "fixed", FixedQuantity: 0.5})

	qty, ok := s.Calculate(10000, 100, 99, 102)
	require.True(t, ok)
	assert.Equal(t, 0.5, qty)
}

func TestSizerRiskPct(t *testing.T) {
	s := NewPositionSizer(models.SizingConfig{Method: "risk_pct", RiskPct: 0.01})

	// risk budget 100 USD, stop distance 1 -> qty 100
	qty, ok := s.Calculate(10000, 100, 99, 102)
	require.True(t, ok)
	assert.InDelta(t, 100, qty, 1e-9)
}

func TestSizerNotionalCap(t *testing.T) {
	s := NewPositionSizer(models.SizingConfig{
		Method:         "risk_pct",
		RiskPct:        0.01,
		MaxPositionPct: 0.25,
	})

	// uncapped would be 100 units = 10000 notional; cap is 2500
	qty, ok := s.Calculate(10000, 100, 99, 102)
	require.True(t, ok)
	assert.InDelta(t, 25, qty, 1e-9)
}

func TestSizerKelly(t *testing.T) {
	s := NewPositionSizer(models.SizingConfig{
		Method:          "kelly",
		KellyWinRate:    0.6,
		KellyWinLoss:    2.0,
		KellyMultiplier: 0.5,
	})

	// f = (0.6*2 - 0.4) / 2 = 0.4; half Kelly -> 20% of equity
	qty, ok := s.Calculate(10000, 100, 99, 102)
	require.True(t, ok)
	assert.InDelta(t, 20, qty, 1e-9)
}

func TestSizerKellyFallsBackToFixedOnNegativeEdge(t *testing.T) {
	s := NewPositionSizer(models.SizingConfig{
		Method:          "kelly",
		KellyWinRate:    0.3,
		KellyWinLoss:    1.0,
		KellyMultiplier: 0.5,
		FixedQuantity:   0.25,
	})

	qty, ok := s.Calculate(10000, 100, 99, 102)
	require.True(t, ok)
	assert.Equal(t, 0.25, qty)
}

func TestSizerRejectsDegenerateInputs(t *testing.T) {
	s := NewPositionSizer(models.SizingConfig{Method: "risk_pct", RiskPct: 0.01})

	_, ok := s.Calculate(0, 100, 99, 102)
	assert.False(t, ok)

	_, ok = s.Calculate(10000, 0, 99, 102)
	assert.False(t, ok)

	// zero stop distance
	_, ok = s.Calculate(10000, 100, 100, 102)
	assert.False(t, ok)
}

func TestAdaptiveSizerSmallestViableWins(t *testing.T) {
	s := NewAdaptiveSizer(
		models.SizingConfig{CandidateFloor: 100, CandidateCeil: 1000, CandidateSteps: 10, MaxRiskPct: 0.05},
		models.ProfitConfig{MinProfitUSD: 1, TakerFeeRate: 0.001, SlippageRate: 0.0005},
	)

	// candidate 100 USD: qty 1, gross 2, costs 0.25 -> net 1.75 >= 1
	qty, ok := s.Calculate(10000, 100, 99, 102)
	require.True(t, ok)
	assert.InDelta(t, 1.0, qty, 1e-9)
}

func TestAdaptiveSizerSkipsUnprofitableCandidates(t *testing.T) {
	s := NewAdaptiveSizer(
		models.SizingConfig{CandidateFloor: 100, CandidateCeil: 1000, CandidateSteps: 10, MaxRiskPct: 0.05},
		models.ProfitConfig{MinProfitUSD: 3, TakerFeeRate: 0.001, SlippageRate: 0.0005},
	)

	// candidate 100 nets 1.75 < 3; candidate 200 nets 3.5
	qty, ok := s.Calculate(10000, 100, 99, 102)
	require.True(t, ok)
	assert.InDelta(t, 2.0, qty, 1e-9)
}

func TestAdaptiveSizerRiskBoundExcludesLargeCandidates(t *testing.T) {
	s := NewAdaptiveSizer(
		// risk budget = 10000 * 0.00015 = 1.5 USD; only the 100 USD candidate fits
		models.SizingConfig{CandidateFloor: 100, CandidateCeil: 1000, CandidateSteps: 10, MaxRiskPct: 0.00015},
		models.ProfitConfig{MinProfitUSD: 3, TakerFeeRate: 0.001, SlippageRate: 0.0005},
	)

	// the only in-risk candidate is unprofitable at this minimum
	_, ok := s.Calculate(10000, 100, 99, 102)
	assert.False(t, ok)
}

func TestAdaptiveSizerNoViableSize(t *testing.T) {
	s := NewAdaptiveSizer(
		models.SizingConfig{CandidateFloor: 100, CandidateCeil: 1000, CandidateSteps: 10},
		models.ProfitConfig{MinProfitUSD: 1000},
	)

	_, ok := s.Calculate(10000, 100, 99, 102)
	assert.False(t, ok)
}

func TestNewSizerSelectsByMethod(t *testing.T) {
	s := NewSizer(models.SizingConfig{Method: "adaptive"}, models.ProfitConfig{})
	_, ok := s.(*AdaptiveSizer)
	assert.True(t, ok)

	s = NewSizer(models.SizingConfig{Method: "fixed", FixedQuantity: 2}, models.ProfitConfig{})
	qty, viable := s.Calculate(10000, 100, 99, 102)
	assert.True(t, viable)
	assert.Equal(t, 2.0, qty)
}
