package gates

import (
	"fmt"
	"math"

	"trade-engine-go/internal/models"
)

// RegimeFilter rejects entries when the market for a symbol looks
// non-trending or illiquid over the recent candle window. Thresholds can be
// overridden per symbol.
type RegimeFilter struct {
	cfg models.RegimeConfig
}

func NewRegimeFilter(cfg models.RegimeConfig) *RegimeFilter {
	return &RegimeFilter{cfg: cfg}
}

func (f *RegimeFilter) Name() string { return "regime" }

func (f *RegimeFilter) Evaluate(ctx *Context) Decision {
	if len(ctx.Candles) < 2 {
		return Reject("insufficient candle history")
	}

	trendThreshold := f.cfg.TrendThresholdPct
	minVolume := f.cfg.MinAvgVolume
	if ov, ok := f.cfg.Overrides[ctx.Symbol]; ok {
		trendThreshold = ov.TrendThresholdPct
		minVolume = ov.MinAvgVolume
	}

	first := ctx.Candles[0]
	last := ctx.Candles[len(ctx.Candles)-1]
	if first.Close <= 0 {
		return Reject("invalid candle data")
	}
	netMovePct := math.Abs(last.Close-first.Close) / first.Close

	var totalVolume float64
	for _, c := range ctx.Candles {
		totalVolume += c.Volume
	}
	avgVolume := totalVolume / float64(len(ctx.Candles))

	if netMovePct < trendThreshold {
		return Reject(fmt.Sprintf("market not trending: net move %.4f%% < %.4f%%",
			netMovePct*100, trendThreshold*100))
	}
	if avgVolume < minVolume {
		return Reject(fmt.Sprintf("market illiquid: avg volume %.2f < %.2f",
			avgVolume, minVolume))
	}
	return Allow()
}
