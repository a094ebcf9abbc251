package gates

import (
	"fmt"

	"trade-engine-go/internal/models"
)

// CostEstimate is the result of walking the live orderbook for a proposed
// buy of a given quantity.
type CostEstimate struct {
	FillPrice  float64 // volume-weighted average fill price
	Fee        float64 // round-trip taker fee, USD
	Slippage   float64 // VWAP drift from the best ask plus configured rate, USD
	SpreadCost float64 // half-spread cost, USD
}

// EstimateEntryCosts walks the ask side of the book for quantity and returns
// the expected costs. It fails when the book cannot fill the requested size
// within the snapshot depth; callers treat that as a liquidity rejection,
// not an error.
func EstimateEntryCosts(ob *models.Orderbook, quantity float64, cfg models.ProfitConfig) (CostEstimate, error) {
	if quantity <= 0 {
		return CostEstimate{}, fmt.Errorf("non-positive quantity %.8f", quantity)
	}
	bestAsk, okA := ob.BestAsk()
	bestBid, okB := ob.BestBid()
	if !okA || !okB {
		return CostEstimate{}, fmt.Errorf("orderbook side empty")
	}

	// Walk ask levels until the requested size is covered.
	remaining := quantity
	var notional float64
	for _, lvl := range ob.Asks {
		take := lvl.Size
		if take > remaining {
			take = remaining
		}
		notional += take * lvl.Price
		remaining -= take
		if remaining <= 0 {
			break
		}
	}
	if remaining > 0 {
		return CostEstimate{}, fmt.Errorf("insufficient liquidity: book covers %.8f of %.8f",
			quantity-remaining, quantity)
	}

	vwap := notional / quantity
	est := CostEstimate{
		FillPrice: vwap,
		// Entry and exit both pay taker fees.
		Fee:        2 * notional * cfg.TakerFeeRate,
		Slippage:   (vwap-bestAsk.Price)*quantity + notional*cfg.SlippageRate,
		SpreadCost: (bestAsk.Price - bestBid.Price) / 2 * quantity,
	}
	return est, nil
}
