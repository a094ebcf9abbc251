// Package execution defines the order execution boundary and a paper
// implementation used by live dry-runs and the backtest harness.
package execution

import "trade-engine-go/internal/models"

// EntryResult is a filled entry: the opened trade plus the orders placed.
type EntryResult struct {
	Trade  *models.Trade
	Orders []*models.Order
}

// ExitResult is a filled exit.
type ExitResult struct {
	Trade  *models.Trade
	Order  *models.Order
	Reason models.ExitReason
}

// Engine is the order execution boundary. Implementations own retries and
// backoff against the exchange; the core treats every call as one fallible
// operation.
type Engine interface {
	// ExecuteEntry places the plan's entry order. A nil result with nil error
	// means the order was not filled and the plan should be discarded.
	ExecuteEntry(plan *models.TradePlan) (*EntryResult, error)

	// CheckExits attempts to close the trade at currentPrice when an exit
	// condition (stop, target) holds. A nil result with nil error means the
	// position stays open.
	CheckExits(tradeID string, currentPrice float64) (*ExitResult, error)

	// UpdateStop moves the working stop of an open trade. Used by the
	// trailing-stop ratchet; the new stop is never below the old one.
	UpdateStop(tradeID string, stop float64) error

	// ReconcileState resyncs the engine with externally persisted open
	// positions. Called once at startup.
	ReconcileState(openTrades []*models.Trade) error
}
