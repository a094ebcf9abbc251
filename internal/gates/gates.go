// Package gates contains the admission-control rules consulted by the entry
// pipeline. Each gate inspects a Context and either allows the candidate
// trade to proceed or rejects it with a reason.
package gates

import (
	"time"

	"trade-engine-go/internal/models"
)

// Context carries the read-only inputs a gate may inspect. It is built fresh
// by the entry pipeline on every evaluation; gates never mutate it.
type Context struct {
	Symbol        string
	Candles       []models.Candle // oldest first
	Orderbook     *models.Orderbook
	Equity        float64
	OpenPositions int
	Now           time.Time
}

// Decision is the outcome of a gate evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a passing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Reject returns a failing decision with a reason for the event log.
func Reject(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Gate is a named admission rule. Gates are composed into an ordered list by
// the entry pipeline; order is significant.
type Gate interface {
	Name() string
	Evaluate(ctx *Context) Decision
}
