// Package signal defines the signal provider boundary and a small built-in
// momentum provider. Strategy models proper (trend, mean reversion, breakout,
// ensembles) live outside the engine.
package signal

import "trade-engine-go/internal/models"

// Provider produces an entry signal from market snapshots. Pure from the
// engine's perspective.
type Provider interface {
	GenerateSignal(symbol string, candles []models.Candle, ob *models.Orderbook) (models.Signal, error)
}
