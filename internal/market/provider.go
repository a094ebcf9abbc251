// Package market supplies candle and orderbook snapshots to the engine.
package market

import "trade-engine-go/internal/models"

// Provider is the market data boundary. Implementations may fail with
// transient I/O errors; the engine core does not retry, it aborts the
// current tick step for that symbol.
type Provider interface {
	// GetCandles returns up to limit OHLCV bars for the symbol, oldest first.
	GetCandles(symbol, timeframe string, limit int) ([]models.Candle, error)

	// GetOrderbook returns a depth snapshot, best price first on both sides.
	GetOrderbook(symbol string, depth int) (*models.Orderbook, error)
}
