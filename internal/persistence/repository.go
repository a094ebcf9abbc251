package persistence

import (
	"time"

	"trade-engine-go/internal/models"
)

// Repository is the persistence and query boundary of the engine. The core
// never holds trade history itself; daily PnL, equity and restart recovery
// are all derived through these queries.
type Repository interface {
	// SaveTrade persists a new trade record.
	SaveTrade(t *models.Trade) error

	// UpdateTrade overwrites an existing trade record.
	UpdateTrade(t *models.Trade) error

	// GetTrade loads one trade by id. Returns (nil, nil) when absent.
	GetTrade(id string) (*models.Trade, error)

	// SaveOrder persists an exchange order attached to a trade.
	SaveOrder(o *models.Order) error

	// AppendEvent appends one entry to the append-only observability log.
	AppendEvent(eventType, level string, payload map[string]interface{}, publicSafe bool) error

	// CalculateEquity returns startingCash plus all realized PnL.
	CalculateEquity(startingCash float64) (float64, error)

	// GetTodayRealizedPnL sums the realized PnL of trades closed during the
	// current local day in loc.
	GetTodayRealizedPnL(loc *time.Location) (float64, error)

	// GetTodayClosedTrades returns today's closed trades ordered by close
	// time, oldest first.
	GetTodayClosedTrades(loc *time.Location) ([]*models.Trade, error)

	// GetClosedTrades returns every closed trade ordered by close time,
	// oldest first. Used by the session reporter.
	GetClosedTrades() ([]*models.Trade, error)

	// GetOpenTrades returns all trades with status OPEN, used for startup
	// reconciliation.
	GetOpenTrades() ([]*models.Trade, error)

	// Close releases the underlying storage.
	Close() error
}
