package models

import "time"

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TradeStatus tracks the lifecycle of a persisted trade.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "STOP_LOSS"
	ExitTakeProfit   ExitReason = "TAKE_PROFIT"
	ExitTrailingStop ExitReason = "TRAILING_STOP"
	ExitManual       ExitReason = "MANUAL"
)

// TradePlan is a fully specified, not-yet-executed proposed trade. It is
// immutable once created and is consumed exactly once: either executed by the
// state machine's entry step or discarded.
type TradePlan struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Side         Side      `json:"side"`
	EntryPrice   float64   `json:"entry_price"`
	StopPrice    float64   `json:"stop_price"`
	TargetPrice  float64   `json:"target_price"`
	Quantity     float64   `json:"quantity"`
	FeeEstimate  float64   `json:"fee_estimate"`  // round-trip fee estimate, USD
	SlippageEst  float64   `json:"slippage_est"`  // expected slippage cost, USD
	SpreadCost   float64   `json:"spread_cost"`   // half-spread cost at the book, USD
	CreatedAt    time.Time `json:"created_at"`
}

// Reward is the gross profit of the plan if the target is hit.
func (p *TradePlan) Reward() float64 {
	return (p.TargetPrice - p.EntryPrice) * p.Quantity
}

// Risk is the gross loss of the plan if the stop is hit.
func (p *TradePlan) Risk() float64 {
	return (p.EntryPrice - p.StopPrice) * p.Quantity
}

// Trade is the persisted record of an actual position. The engine core keeps
// only the ID of an open trade; everything else lives in the repository.
type Trade struct {
	ID          string      `json:"id"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	Status      TradeStatus `json:"status"`
	EntryPrice  float64     `json:"entry_price"`
	Quantity    float64     `json:"quantity"`
	StopPrice   float64     `json:"stop_price"`
	TargetPrice float64     `json:"target_price"`
	OpenTime    time.Time   `json:"open_time"`

	ExitPrice   float64    `json:"exit_price,omitempty"`
	RealizedPnL float64    `json:"realized_pnl,omitempty"`
	ExitReason  ExitReason `json:"exit_reason,omitempty"`
	CloseTime   time.Time  `json:"close_time,omitempty"`
	Fees        float64    `json:"fees,omitempty"`
}

// Order is a single exchange order attached to a trade.
type Order struct {
	ID            string    `json:"id"`
	TradeID       string    `json:"trade_id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          Side      `json:"side"`
	Type          string    `json:"type"` // "MARKET" or "LIMIT"
	Price         float64   `json:"price"`
	Quantity      float64   `json:"quantity"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Event is one entry of the append-only observability log.
type Event struct {
	Seq        uint64                 `json:"seq"`
	Type       string                 `json:"type"`
	Level      string                 `json:"level"` // "info", "warn", "error"
	Payload    map[string]interface{} `json:"payload,omitempty"`
	PublicSafe bool                   `json:"public_safe"`
	Time       time.Time              `json:"time"`
}
