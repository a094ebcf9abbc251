package execution

import (
	"fmt"
	"sync"

	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/ids"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
)

type paperPosition struct {
	trade       *models.Trade
	initialStop float64 // distinguishes stop-loss exits from trailing-stop exits
	fees        float64
}

// PaperEngine simulates execution in memory: entries fill at the plan's
// entry price, exits fill at the stop/target level that was hit. Orders
// never touch an exchange. Used for dry runs and by the backtest harness.
type PaperEngine struct {
	mu        sync.Mutex
	clk       clock.Clock
	feeRate   float64
	positions map[string]*paperPosition
}

func NewPaperEngine(clk clock.Clock, feeRate float64) *PaperEngine {
	return &PaperEngine{
		clk:       clk,
		feeRate:   feeRate,
		positions: make(map[string]*paperPosition),
	}
}

func (e *PaperEngine) ExecuteEntry(plan *models.TradePlan) (*EntryResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	entryFee := plan.Quantity * plan.EntryPrice * e.feeRate
	trade := &models.Trade{
		ID:          ids.New(),
		Symbol:      plan.Symbol,
		Side:        plan.Side,
		Status:      models.TradeOpen,
		EntryPrice:  plan.EntryPrice,
		Quantity:    plan.Quantity,
		StopPrice:   plan.StopPrice,
		TargetPrice: plan.TargetPrice,
		OpenTime:    now,
		Fees:        entryFee,
	}
	order := &models.Order{
		ID:            ids.New(),
		TradeID:       trade.ID,
		ClientOrderID: ids.NewWithPrefix("ppr"),
		Symbol:        plan.Symbol,
		Side:          plan.Side,
		Type:          "MARKET",
		Price:         plan.EntryPrice,
		Quantity:      plan.Quantity,
		Status:        "FILLED",
		CreatedAt:     now,
	}

	e.positions[trade.ID] = &paperPosition{
		trade:       trade,
		initialStop: plan.StopPrice,
		fees:        entryFee,
	}
	logger.S().Infof("paper entry filled: %s %s %.8f @ %.4f", plan.Symbol, plan.Side, plan.Quantity, plan.EntryPrice)
	return &EntryResult{Trade: trade, Orders: []*models.Order{order}}, nil
}

func (e *PaperEngine) CheckExits(tradeID string, currentPrice float64) (*ExitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[tradeID]
	if !ok {
		return nil, fmt.Errorf("unknown trade id %s", tradeID)
	}
	t := pos.trade

	var exitPrice float64
	var reason models.ExitReason
	switch {
	case currentPrice <= t.StopPrice:
		exitPrice = t.StopPrice
		reason = models.ExitStopLoss
		if t.StopPrice > pos.initialStop {
			reason = models.ExitTrailingStop
		}
	case currentPrice >= t.TargetPrice:
		exitPrice = t.TargetPrice
		reason = models.ExitTakeProfit
	default:
		return nil, nil // still open
	}

	now := e.clk.Now()
	exitFee := t.Quantity * exitPrice * e.feeRate
	t.Status = models.TradeClosed
	t.ExitPrice = exitPrice
	t.CloseTime = now
	t.ExitReason = reason
	t.Fees = pos.fees + exitFee
	t.RealizedPnL = (exitPrice-t.EntryPrice)*t.Quantity - t.Fees

	order := &models.Order{
		ID:            ids.New(),
		TradeID:       t.ID,
		ClientOrderID: ids.NewWithPrefix("ppr"),
		Symbol:        t.Symbol,
		Side:          models.Sell,
		Type:          "MARKET",
		Price:         exitPrice,
		Quantity:      t.Quantity,
		Status:        "FILLED",
		CreatedAt:     now,
	}

	delete(e.positions, tradeID)
	logger.S().Infof("paper exit filled: %s %s @ %.4f pnl %.4f", t.Symbol, reason, exitPrice, t.RealizedPnL)
	return &ExitResult{Trade: t, Order: order, Reason: reason}, nil
}

func (e *PaperEngine) UpdateStop(tradeID string, stop float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[tradeID]
	if !ok {
		return fmt.Errorf("unknown trade id %s", tradeID)
	}
	if stop > pos.trade.StopPrice {
		pos.trade.StopPrice = stop
	}
	return nil
}

func (e *PaperEngine) ReconcileState(openTrades []*models.Trade) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, t := range openTrades {
		if t.Status != models.TradeOpen {
			continue
		}
		if _, exists := e.positions[t.ID]; exists {
			continue
		}
		e.positions[t.ID] = &paperPosition{
			trade:       t,
			initialStop: t.StopPrice,
			fees:        t.Fees,
		}
		logger.S().Infof("reconciled open trade %s (%s)", t.ID, t.Symbol)
	}
	return nil
}

// CloseAt force-closes an open position at the given price with a MANUAL
// exit reason. The backtest harness uses it to liquidate at the last bar.
func (e *PaperEngine) CloseAt(tradeID string, price float64) (*ExitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos, ok := e.positions[tradeID]
	if !ok {
		return nil, fmt.Errorf("unknown trade id %s", tradeID)
	}
	t := pos.trade

	now := e.clk.Now()
	exitFee := t.Quantity * price * e.feeRate
	t.Status = models.TradeClosed
	t.ExitPrice = price
	t.CloseTime = now
	t.ExitReason = models.ExitManual
	t.Fees = pos.fees + exitFee
	t.RealizedPnL = (price-t.EntryPrice)*t.Quantity - t.Fees

	order := &models.Order{
		ID:            ids.New(),
		TradeID:       t.ID,
		ClientOrderID: ids.NewWithPrefix("ppr"),
		Symbol:        t.Symbol,
		Side:          models.Sell,
		Type:          "MARKET",
		Price:         price,
		Quantity:      t.Quantity,
		Status:        "FILLED",
		CreatedAt:     now,
	}

	delete(e.positions, tradeID)
	logger.S().Infof("paper manual close: %s @ %.4f pnl %.4f", t.Symbol, price, t.RealizedPnL)
	return &ExitResult{Trade: t, Order: order, Reason: models.ExitManual}, nil
}

// OpenPositionCount returns the number of simulated open positions.
func (e *PaperEngine) OpenPositionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.positions)
}
