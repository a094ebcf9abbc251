package engine

import (
	"fmt"
	"math"
	"time"

	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/execution"
	"trade-engine-go/internal/gates"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/market"
	"trade-engine-go/internal/models"
	"trade-engine-go/internal/persistence"
	"trade-engine-go/internal/risk"
	"trade-engine-go/internal/safety"
)

// Alerter is the outbound notification hook. Delivery failures must never
// affect trading decisions, so implementations are fire-and-forget.
type Alerter interface {
	Notify(title, message string)
}

// Deps bundles everything the trading loop needs. Built once at process
// start and passed in; no hidden globals.
type Deps struct {
	Config     *models.Config
	Location   *time.Location
	Clock      clock.Clock
	MarketData market.Provider
	Execution  execution.Engine
	Repo       persistence.Repository
	Pipeline   *EntryPipeline

	Cooldown   *gates.CooldownGate
	SymbolLoss *gates.DailySymbolLossLimit
	Streak     *gates.StreakSizer
	Trailing   *risk.TrailingStopManager
	Breakers   *safety.BreakerManager
	Kill       *safety.KillSwitch

	Alerts Alerter // optional
}

// TradingLoop advances every symbol's state machine by one step per tick.
// Logically single threaded: one Tick processes all symbols sequentially and
// owns all shared gate state.
type TradingLoop struct {
	d        Deps
	machines map[string]*StateMachine

	peakEquity        float64
	consecutiveLosses int // across all symbols, feeds the kill switch
}

func NewTradingLoop(d Deps) *TradingLoop {
	machines := make(map[string]*StateMachine, len(d.Config.Symbols))
	for _, sym := range d.Config.Symbols {
		machines[sym] = NewStateMachine(sym)
	}
	return &TradingLoop{d: d, machines: machines}
}

// ReconcileState resyncs the loop with externally persisted open positions.
// Called once at startup, before the first tick.
func (l *TradingLoop) ReconcileState() error {
	open, err := l.d.Repo.GetOpenTrades()
	if err != nil {
		return fmt.Errorf("loading open trades: %w", err)
	}
	if err := l.d.Execution.ReconcileState(open); err != nil {
		return fmt.Errorf("execution reconcile: %w", err)
	}

	for _, t := range open {
		m, ok := l.machines[t.Symbol]
		if !ok {
			logger.S().Warnf("open trade %s on unmanaged symbol %s", t.ID, t.Symbol)
			continue
		}
		if m.OpenTrade() != "" {
			// At most one open trade per symbol is tracked by the core.
			logger.S().Errorf("invariant violation: second open trade %s for %s", t.ID, t.Symbol)
			continue
		}
		m.SetOpenTrade(t.ID)
		m.TransitionTo(StateInPosition)
		l.d.Trailing.Track(t.ID, t.EntryPrice, t.StopPrice)
		logger.S().Infof("recovered open position %s on %s", t.ID, t.Symbol)
	}
	return nil
}

// Tick advances every symbol by one state-machine step. A collaborator
// failure on one symbol is contained to that symbol.
func (l *TradingLoop) Tick() error {
	l.checkKillThresholds()

	for _, sym := range l.d.Config.Symbols {
		if err := l.stepSymbol(l.machines[sym]); err != nil {
			l.appendEvent("tick.error", "error", map[string]interface{}{
				"symbol": sym, "error": err.Error(),
			})
			logger.S().Errorf("[%s] tick step failed: %v", sym, err)
		}
	}
	return nil
}

// OpenPositionCount returns how many symbols currently hold a position.
func (l *TradingLoop) OpenPositionCount() int {
	n := 0
	for _, m := range l.machines {
		if m.OpenTrade() != "" {
			n++
		}
	}
	return n
}

// Machine exposes a symbol's state machine, used by the host and tests.
func (l *TradingLoop) Machine(symbol string) *StateMachine {
	return l.machines[symbol]
}

func (l *TradingLoop) stepSymbol(m *StateMachine) error {
	if m.State() == StateIdle {
		// IDLE completes synchronously and chains into EVAL within the tick.
		m.TransitionTo(StateEval)
	}

	switch m.State() {
	case StateEval:
		return l.stepEval(m)
	case StateEntryPending:
		return l.stepEntryPending(m)
	case StateInPosition:
		return l.stepInPosition(m)
	case StateExitPending:
		return l.stepExitPending(m)
	}
	return nil
}

func (l *TradingLoop) stepEval(m *StateMachine) error {
	ctx, err := l.buildContext(m.Symbol())
	if err != nil {
		// Transient I/O failure: abort this transition, no side effects.
		m.Reset("market data unavailable: " + err.Error())
		return err
	}

	plan, rejection, err := l.d.Pipeline.Evaluate(ctx)
	if err != nil {
		m.Reset("pipeline error: " + err.Error())
		return err
	}
	if plan == nil {
		if rejection != nil {
			logger.S().Debugf("[%s] entry rejected at %s: %s", m.Symbol(), rejection.Step, rejection.Reason)
		}
		m.TransitionTo(StateIdle)
		return nil
	}

	m.SetPlan(plan)
	m.TransitionTo(StateEntryPending)
	return nil
}

func (l *TradingLoop) stepEntryPending(m *StateMachine) error {
	plan := m.TakePlan()
	if plan == nil {
		l.invariantViolation(m, "ENTRY_PENDING with no cached plan")
		return nil
	}

	res, err := l.d.Execution.ExecuteEntry(plan)
	if err != nil {
		// The collaborator raised before any side effect; the plan dies here.
		m.Reset("entry execution failed: " + err.Error())
		return fmt.Errorf("executing entry for %s: %w", plan.Symbol, err)
	}
	if res == nil {
		m.Reset("entry not filled")
		return nil
	}

	// The fill happened; own the position before anything else can fail.
	m.SetOpenTrade(res.Trade.ID)
	m.TransitionTo(StateInPosition)
	l.d.Trailing.Track(res.Trade.ID, res.Trade.EntryPrice, res.Trade.StopPrice)

	if err := l.d.Repo.SaveTrade(res.Trade); err != nil {
		logger.S().Errorf("persisting trade %s: %v", res.Trade.ID, err)
	}
	for _, o := range res.Orders {
		if err := l.d.Repo.SaveOrder(o); err != nil {
			logger.S().Errorf("persisting order %s: %v", o.ID, err)
		}
	}

	l.appendEvent("trade.opened", "info", map[string]interface{}{
		"trade_id": res.Trade.ID, "symbol": res.Trade.Symbol,
		"entry": res.Trade.EntryPrice, "quantity": res.Trade.Quantity,
	})
	l.notify("Position opened", fmt.Sprintf("%s %.8f @ %.4f",
		res.Trade.Symbol, res.Trade.Quantity, res.Trade.EntryPrice))
	return nil
}

func (l *TradingLoop) stepInPosition(m *StateMachine) error {
	tradeID := m.OpenTrade()
	if tradeID == "" {
		l.invariantViolation(m, "IN_POSITION with no open trade id")
		return nil
	}

	price, candles, err := l.currentPrice(m.Symbol())
	if err != nil {
		// Keep the position; try again next tick.
		return err
	}

	trade, err := l.d.Repo.GetTrade(tradeID)
	if err != nil {
		return fmt.Errorf("loading trade %s: %w", tradeID, err)
	}
	if trade == nil {
		l.invariantViolation(m, "open trade "+tradeID+" missing from repository")
		return nil
	}

	if stop, ok := l.d.Trailing.Update(tradeID, price, candles); ok {
		if err := l.d.Execution.UpdateStop(tradeID, stop); err != nil {
			logger.S().Warnf("[%s] updating stop for %s: %v", m.Symbol(), tradeID, err)
		}
		if stop != trade.StopPrice {
			trade.StopPrice = stop
			if err := l.d.Repo.UpdateTrade(trade); err != nil {
				logger.S().Warnf("[%s] persisting stop update: %v", m.Symbol(), err)
			}
		}
	}

	if l.d.Trailing.ShouldExit(tradeID, price) || price >= trade.TargetPrice {
		m.TransitionTo(StateExitPending)
		// The exit completes synchronously when the engine can fill it now.
		return l.stepExitPending(m)
	}
	return nil
}

func (l *TradingLoop) stepExitPending(m *StateMachine) error {
	tradeID := m.OpenTrade()
	if tradeID == "" {
		l.invariantViolation(m, "EXIT_PENDING with no open trade id")
		return nil
	}

	price, _, err := l.currentPrice(m.Symbol())
	if err != nil {
		// Never abandon an open position over a transient failure; stay in
		// EXIT_PENDING and retry next tick.
		return err
	}

	res, err := l.d.Execution.CheckExits(tradeID, price)
	if err != nil {
		return fmt.Errorf("checking exits for %s: %w", tradeID, err)
	}
	if res == nil {
		// Exit condition no longer holds at the engine; keep waiting.
		return nil
	}

	if err := l.d.Repo.UpdateTrade(res.Trade); err != nil {
		return fmt.Errorf("persisting closed trade %s: %w", res.Trade.ID, err)
	}
	if res.Order != nil {
		if err := l.d.Repo.SaveOrder(res.Order); err != nil {
			logger.S().Errorf("persisting exit order: %v", err)
		}
	}

	l.d.Trailing.Remove(tradeID)
	m.ClearOpenTrade()
	m.TransitionTo(StateIdle)

	l.onTradeClosed(res.Trade, res.Reason)
	return nil
}

// onTradeClosed feeds every loss/win tracker and arms the consecutive-loss
// breaker when the streak reaches its threshold.
func (l *TradingLoop) onTradeClosed(t *models.Trade, reason models.ExitReason) {
	now := l.d.Clock.Now()
	l.d.Cooldown.RecordExit(t.Symbol, reason, now)

	if t.RealizedPnL < 0 {
		l.d.SymbolLoss.RecordLoss(t.Symbol, now)
		l.d.Streak.RecordLoss(t.Symbol)
		l.consecutiveLosses++
		l.checkConsecutiveLosses(t.Symbol)
	} else {
		l.d.SymbolLoss.RecordWin(t.Symbol, now)
		l.d.Streak.RecordWin(t.Symbol)
		l.consecutiveLosses = 0
	}

	l.appendEvent("trade.closed", "info", map[string]interface{}{
		"trade_id": t.ID, "symbol": t.Symbol, "reason": string(reason),
		"exit": t.ExitPrice, "pnl": t.RealizedPnL,
	})
	l.notify("Position closed", fmt.Sprintf("%s %s @ %.4f, pnl %.4f",
		t.Symbol, reason, t.ExitPrice, t.RealizedPnL))
}

func (l *TradingLoop) checkConsecutiveLosses(symbol string) {
	cfg := l.d.Config.Breakers
	if cfg.ConsecutiveLosses <= 0 {
		return
	}
	losses := l.d.Streak.Losses(symbol)
	if losses >= cfg.ConsecutiveLosses && !l.d.Breakers.IsActive(safety.BreakerConsecutiveLosses) {
		l.d.Breakers.TriggerBreaker(safety.BreakerConsecutiveLosses,
			fmt.Sprintf("%d consecutive losses on %s", losses, symbol),
			cfg.ConsecutiveLossPauseMin,
			map[string]interface{}{"symbol": symbol})
	}
}

// checkKillThresholds recomputes equity and daily PnL once per tick and lets
// the kill switch decide whether to halt.
func (l *TradingLoop) checkKillThresholds() {
	equity, err := l.d.Repo.CalculateEquity(l.d.Config.StartingCash)
	if err != nil {
		logger.S().Errorf("equity calculation failed: %v", err)
		return
	}
	l.peakEquity = math.Max(l.peakEquity, equity)

	dailyPnL, err := l.d.Repo.GetTodayRealizedPnL(l.d.Location)
	if err != nil {
		logger.S().Errorf("daily PnL query failed: %v", err)
		return
	}
	dailyPnLPct := 0.0
	if l.d.Config.StartingCash > 0 {
		dailyPnLPct = dailyPnL / l.d.Config.StartingCash
	}

	l.d.Kill.CheckThresholds(dailyPnLPct, equity, l.peakEquity, l.consecutiveLosses)
}

func (l *TradingLoop) buildContext(symbol string) (*gates.Context, error) {
	candles, err := l.d.MarketData.GetCandles(symbol, l.d.Config.CandleTimeframe, l.d.Config.CandleLimit)
	if err != nil {
		return nil, fmt.Errorf("candles for %s: %w", symbol, err)
	}
	ob, err := l.d.MarketData.GetOrderbook(symbol, l.d.Config.OrderbookDepth)
	if err != nil {
		return nil, fmt.Errorf("orderbook for %s: %w", symbol, err)
	}
	equity, err := l.d.Repo.CalculateEquity(l.d.Config.StartingCash)
	if err != nil {
		return nil, fmt.Errorf("equity: %w", err)
	}

	return &gates.Context{
		Symbol:        symbol,
		Candles:       candles,
		Orderbook:     ob,
		Equity:        equity,
		OpenPositions: l.OpenPositionCount(),
		Now:           l.d.Clock.Now(),
	}, nil
}

// currentPrice returns the best bid (the sell side of an open long) with the
// candle history used by ATR-based trailing. Falls back to the last close
// when the bid side is empty.
func (l *TradingLoop) currentPrice(symbol string) (float64, []models.Candle, error) {
	candles, err := l.d.MarketData.GetCandles(symbol, l.d.Config.CandleTimeframe, l.d.Config.CandleLimit)
	if err != nil {
		return 0, nil, fmt.Errorf("candles for %s: %w", symbol, err)
	}
	ob, err := l.d.MarketData.GetOrderbook(symbol, l.d.Config.OrderbookDepth)
	if err != nil {
		return 0, nil, fmt.Errorf("orderbook for %s: %w", symbol, err)
	}
	if bid, ok := ob.BestBid(); ok {
		return bid.Price, candles, nil
	}
	if len(candles) > 0 {
		return candles[len(candles)-1].Close, candles, nil
	}
	return 0, nil, fmt.Errorf("no price available for %s", symbol)
}

func (l *TradingLoop) invariantViolation(m *StateMachine, detail string) {
	logger.S().Errorf("INVARIANT VIOLATION [%s]: %s", m.Symbol(), detail)
	l.appendEvent("invariant.violation", "error", map[string]interface{}{
		"symbol": m.Symbol(), "state": string(m.State()), "detail": detail,
	})
	m.Reset("invariant violation: " + detail)
}

func (l *TradingLoop) appendEvent(eventType, level string, payload map[string]interface{}) {
	if err := l.d.Repo.AppendEvent(eventType, level, payload, true); err != nil {
		logger.S().Errorf("appending %s event: %v", eventType, err)
	}
}

func (l *TradingLoop) notify(title, message string) {
	if l.d.Alerts != nil {
		l.d.Alerts.Notify(title, message)
	}
}
