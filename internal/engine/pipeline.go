package engine

import (
	"fmt"

	"trade-engine-go/internal/gates"
	"trade-engine-go/internal/ids"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
	"trade-engine-go/internal/persistence"
	"trade-engine-go/internal/risk"
	"trade-engine-go/internal/safety"
	"trade-engine-go/internal/signal"
)

// Rejection is a soft, expected outcome of pipeline evaluation. Step is the
// event type recorded in the log, e.g. "gate.breaker.rejected".
type Rejection struct {
	Step   string
	Reason string
}

// EntryPipeline composes every admission rule into one ordered decision.
// The order is fixed and significant; only the breaker trigger checks (step
// 10) have a global side effect.
type EntryPipeline struct {
	cfg *models.Config

	regime     *gates.RegimeFilter
	cooldown   *gates.CooldownGate
	symbolLoss *gates.DailySymbolLossLimit
	streak     *gates.StreakSizer
	profit     *gates.ProfitabilityGate

	signals   signal.Provider
	breakers  *safety.BreakerManager
	dailyLock *safety.DailyLockManager
	kill      *safety.KillSwitch

	sizer risk.Sizer
	repo  persistence.Repository
}

// PipelineDeps bundles the collaborators of the entry pipeline.
type PipelineDeps struct {
	Config     *models.Config
	Regime     *gates.RegimeFilter
	Cooldown   *gates.CooldownGate
	SymbolLoss *gates.DailySymbolLossLimit
	Streak     *gates.StreakSizer
	Profit     *gates.ProfitabilityGate
	Signals    signal.Provider
	Breakers   *safety.BreakerManager
	DailyLock  *safety.DailyLockManager
	Kill       *safety.KillSwitch
	Sizer      risk.Sizer
	Repo       persistence.Repository
}

func NewEntryPipeline(d PipelineDeps) *EntryPipeline {
	return &EntryPipeline{
		cfg:        d.Config,
		regime:     d.Regime,
		cooldown:   d.Cooldown,
		symbolLoss: d.SymbolLoss,
		streak:     d.Streak,
		profit:     d.Profit,
		signals:    d.Signals,
		breakers:   d.Breakers,
		dailyLock:  d.DailyLock,
		kill:       d.Kill,
		sizer:      d.Sizer,
		repo:       d.Repo,
	}
}

// Evaluate runs the full gate chain for one symbol. Outcomes:
//   - (plan, nil, nil): admitted, plan ready for ENTRY_PENDING
//   - (nil, nil, nil): no entry signal, nothing to record
//   - (nil, rejection, nil): a gate said no; already written to the event log
//   - (nil, nil, err): a collaborator failed
func (p *EntryPipeline) Evaluate(ctx *gates.Context) (*models.TradePlan, *Rejection, error) {
	// Kill switch overrides everything.
	if p.kill.IsKilled() {
		return nil, p.reject(ctx, "gate.killswitch.rejected", "kill switch engaged"), nil
	}

	// 1. Market regime.
	if d := p.regime.Evaluate(ctx); !d.Allowed {
		return nil, p.reject(ctx, "gate.regime.rejected", d.Reason), nil
	}

	// 2. Post-stop-loss cooldown.
	if d := p.cooldown.Evaluate(ctx); !d.Allowed {
		return nil, p.reject(ctx, "gate.cooldown.rejected", d.Reason), nil
	}

	// 3. Per-symbol daily loss limit.
	if d := p.symbolLoss.Evaluate(ctx); !d.Allowed {
		return nil, p.reject(ctx, "gate.daily_symbol_loss.rejected", d.Reason), nil
	}

	// 4. Entry signal. No signal is not a rejection, just no action.
	sig, err := p.signals.GenerateSignal(ctx.Symbol, ctx.Candles, ctx.Orderbook)
	if err != nil {
		return nil, nil, fmt.Errorf("signal provider: %w", err)
	}
	if sig.Type != models.SignalEnterLong {
		return nil, nil, nil
	}

	// 5. Active circuit breakers.
	if ok, reason := p.breakers.EntriesAllowed(); !ok {
		return nil, p.reject(ctx, "gate.breaker.rejected", reason), nil
	}

	// 6. Daily profit lock.
	ok, reason, err := p.dailyLock.EntriesAllowed()
	if err != nil {
		return nil, nil, fmt.Errorf("daily lock: %w", err)
	}
	if !ok {
		return nil, p.reject(ctx, "gate.daily_lock.rejected", reason), nil
	}

	// 7. Concurrent position limit.
	if ctx.OpenPositions >= p.cfg.MaxConcurrentPositions {
		return nil, p.reject(ctx, "gate.max_positions.rejected",
			fmt.Sprintf("open positions %d at limit %d", ctx.OpenPositions, p.cfg.MaxConcurrentPositions)), nil
	}

	// 8. Sizing, with the loss-streak reduction applied on top.
	bestAsk, okAsk := ctx.Orderbook.BestAsk()
	if !okAsk {
		return nil, p.reject(ctx, "gate.liquidity.rejected", "empty ask side"), nil
	}
	entry := bestAsk.Price
	stop := entry * (1 - p.cfg.StopLossPct)
	target := entry * (1 + p.cfg.TakeProfitPct)

	quantity, viable := p.sizer.Calculate(ctx.Equity, entry, stop, target)
	if !viable {
		return nil, p.reject(ctx, "gate.sizing.rejected", "no viable position size"), nil
	}
	quantity *= p.streak.GetMultiplier(ctx.Symbol)
	if quantity <= 0 {
		return nil, p.reject(ctx, "gate.sizing.rejected", "streak multiplier zeroed the size"), nil
	}

	// 9. Cost estimation against the live book.
	costs, err := gates.EstimateEntryCosts(ctx.Orderbook, quantity, p.cfg.Profit)
	if err != nil {
		return nil, p.reject(ctx, "gate.liquidity.rejected", err.Error()), nil
	}

	plan := &models.TradePlan{
		ID:          ids.NewWithPrefix("plan"),
		Symbol:      ctx.Symbol,
		Side:        models.Buy,
		EntryPrice:  entry,
		StopPrice:   stop,
		TargetPrice: target,
		Quantity:    quantity,
		FeeEstimate: costs.Fee,
		SlippageEst: costs.Slippage,
		SpreadCost:  costs.SpreadCost,
		CreatedAt:   ctx.Now,
	}

	// 10. Breaker trigger checks against the proposed plan. These can newly
	// pause entries; the only globally side-effecting step.
	if rej := p.checkBreakerTriggers(ctx); rej != nil {
		return nil, rej, nil
	}

	// 11. Net profitability.
	decision, breakdown := p.profit.EvaluatePlan(plan)
	if !decision.Allowed {
		rej := p.reject(ctx, "gate.profitability.rejected", decision.Reason)
		p.appendEvent("gate.profitability.breakdown", "info", map[string]interface{}{
			"symbol": ctx.Symbol, "gross": breakdown.GrossReward, "fee": breakdown.Fee,
			"slippage": breakdown.Slippage, "spread": breakdown.SpreadCost, "net": breakdown.Net,
		})
		return nil, rej, nil
	}

	return plan, nil, nil
}

// checkBreakerTriggers inspects the current market for conditions that arm a
// breaker: a volatility spike, a spread spike or a running loss streak.
func (p *EntryPipeline) checkBreakerTriggers(ctx *gates.Context) *Rejection {
	cfg := p.cfg.Breakers

	if cfg.VolatilityThresholdPct > 0 && len(ctx.Candles) > 0 {
		last := ctx.Candles[len(ctx.Candles)-1]
		if last.Close > 0 && last.Range()/last.Close >= cfg.VolatilityThresholdPct {
			reason := fmt.Sprintf("volatility spike: candle range %.4f%% of price", last.Range()/last.Close*100)
			p.breakers.TriggerBreaker(safety.BreakerVolatility, reason, cfg.VolatilityPauseMin,
				map[string]interface{}{"symbol": ctx.Symbol})
			return p.reject(ctx, "gate.breaker.rejected", reason)
		}
	}

	if cfg.SpreadThresholdPct > 0 {
		if spread := ctx.Orderbook.SpreadPct(); spread >= cfg.SpreadThresholdPct {
			reason := fmt.Sprintf("spread spike: %.4f%%", spread*100)
			p.breakers.TriggerBreaker(safety.BreakerSpread, reason, cfg.SpreadPauseMin,
				map[string]interface{}{"symbol": ctx.Symbol})
			return p.reject(ctx, "gate.breaker.rejected", reason)
		}
	}

	if cfg.ConsecutiveLosses > 0 && p.streak.Losses(ctx.Symbol) >= cfg.ConsecutiveLosses {
		reason := fmt.Sprintf("%d consecutive losses on %s", p.streak.Losses(ctx.Symbol), ctx.Symbol)
		p.breakers.TriggerBreaker(safety.BreakerConsecutiveLosses, reason, cfg.ConsecutiveLossPauseMin,
			map[string]interface{}{"symbol": ctx.Symbol})
		return p.reject(ctx, "gate.breaker.rejected", reason)
	}

	return nil
}

// reject records a soft rejection in the event log and returns it. Rejection
// logging must never fail the evaluation.
func (p *EntryPipeline) reject(ctx *gates.Context, step, reason string) *Rejection {
	p.appendEvent(step, "warn", map[string]interface{}{
		"symbol": ctx.Symbol,
		"reason": reason,
	})
	return &Rejection{Step: step, Reason: reason}
}

func (p *EntryPipeline) appendEvent(eventType, level string, payload map[string]interface{}) {
	if err := p.repo.AppendEvent(eventType, level, payload, true); err != nil {
		logger.S().Errorf("appending %s event: %v", eventType, err)
	}
}
