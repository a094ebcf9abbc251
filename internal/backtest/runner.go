package backtest

import (
	"fmt"
	"os"
	"time"

	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/engine"
	"trade-engine-go/internal/execution"
	"trade-engine-go/internal/gates"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
	"trade-engine-go/internal/persistence"
	"trade-engine-go/internal/reporter"
	"trade-engine-go/internal/risk"
	"trade-engine-go/internal/safety"
	"trade-engine-go/internal/signal"
)

// Runner replays a recorded candle series through the full decision stack:
// the same gates, sizers and safety subsystems as live trading, with a
// simulated clock, a synthetic orderbook and the paper execution engine.
type Runner struct {
	cfg     *models.Config
	symbol  string
	candles []models.Candle
}

func NewRunner(cfg *models.Config, symbol string, candles []models.Candle) *Runner {
	return &Runner{cfg: cfg, symbol: symbol, candles: candles}
}

// Run replays the series and prints a session report. Any still-open
// position is liquidated at the last close.
func (r *Runner) Run() error {
	if len(r.candles) < 2 {
		return fmt.Errorf("not enough candles to backtest")
	}

	loc, err := time.LoadLocation(r.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("loading timezone: %w", err)
	}

	clk := clock.NewSimulated(r.candles[0].OpenTime)
	repo, err := persistence.NewInMemoryRepository(clk)
	if err != nil {
		return fmt.Errorf("opening in-memory repository: %w", err)
	}
	defer repo.Close()

	provider := NewReplayProvider(r.symbol, r.candles)
	paper := execution.NewPaperEngine(clk, r.cfg.Profit.TakerFeeRate)

	// One-symbol copy of the config so the loop only ticks the replayed pair.
	cfg := *r.cfg
	cfg.Symbols = []string{r.symbol}

	cooldown := gates.NewCooldownGate(cfg.Cooldown)
	symbolLoss := gates.NewDailySymbolLossLimit(cfg.SymbolLoss, loc)
	streak := gates.NewStreakSizer(cfg.Streak)
	breakers := safety.NewBreakerManager(clk)
	kill := safety.NewKillSwitch(cfg.KillSwitch, clk)
	dailyLock := safety.NewDailyLockManager(cfg.DailyLock, loc, clk, repo)
	trailing := risk.NewTrailingStopManager(cfg.TrailingStop)

	pipeline := engine.NewEntryPipeline(engine.PipelineDeps{
		Config:     &cfg,
		Regime:     gates.NewRegimeFilter(cfg.Regime),
		Cooldown:   cooldown,
		SymbolLoss: symbolLoss,
		Streak:     streak,
		Profit:     gates.NewProfitabilityGate(cfg.Profit),
		Signals:    signal.NewMomentumProvider(cfg.Signal.FastPeriod, cfg.Signal.SlowPeriod),
		Breakers:   breakers,
		DailyLock:  dailyLock,
		Kill:       kill,
		Sizer:      risk.NewSizer(cfg.Sizing, cfg.Profit),
		Repo:       repo,
	})

	loop := engine.NewTradingLoop(engine.Deps{
		Config:     &cfg,
		Location:   loc,
		Clock:      clk,
		MarketData: provider,
		Execution:  paper,
		Repo:       repo,
		Pipeline:   pipeline,
		Cooldown:   cooldown,
		SymbolLoss: symbolLoss,
		Streak:     streak,
		Trailing:   trailing,
		Breakers:   breakers,
		Kill:       kill,
	})

	logger.S().Infof("backtest start: %s, %d candles, %s to %s",
		r.symbol, len(r.candles),
		r.candles[0].OpenTime.Format("2006-01-02 15:04"),
		r.candles[len(r.candles)-1].OpenTime.Format("2006-01-02 15:04"))

	ticks := 0
	for {
		clk.Set(provider.Current().OpenTime)
		if err := loop.Tick(); err != nil {
			return fmt.Errorf("tick %d: %w", ticks, err)
		}
		ticks++
		if !provider.Advance() {
			break
		}
	}

	if err := r.liquidate(loop, paper, repo, provider); err != nil {
		return err
	}

	closed, err := repo.GetClosedTrades()
	if err != nil {
		return fmt.Errorf("loading closed trades: %w", err)
	}
	metrics := reporter.Calculate(closed, cfg.StartingCash)
	reporter.Render(os.Stdout, metrics, fmt.Sprintf("Backtest %s (%d ticks)", r.symbol, ticks))
	return nil
}

// liquidate closes the open position, if any, at the final bar's close.
func (r *Runner) liquidate(loop *engine.TradingLoop, paper *execution.PaperEngine, repo persistence.Repository, provider *ReplayProvider) error {
	m := loop.Machine(r.symbol)
	tradeID := m.OpenTrade()
	if tradeID == "" {
		return nil
	}

	res, err := paper.CloseAt(tradeID, provider.Current().Close)
	if err != nil {
		return fmt.Errorf("liquidating %s: %w", tradeID, err)
	}
	if err := repo.UpdateTrade(res.Trade); err != nil {
		return fmt.Errorf("persisting liquidation: %w", err)
	}
	if res.Order != nil {
		if err := repo.SaveOrder(res.Order); err != nil {
			logger.S().Warnf("persisting liquidation order: %v", err)
		}
	}
	logger.S().Infof("liquidated open position at end of data: pnl %.4f", res.Trade.RealizedPnL)
	return nil
}
