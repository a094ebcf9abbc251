package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"trade-engine-go/internal/alerts"
	"trade-engine-go/internal/backtest"
	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/config"
	"trade-engine-go/internal/downloader"
	"trade-engine-go/internal/engine"
	"trade-engine-go/internal/execution"
	"trade-engine-go/internal/gates"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/market"
	"trade-engine-go/internal/models"
	"trade-engine-go/internal/persistence"
	"trade-engine-go/internal/risk"
	"trade-engine-go/internal/safety"
	tradesignal "trade-engine-go/internal/signal"

	"github.com/joho/godotenv"
)

// extractSymbolFromPath derives the symbol from a data file path, e.g.
// "data/BTCUSDT-2025-03-01-2025-06-01.csv" -> "BTCUSDT".
func extractSymbolFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	parts := strings.Split(name, "-")
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func main() {
	configPath := flag.String("config", "config.json", "path to the config file")
	mode := flag.String("mode", "live", "running mode: live or backtest")
	dataPath := flag.String("data", "", "path to historical data file for backtesting")
	symbol := flag.String("symbol", "", "symbol to backtest (e.g., BTCUSDT)")
	startDate := flag.String("start", "", "start date for backtesting (YYYY-MM-DD)")
	endDate := flag.String("end", "", "end date for backtesting (YYYY-MM-DD)")
	flag.Parse()

	// A default logger so config loading itself can log; reinitialized from
	// the config file below.
	logger.InitLogger(models.LogConfig{Level: "info", Output: "console"})

	if err := godotenv.Load(); err != nil {
		logger.S().Info("no .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.S().Fatalf("loading config: %v", err)
	}

	logger.InitLogger(cfg.LogConfig)
	defer logger.S().Sync()

	switch *mode {
	case "live":
		runLiveMode(cfg)
	case "backtest":
		finalDataPath, btSymbol, err := resolveBacktestData(cfg, *symbol, *startDate, *endDate, *dataPath)
		if err != nil {
			logger.S().Fatal(err)
		}
		runBacktestMode(cfg, btSymbol, finalDataPath)
	default:
		logger.S().Fatalf("unknown mode %q, expected 'live' or 'backtest'", *mode)
	}
}

// resolveBacktestData downloads candles when a symbol and date range are
// given, otherwise requires an explicit --data path.
func resolveBacktestData(cfg *models.Config, symbol, startDate, endDate, dataPath string) (string, string, error) {
	if symbol != "" && startDate != "" && endDate != "" {
		startTime, err1 := time.Parse("2006-01-02", startDate)
		endTime, err2 := time.Parse("2006-01-02", endDate)
		if err1 != nil || err2 != nil {
			return "", "", fmt.Errorf("dates must be YYYY-MM-DD. start: %v, end: %v", err1, err2)
		}

		dl := downloader.NewKlineDownloader()
		fileName := fmt.Sprintf("data/%s-%s-%s.csv", symbol, startDate, endDate)
		if err := dl.DownloadKlines(symbol, cfg.CandleTimeframe, fileName, startTime, endTime); err != nil {
			return "", "", fmt.Errorf("downloading data: %w", err)
		}
		return fileName, symbol, nil
	}

	if dataPath == "" {
		return "", "", fmt.Errorf("backtest mode needs --data or --symbol/--start/--end")
	}
	sym := extractSymbolFromPath(dataPath)
	if sym == "" {
		return "", "", fmt.Errorf("cannot derive symbol from data path %s", dataPath)
	}
	return dataPath, sym, nil
}

func runLiveMode(cfg *models.Config) {
	logger.S().Info("--- starting live mode ---")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.S().Fatalf("loading timezone: %v", err)
	}

	apiURL, wsURL := cfg.LiveAPIURL, cfg.LiveWSURL
	if cfg.IsTestnet {
		apiURL, wsURL = cfg.TestnetAPIURL, cfg.TestnetWSURL
		logger.S().Info("using testnet endpoints")
	}

	clk := clock.Real{}
	repo, err := persistence.NewBadgerRepository(cfg.DBPath, clk)
	if err != nil {
		logger.S().Fatalf("opening repository: %v", err)
	}
	defer repo.Close()

	provider := market.NewStreamingProvider(market.NewBinanceProvider(apiURL), wsURL, cfg.Symbols)
	provider.Start()
	defer provider.Stop()

	// Paper execution against live market data: full decision stack, no
	// real orders.
	exec := execution.NewPaperEngine(clk, cfg.Profit.TakerFeeRate)

	cooldown := gates.NewCooldownGate(cfg.Cooldown)
	symbolLoss := gates.NewDailySymbolLossLimit(cfg.SymbolLoss, loc)
	streak := gates.NewStreakSizer(cfg.Streak)
	breakers := safety.NewBreakerManager(clk)
	kill := safety.NewKillSwitch(cfg.KillSwitch, clk)
	dailyLock := safety.NewDailyLockManager(cfg.DailyLock, loc, clk, repo)
	trailing := risk.NewTrailingStopManager(cfg.TrailingStop)

	dispatcher := alerts.NewDispatcher(alerts.NewWebhookNotifier(cfg.Alerts.WebhookURL, clk), cfg.Alerts)
	dispatcher.Start()
	defer dispatcher.Stop()

	kill.OnTrigger(func(ev models.KillEvent) {
		dispatcher.NotifyDanger("Kill switch triggered",
			fmt.Sprintf("%s by %s: %s", ev.Reason, ev.TriggeredBy, ev.Details))
	})
	kill.OnResume(func(actor string) {
		dispatcher.Notify("Kill switch resumed", "resumed by "+actor)
	})

	watcher := safety.NewKillFileWatcher(cfg.KillSwitch, kill)
	watcher.Start()
	defer watcher.Stop()

	pipeline := engine.NewEntryPipeline(engine.PipelineDeps{
		Config:     cfg,
		Regime:     gates.NewRegimeFilter(cfg.Regime),
		Cooldown:   cooldown,
		SymbolLoss: symbolLoss,
		Streak:     streak,
		Profit:     gates.NewProfitabilityGate(cfg.Profit),
		Signals:    tradesignal.NewMomentumProvider(cfg.Signal.FastPeriod, cfg.Signal.SlowPeriod),
		Breakers:   breakers,
		DailyLock:  dailyLock,
		Kill:       kill,
		Sizer:      risk.NewSizer(cfg.Sizing, cfg.Profit),
		Repo:       repo,
	})

	loop := engine.NewTradingLoop(engine.Deps{
		Config:     cfg,
		Location:   loc,
		Clock:      clk,
		MarketData: provider,
		Execution:  exec,
		Repo:       repo,
		Pipeline:   pipeline,
		Cooldown:   cooldown,
		SymbolLoss: symbolLoss,
		Streak:     streak,
		Trailing:   trailing,
		Breakers:   breakers,
		Kill:       kill,
		Alerts:     dispatcher,
	})

	if err := loop.ReconcileState(); err != nil {
		logger.S().Fatalf("state reconciliation failed: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.TickIntervalSec) * time.Second)
	defer ticker.Stop()

	logger.S().Infof("engine running: %d symbols, tick every %ds", len(cfg.Symbols), cfg.TickIntervalSec)
	for {
		select {
		case <-quit:
			logger.S().Info("shutdown signal received, stopping")
			return
		case <-ticker.C:
			if err := loop.Tick(); err != nil {
				logger.S().Errorf("tick failed: %v", err)
			}
		}
	}
}

func runBacktestMode(cfg *models.Config, symbol, dataPath string) {
	logger.S().Info("--- starting backtest mode ---")

	candles, err := backtest.LoadCandlesCSV(dataPath)
	if err != nil {
		logger.S().Fatalf("loading candle data: %v", err)
	}

	runner := backtest.NewRunner(cfg, symbol, candles)
	if err := runner.Run(); err != nil {
		logger.S().Fatalf("backtest failed: %v", err)
	}
}
