package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"trade-engine-go/internal/models"
)

// LoadConfig reads and validates the JSON config file at path.
func LoadConfig(path string) (*models.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	cfg := &models.Config{}
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *models.Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.TickIntervalSec <= 0 {
		cfg.TickIntervalSec = 5
	}
	if cfg.CandleTimeframe == "" {
		cfg.CandleTimeframe = "1m"
	}
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = 50
	}
	if cfg.OrderbookDepth <= 0 {
		cfg.OrderbookDepth = 20
	}
	if cfg.MaxConcurrentPositions <= 0 {
		cfg.MaxConcurrentPositions = 1
	}
	if cfg.Signal.FastPeriod <= 0 {
		cfg.Signal.FastPeriod = 5
	}
	if cfg.Signal.SlowPeriod <= 0 {
		cfg.Signal.SlowPeriod = 20
	}
	if cfg.Sizing.Method == "" {
		cfg.Sizing.Method = "risk_pct"
	}
	if cfg.Sizing.MaxPositionPct <= 0 {
		cfg.Sizing.MaxPositionPct = 0.25
	}
	if cfg.Sizing.KellyWinRate <= 0 {
		cfg.Sizing.KellyWinRate = 0.5
	}
	if cfg.Sizing.KellyWinLoss <= 0 {
		cfg.Sizing.KellyWinLoss = 1.5
	}
	if cfg.Sizing.KellyMultiplier <= 0 {
		cfg.Sizing.KellyMultiplier = 0.5
	}
	if cfg.Sizing.CandidateSteps <= 0 {
		cfg.Sizing.CandidateSteps = 10
	}
	if cfg.Streak.ReductionFactor <= 0 {
		cfg.Streak.ReductionFactor = 0.5
	}
	if cfg.DailyLock.Mode == "" {
		cfg.DailyLock.Mode = string(models.LockModeStop)
	}
	if cfg.TrailingStop.Method == "" {
		cfg.TrailingStop.Method = "pct"
	}
	if cfg.TrailingStop.ATRPeriod <= 0 {
		cfg.TrailingStop.ATRPeriod = 14
	}
	if cfg.KillSwitch.KillFilePollSec <= 0 {
		cfg.KillSwitch.KillFilePollSec = 10
	}
	if cfg.KillSwitch.MaxConsecutiveLosses > 0 && cfg.KillSwitch.LossResumeMinutes <= 0 {
		// The loss-streak kill is a cooldown, not a permanent halt.
		cfg.KillSwitch.LossResumeMinutes = 60
	}
	if cfg.Alerts.RatePerMinute <= 0 {
		cfg.Alerts.RatePerMinute = 20
	}
	if cfg.Alerts.RetryAttempts <= 0 {
		cfg.Alerts.RetryAttempts = 3
	}
	if cfg.Alerts.RetryInitialDelayMs <= 0 {
		cfg.Alerts.RetryInitialDelayMs = 500
	}
}

// Validate rejects configs the engine cannot run with.
func Validate(cfg *models.Config) error {
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("config: at least one symbol is required")
	}
	if cfg.StartingCash <= 0 {
		return fmt.Errorf("config: starting_cash must be positive")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("config: invalid timezone %q: %w", cfg.Timezone, err)
	}
	switch cfg.Sizing.Method {
	case "fixed", "risk_pct", "kelly", "adaptive":
	default:
		return fmt.Errorf("config: unknown sizing method %q", cfg.Sizing.Method)
	}
	switch models.DailyLockMode(cfg.DailyLock.Mode) {
	case models.LockModeStop, models.LockModeOverdrive:
	default:
		return fmt.Errorf("config: unknown daily lock mode %q", cfg.DailyLock.Mode)
	}
	switch cfg.TrailingStop.Method {
	case "pct", "atr", "chandelier":
	default:
		return fmt.Errorf("config: unknown trailing stop method %q", cfg.TrailingStop.Method)
	}
	if cfg.StopLossPct <= 0 || cfg.StopLossPct >= 1 {
		return fmt.Errorf("config: stop_loss_pct must be in (0, 1)")
	}
	if cfg.TakeProfitPct <= 0 {
		return fmt.Errorf("config: take_profit_pct must be positive")
	}
	return nil
}
