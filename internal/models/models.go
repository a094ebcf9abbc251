package models

// Config holds every tunable parameter of the trading engine. It is decoded
// once at process start and treated as immutable afterwards.
type Config struct {
	Symbols      []string `json:"symbols"`       // symbols the tick loop iterates over, e.g. ["BTCUSDT"]
	StartingCash float64  `json:"starting_cash"` // equity baseline in USD
	Timezone     string   `json:"timezone"`      // IANA name used for daily rollovers, e.g. "America/New_York"
	DBPath       string   `json:"db_path"`       // BadgerDB directory

	LiveAPIURL    string `json:"live_api_url"`
	LiveWSURL     string `json:"live_ws_url"`
	TestnetAPIURL string `json:"testnet_api_url"`
	TestnetWSURL  string `json:"testnet_ws_url"`
	IsTestnet     bool   `json:"is_testnet"`

	TickIntervalSec int    `json:"tick_interval_sec"`
	CandleTimeframe string `json:"candle_timeframe"` // e.g. "1m"
	CandleLimit     int    `json:"candle_limit"`
	OrderbookDepth  int    `json:"orderbook_depth"`

	MaxConcurrentPositions int `json:"max_concurrent_positions"`

	// Entry geometry: initial stop and target as fractions of the entry price.
	StopLossPct   float64 `json:"stop_loss_pct"`
	TakeProfitPct float64 `json:"take_profit_pct"`

	Signal       SignalConfig       `json:"signal"`
	Sizing       SizingConfig       `json:"sizing"`
	Regime       RegimeConfig       `json:"regime"`
	Cooldown     CooldownConfig     `json:"cooldown"`
	SymbolLoss   SymbolLossConfig   `json:"symbol_loss"`
	Streak       StreakConfig       `json:"streak"`
	Profit       ProfitConfig       `json:"profitability"`
	Breakers     BreakerConfig      `json:"breakers"`
	DailyLock    DailyLockConfig    `json:"daily_lock"`
	TrailingStop TrailingStopConfig `json:"trailing_stop"`
	KillSwitch   KillSwitchConfig   `json:"kill_switch"`
	Alerts       AlertConfig        `json:"alerts"`
	LogConfig    LogConfig          `json:"log"`
}

// SignalConfig parameterizes the built-in momentum signal provider.
type SignalConfig struct {
	FastPeriod int `json:"fast_period"`
	SlowPeriod int `json:"slow_period"`
}

// SizingConfig selects and parameterizes the position sizing method.
type SizingConfig struct {
	Method          string  `json:"method"` // "fixed", "risk_pct", "kelly" or "adaptive"
	FixedQuantity   float64 `json:"fixed_quantity"`
	RiskPct         float64 `json:"risk_pct"`          // fraction of equity risked per trade
	MaxPositionPct  float64 `json:"max_position_pct"`  // notional cap as fraction of equity
	KellyMultiplier float64 `json:"kelly_multiplier"`  // fractional Kelly scaler
	KellyWinRate    float64 `json:"kelly_win_rate"`    // default p when no live stats exist
	KellyWinLoss    float64 `json:"kelly_win_loss"`    // default b when no live stats exist
	MaxRiskPct      float64 `json:"max_risk_pct"`      // adaptive sizer risk bound
	CandidateFloor  float64 `json:"candidate_floor"`   // adaptive sizer smallest notional
	CandidateCeil   float64 `json:"candidate_ceiling"` // adaptive sizer largest notional
	CandidateSteps  int     `json:"candidate_steps"`
}

// RegimeConfig parameterizes the market regime filter. Overrides is keyed by
// symbol and replaces the global thresholds for that symbol only.
type RegimeConfig struct {
	TrendThresholdPct float64                   `json:"trend_threshold_pct"` // min net move across the candle window
	MinAvgVolume      float64                   `json:"min_avg_volume"`
	Overrides         map[string]RegimeOverride `json:"overrides,omitempty"`
}

// RegimeOverride carries per-symbol regime thresholds.
type RegimeOverride struct {
	TrendThresholdPct float64 `json:"trend_threshold_pct"`
	MinAvgVolume      float64 `json:"min_avg_volume"`
}

// CooldownConfig controls the post-stop-loss entry cooldown.
type CooldownConfig struct {
	CooldownMinutes int `json:"cooldown_minutes"`
}

// SymbolLossConfig bounds per-symbol consecutive losses within one day.
type SymbolLossConfig struct {
	MaxConsecutiveLosses int `json:"max_consecutive_losses"`
}

// StreakConfig shrinks position size while a symbol is on a losing streak.
type StreakConfig struct {
	MinConsecutiveLosses int     `json:"min_consecutive_losses"`
	ReductionFactor      float64 `json:"reduction_factor"`
}

// ProfitConfig parameterizes the net-profitability gate and cost estimation.
type ProfitConfig struct {
	MinProfitUSD float64 `json:"min_profit_usd"`
	TakerFeeRate float64 `json:"taker_fee_rate"`
	SlippageRate float64 `json:"slippage_rate"`
}

// BreakerConfig holds trigger thresholds and pause durations for the named
// circuit breakers.
type BreakerConfig struct {
	VolatilityThresholdPct  float64 `json:"volatility_threshold_pct"` // candle range spike, percent of price
	VolatilityPauseMin      int     `json:"volatility_pause_min"`
	SpreadThresholdPct      float64 `json:"spread_threshold_pct"`
	SpreadPauseMin          int     `json:"spread_pause_min"`
	ConsecutiveLosses       int     `json:"consecutive_losses"`
	ConsecutiveLossPauseMin int     `json:"consecutive_loss_pause_min"`
	NewsPauseMin            int     `json:"news_pause_min"`
}

// DailyLockConfig configures the daily profit lock.
type DailyLockConfig struct {
	Mode      string  `json:"mode"` // "stop" or "overdrive"
	TargetUSD float64 `json:"target_usd"`
	BufferUSD float64 `json:"buffer_usd"` // overdrive trailing distance below the peak
}

// TrailingStopConfig configures the per-position stop ratchet.
type TrailingStopConfig struct {
	Method        string  `json:"method"` // "pct", "atr" or "chandelier"
	TrailPct      float64 `json:"trail_pct"`
	ATRMultiplier float64 `json:"atr_multiplier"`
	ATRPeriod     int     `json:"atr_period"`
	ActivationPct float64 `json:"activation_pct"` // min unrealized gain before trailing starts
}

// KillSwitchConfig holds the automatic kill thresholds and the kill-file
// side channel.
type KillSwitchConfig struct {
	MaxDailyLossPct      float64 `json:"max_daily_loss_pct"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	LossResumeMinutes    int     `json:"loss_resume_minutes"` // auto-resume after a loss-streak kill
	KillFilePath         string  `json:"kill_file_path"`
	KillFilePollSec      int     `json:"kill_file_poll_sec"`
}

// AlertConfig configures the outbound webhook notifier.
type AlertConfig struct {
	WebhookURL          string `json:"webhook_url"`
	RatePerMinute       int    `json:"rate_per_minute"`
	RetryAttempts       int    `json:"retry_attempts"`
	RetryInitialDelayMs int    `json:"retry_initial_delay_ms"`
}

// LogConfig defines the logging setup.
type LogConfig struct {
	Level      string `json:"level"`  // "debug", "info", "warn", "error"
	Output     string `json:"output"` // "console", "file", "both"
	File       string `json:"file"`
	MaxSize    int    `json:"max_size"` // MB per file before rotation
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}
