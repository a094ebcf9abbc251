package models

import "time"

// BreakerState is the runtime state of one named circuit breaker. A breaker
// exists in the manager's map only while it is active; expiry removes it.
type BreakerState struct {
	Name        string                 `json:"name"`
	Reason      string                 `json:"reason"`
	TriggeredAt time.Time              `json:"triggered_at"`
	PausedUntil time.Time              `json:"paused_until"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// KillReason enumerates what tripped the kill switch.
type KillReason string

const (
	KillDailyLoss    KillReason = "DAILY_LOSS_LIMIT"
	KillDrawdown     KillReason = "MAX_DRAWDOWN"
	KillLossStreak   KillReason = "CONSECUTIVE_LOSSES"
	KillManual       KillReason = "MANUAL"
	KillFileDetected KillReason = "KILL_FILE"
)

// KillEvent is one entry of the kill switch's append-only history.
type KillEvent struct {
	Time         time.Time  `json:"time"`
	Reason       KillReason `json:"reason"`
	TriggeredBy  string     `json:"triggered_by"`
	Details      string     `json:"details,omitempty"`
	AutoResumeAt *time.Time `json:"auto_resume_at,omitempty"`
	Acknowledged bool       `json:"acknowledged"`
	Resolved     bool       `json:"resolved"`
}

// DailyLockMode selects how the daily profit lock behaves once the target
// is reached.
type DailyLockMode string

const (
	// LockModeStop pauses all entries for the rest of the local day once the
	// target is reached.
	LockModeStop DailyLockMode = "stop"
	// LockModeOverdrive keeps trading past the target but pauses entries the
	// moment realized PnL falls below a trailing floor.
	LockModeOverdrive DailyLockMode = "overdrive"
)

// DailyLockState is the lock manager's view of the current local day. It is
// derived from the day's closed trades, never persisted as a running counter,
// so it survives process restarts.
type DailyLockState struct {
	Day           string  `json:"day"` // local date, "2006-01-02"
	TargetReached bool    `json:"target_reached"`
	EntriesPaused bool    `json:"entries_paused"`
	PeakPnL       float64 `json:"peak_pnl"`
	Floor         float64 `json:"floor"`
}
