package safety

import (
	"fmt"
	"sync"
	"time"

	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
)

// KillSwitch is the global emergency halt. Once killed, every entry path
// refuses new positions until an explicit (or automatic) resume. Open
// positions are left alone; the kill switch never liquidates.
type KillSwitch struct {
	mu       sync.Mutex
	clk      clock.Clock
	cfg      models.KillSwitchConfig
	active   bool
	current  *models.KillEvent
	history  []models.KillEvent
	onKill   []func(models.KillEvent)
	onResume []func(actor string)
}

func NewKillSwitch(cfg models.KillSwitchConfig, clk clock.Clock) *KillSwitch {
	return &KillSwitch{clk: clk, cfg: cfg}
}

// OnTrigger registers a callback invoked after every trigger. Callback
// failures are swallowed; a misbehaving callback can never prevent the kill
// from taking effect.
func (k *KillSwitch) OnTrigger(cb func(models.KillEvent)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onKill = append(k.onKill, cb)
}

// OnResume registers a callback invoked after every resume, under the same
// failure-isolation rule as OnTrigger.
func (k *KillSwitch) OnResume(cb func(actor string)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.onResume = append(k.onResume, cb)
}

// Trigger halts trading and appends a KillEvent to the history. A zero
// autoResume means manual resume only.
func (k *KillSwitch) Trigger(reason models.KillReason, actor, details string, autoResume time.Duration) {
	k.mu.Lock()

	ev := models.KillEvent{
		Time:        k.clk.Now(),
		Reason:      reason,
		TriggeredBy: actor,
		Details:     details,
	}
	if autoResume > 0 {
		t := ev.Time.Add(autoResume)
		ev.AutoResumeAt = &t
	}
	k.active = true
	k.history = append(k.history, ev)
	k.current = &k.history[len(k.history)-1]
	callbacks := append([]func(models.KillEvent){}, k.onKill...)
	k.mu.Unlock()

	logger.S().Errorf("KILL SWITCH ENGAGED: %s by %s: %s", reason, actor, details)
	for _, cb := range callbacks {
		runIsolated(func() { cb(ev) })
	}
}

// Resume clears the kill state.
func (k *KillSwitch) Resume(actor string) {
	k.mu.Lock()
	if !k.active {
		k.mu.Unlock()
		return
	}
	k.active = false
	if k.current != nil {
		k.current.Resolved = true
		k.current = nil
	}
	callbacks := append([]func(string){}, k.onResume...)
	k.mu.Unlock()

	logger.S().Warnf("kill switch resumed by %s", actor)
	for _, cb := range callbacks {
		runIsolated(func() { cb(actor) })
	}
}

// IsKilled reports whether trading is halted. An elapsed auto-resume
// deadline resumes the switch in place.
func (k *KillSwitch) IsKilled() bool {
	k.mu.Lock()
	if !k.active {
		k.mu.Unlock()
		return false
	}
	if k.current != nil && k.current.AutoResumeAt != nil && !k.clk.Now().Before(*k.current.AutoResumeAt) {
		k.active = false
		k.current.Resolved = true
		k.current = nil
		callbacks := append([]func(string){}, k.onResume...)
		k.mu.Unlock()

		logger.S().Warn("kill switch auto-resumed after cooldown")
		for _, cb := range callbacks {
			runIsolated(func() { cb("auto") })
		}
		return false
	}
	k.mu.Unlock()
	return true
}

// Acknowledge marks the current kill event as seen by an operator. It does
// not resume trading; entries stay halted until Resume or the auto-resume
// deadline. Returns false when there is nothing to acknowledge.
func (k *KillSwitch) Acknowledge(actor string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.current == nil || k.current.Acknowledged {
		return false
	}
	k.current.Acknowledged = true
	logger.S().Infof("kill event %s acknowledged by %s", k.current.Reason, actor)
	return true
}

// History returns a copy of the append-only kill event history.
func (k *KillSwitch) History() []models.KillEvent {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]models.KillEvent, len(k.history))
	copy(out, k.history)
	return out
}

// CheckThresholds auto-triggers on breach of the configured daily-loss,
// drawdown or consecutive-loss limits. The loss-streak kill carries an
// automatic resume after the configured cooldown.
func (k *KillSwitch) CheckThresholds(dailyPnLPct, equity, peakEquity float64, consecutiveLosses int) {
	if k.IsKilled() {
		return
	}

	if k.cfg.MaxDailyLossPct > 0 && dailyPnLPct <= -k.cfg.MaxDailyLossPct {
		k.Trigger(models.KillDailyLoss, "auto",
			fmt.Sprintf("daily PnL %.2f%% breached limit -%.2f%%", dailyPnLPct*100, k.cfg.MaxDailyLossPct*100), 0)
		return
	}

	if k.cfg.MaxDrawdownPct > 0 && peakEquity > 0 {
		drawdown := (peakEquity - equity) / peakEquity
		if drawdown >= k.cfg.MaxDrawdownPct {
			k.Trigger(models.KillDrawdown, "auto",
				fmt.Sprintf("drawdown %.2f%% breached limit %.2f%%", drawdown*100, k.cfg.MaxDrawdownPct*100), 0)
			return
		}
	}

	if k.cfg.MaxConsecutiveLosses > 0 && consecutiveLosses >= k.cfg.MaxConsecutiveLosses {
		k.Trigger(models.KillLossStreak, "auto",
			fmt.Sprintf("%d consecutive losses", consecutiveLosses),
			time.Duration(k.cfg.LossResumeMinutes)*time.Minute)
	}
}

// runIsolated runs fn and swallows panics. The safety action must always
// complete regardless of hook behavior.
func runIsolated(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.S().Errorf("kill switch callback panicked (ignored): %v", r)
		}
	}()
	fn()
}
