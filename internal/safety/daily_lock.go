package safety

import (
	"fmt"
	"math"
	"sync"
	"time"

	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
	"trade-engine-go/internal/persistence"
)

// DailyLockManager pauses entries around a daily realized-PnL target.
//
// In STOP mode, entries pause for the rest of the local day once the target
// is reached. In OVERDRIVE mode, trading continues past the target while a
// trailing floor max(target, peak-buffer) ratchets up beneath the day's peak;
// the moment realized PnL drops below the floor, entries pause until the next
// local day.
//
// The day's peak is never persisted: it is rebuilt by replaying today's
// closed trades from the repository, so the lock survives process restarts.
// This assumes same-day trade history is complete and ordered.
type DailyLockManager struct {
	mu     sync.Mutex
	mode   models.DailyLockMode
	target float64
	buffer float64
	loc    *time.Location
	clk    clock.Clock
	repo   persistence.Repository

	state *models.DailyLockState // nil until first use; reset on day rollover
}

func NewDailyLockManager(cfg models.DailyLockConfig, loc *time.Location, clk clock.Clock, repo persistence.Repository) *DailyLockManager {
	return &DailyLockManager{
		mode:   models.DailyLockMode(cfg.Mode),
		target: cfg.TargetUSD,
		buffer: cfg.BufferUSD,
		loc:    loc,
		clk:    clk,
		repo:   repo,
	}
}

// EntriesAllowed reports whether the daily lock permits new entries. It is
// idempotent and safe to call on every tick.
func (m *DailyLockManager) EntriesAllowed() (bool, string, error) {
	if m.target <= 0 {
		return true, "", nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.refresh(); err != nil {
		return false, "", err
	}

	s := m.state
	if !s.EntriesPaused {
		return true, "", nil
	}
	if m.mode == models.LockModeStop {
		return false, fmt.Sprintf("daily target %.2f reached, entries paused until next day", m.target), nil
	}
	return false, fmt.Sprintf("overdrive floor %.2f breached, entries paused until next day", s.Floor), nil
}

// State returns a copy of the current lock state for observability.
func (m *DailyLockManager) State() (models.DailyLockState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.refresh(); err != nil {
		return models.DailyLockState{}, err
	}
	return *m.state, nil
}

// refresh rebuilds or updates the state for the current local day. Caller
// holds the lock.
func (m *DailyLockManager) refresh() error {
	today := m.clk.Now().In(m.loc).Format("2006-01-02")
	if m.state == nil || m.state.Day != today {
		if m.state != nil {
			logger.S().Infof("daily lock rolled over from %s to %s", m.state.Day, today)
		}
		m.state = &models.DailyLockState{Day: today}
	}

	trades, err := m.repo.GetTodayClosedTrades(m.loc)
	if err != nil {
		return fmt.Errorf("daily lock: replaying today's trades: %w", err)
	}

	// Replay today's closed trades to rebuild the running peak. This is the
	// restart-safe path: no running counter is trusted across restarts.
	var pnl, peak float64
	for _, t := range trades {
		pnl += t.RealizedPnL
		peak = math.Max(peak, pnl)
	}

	s := m.state
	s.PeakPnL = math.Max(s.PeakPnL, peak)

	// Reached is judged against the day's peak, not the current PnL, so a
	// replay after restart reconstructs the latch even when PnL has since
	// fallen back under the target.
	if s.PeakPnL >= m.target {
		s.TargetReached = true
	}

	switch m.mode {
	case models.LockModeStop:
		if s.TargetReached {
			s.EntriesPaused = true
		}
	case models.LockModeOverdrive:
		if s.TargetReached {
			// The floor only ratchets upward.
			s.Floor = math.Max(s.Floor, math.Max(m.target, s.PeakPnL-m.buffer))
			if pnl < s.Floor {
				// Latched until day rollover.
				s.EntriesPaused = true
			}
		}
	}
	return nil
}
