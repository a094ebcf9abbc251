// Package safety holds the subsystems that can pause or halt trading:
// circuit breakers, the daily profit lock and the kill switch.
package safety

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"trade-engine-go/internal/clock"
	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
)

// Breaker names used by the entry pipeline's trigger checks.
const (
	BreakerVolatility        = "volatility"
	BreakerSpread            = "spread"
	BreakerConsecutiveLosses = "consecutive_losses"
	BreakerNews              = "news"
)

// BreakerManager holds a set of named, independently timed pause windows.
// A breaker is active from trigger until its pause elapses; expiry is lazy,
// evaluated on every EntriesAllowed call, so no background timer is needed.
type BreakerManager struct {
	mu       sync.Mutex
	clk      clock.Clock
	breakers map[string]*models.BreakerState
}

func NewBreakerManager(clk clock.Clock) *BreakerManager {
	return &BreakerManager{
		clk:      clk,
		breakers: make(map[string]*models.BreakerState),
	}
}

// TriggerBreaker activates (or re-arms) the named breaker for pauseMinutes.
func (m *BreakerManager) TriggerBreaker(name, reason string, pauseMinutes int, context map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	m.breakers[name] = &models.BreakerState{
		Name:        name,
		Reason:      reason,
		TriggeredAt: now,
		PausedUntil: now.Add(time.Duration(pauseMinutes) * time.Minute),
		Context:     context,
	}
	logger.S().Warnf("breaker %q triggered: %s (paused %dm)", name, reason, pauseMinutes)
}

// EntriesAllowed expires elapsed breakers, then reports whether any remain
// active. When blocked, the second return value combines every active
// breaker's reason.
func (m *BreakerManager) EntriesAllowed() (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	var reasons []string
	for name, b := range m.breakers {
		if !now.Before(b.PausedUntil) {
			delete(m.breakers, name)
			logger.S().Infof("breaker %q expired", name)
			continue
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s (until %s)",
			name, b.Reason, b.PausedUntil.Format(time.RFC3339)))
	}
	if len(reasons) == 0 {
		return true, ""
	}
	sort.Strings(reasons)
	return false, strings.Join(reasons, "; ")
}

// IsActive reports whether the named breaker is currently pausing entries.
func (m *BreakerManager) IsActive(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breakers[name]
	if !ok {
		return false
	}
	return m.clk.Now().Before(b.PausedUntil)
}

// Active returns a snapshot of the currently active breakers.
func (m *BreakerManager) Active() []models.BreakerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clk.Now()
	var out []models.BreakerState
	for _, b := range m.breakers {
		if now.Before(b.PausedUntil) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
