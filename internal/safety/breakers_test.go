package safety

import (
	"testing"
	"time"

	"trade-engine-go/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerPausesUntilExpiry(t *testing.T) {
	clk := clock.NewSimulated(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewBreakerManager(clk)

	m.TriggerBreaker(BreakerVolatility, "range spike", 30, nil)

	ok, reason := m.EntriesAllowed()
	assert.False(t, ok)
	assert.Contains(t, reason, "volatility")

	// One minute before expiry: still paused.
	clk.Advance(29 * time.Minute)
	ok, _ = m.EntriesAllowed()
	assert.False(t, ok)

	// One minute after: expired and cleared.
	clk.Advance(2 * time.Minute)
	ok, reason = m.EntriesAllowed()
	assert.True(t, ok)
	assert.Empty(t, reason)
	assert.False(t, m.IsActive(BreakerVolatility))
}

func TestBreakersAreIndependentlyTimed(t *testing.T) {
	clk := clock.NewSimulated(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewBreakerManager(clk)

	m.TriggerBreaker(BreakerVolatility, "range spike", 10, nil)
	m.TriggerBreaker(BreakerSpread, "wide book", 60, nil)

	ok, reason := m.EntriesAllowed()
	assert.False(t, ok)
	assert.Contains(t, reason, "volatility")
	assert.Contains(t, reason, "spread")
	assert.Contains(t, reason, "; ")

	// The short breaker expires, the long one still blocks.
	clk.Advance(20 * time.Minute)
	ok, reason = m.EntriesAllowed()
	assert.False(t, ok)
	assert.NotContains(t, reason, "volatility")
	assert.Contains(t, reason, "spread")

	clk.Advance(50 * time.Minute)
	ok, _ = m.EntriesAllowed()
	assert.True(t, ok)
}

func TestBreakerRetriggerExtendsPause(t *testing.T) {
	clk := clock.NewSimulated(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewBreakerManager(clk)

	m.TriggerBreaker(BreakerSpread, "wide book", 10, nil)
	clk.Advance(8 * time.Minute)
	m.TriggerBreaker(BreakerSpread, "still wide", 10, nil)

	clk.Advance(5 * time.Minute)
	assert.True(t, m.IsActive(BreakerSpread))

	clk.Advance(6 * time.Minute)
	assert.False(t, m.IsActive(BreakerSpread))
}

func TestBreakerActiveSnapshot(t *testing.T) {
	clk := clock.NewSimulated(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	m := NewBreakerManager(clk)

	m.TriggerBreaker(BreakerSpread, "wide book", 10, map[string]interface{}{"symbol": "BTCUSDT"})
	m.TriggerBreaker(BreakerNews, "scheduled event", 10, nil)

	active := m.Active()
	require.Len(t, active, 2)
	// Sorted by name.
	assert.Equal(t, BreakerNews, active[0].Name)
	assert.Equal(t, BreakerSpread, active[1].Name)
	assert.Equal(t, "BTCUSDT", active[1].Context["symbol"])
}
