package gates

import (
	"testing"
	"time"

	"trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCooldownArmsAfterStopLoss(t *testing.T) {
	g := NewCooldownGate(models.CooldownConfig{CooldownMinutes: 30})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	g.RecordExit("BTCUSDT", models.ExitStopLoss, now)

	ok, remaining := g.IsAllowed("BTCUSDT", now.Add(10*time.Minute))
	assert.False(t, ok)
	assert.Equal(t, 20*time.Minute, remaining)

	ok, _ = g.IsAllowed("BTCUSDT", now.Add(31*time.Minute))
	assert.True(t, ok)
}

func TestCooldownArmsAfterTrailingStop(t *testing.T) {
	g := NewCooldownGate(models.CooldownConfig{CooldownMinutes: 30})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	g.RecordExit("BTCUSDT", models.ExitTrailingStop, now)

	ok, _ := g.IsAllowed("BTCUSDT", now.Add(time.Minute))
	assert.False(t, ok)
}

func TestCooldownIgnoresTakeProfit(t *testing.T) {
	g := NewCooldownGate(models.CooldownConfig{CooldownMinutes: 30})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	g.RecordExit("BTCUSDT", models.ExitTakeProfit, now)

	ok, _ := g.IsAllowed("BTCUSDT", now.Add(time.Second))
	assert.True(t, ok)
}

func TestCooldownIsPerSymbol(t *testing.T) {
	g := NewCooldownGate(models.CooldownConfig{CooldownMinutes: 30})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	g.RecordExit("BTCUSDT", models.ExitStopLoss, now)

	ok, _ := g.IsAllowed("ETHUSDT", now.Add(time.Minute))
	assert.True(t, ok)
}

func TestCooldownDisabledWhenZero(t *testing.T) {
	g := NewCooldownGate(models.CooldownConfig{})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	g.RecordExit("BTCUSDT", models.ExitStopLoss, now)

	ok, _ := g.IsAllowed("BTCUSDT", now)
	assert.True(t, ok)
}

func TestCooldownEvaluate(t *testing.T) {
	g := NewCooldownGate(models.CooldownConfig{CooldownMinutes: 30})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.RecordExit("BTCUSDT", models.ExitStopLoss, now)

	d := g.Evaluate(&Context{Symbol: "BTCUSDT", Now: now.Add(5 * time.Minute)})
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "cooling down")
}
