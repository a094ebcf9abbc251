package gates

import (
	"fmt"
	"sync"
	"time"

	"trade-engine-go/internal/models"
)

// CooldownGate blocks re-entry on a symbol for a configured number of
// minutes after a stop-loss exit. Take-profit exits do not start a cooldown.
type CooldownGate struct {
	mu       sync.Mutex
	cooldown time.Duration
	lastStop map[string]time.Time // symbol -> last stop-loss exit
}

func NewCooldownGate(cfg models.CooldownConfig) *CooldownGate {
	return &CooldownGate{
		cooldown: time.Duration(cfg.CooldownMinutes) * time.Minute,
		lastStop: make(map[string]time.Time),
	}
}

func (g *CooldownGate) Name() string { return "cooldown" }

// RecordExit is called for every closed trade. Only stop-loss and
// trailing-stop exits arm the cooldown.
func (g *CooldownGate) RecordExit(symbol string, reason models.ExitReason, ts time.Time) {
	if reason != models.ExitStopLoss && reason != models.ExitTrailingStop {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastStop[symbol] = ts
}

// IsAllowed reports whether the symbol is outside its cooldown window.
func (g *CooldownGate) IsAllowed(symbol string, now time.Time) (bool, time.Duration) {
	if g.cooldown <= 0 {
		return true, 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.lastStop[symbol]
	if !ok {
		return true, 0
	}
	elapsed := now.Sub(last)
	if elapsed < g.cooldown {
		return false, g.cooldown - elapsed
	}
	return true, 0
}

func (g *CooldownGate) Evaluate(ctx *Context) Decision {
	ok, remaining := g.IsAllowed(ctx.Symbol, ctx.Now)
	if !ok {
		return Reject(fmt.Sprintf("cooling down after stop-loss, %s remaining", remaining.Round(time.Second)))
	}
	return Allow()
}
