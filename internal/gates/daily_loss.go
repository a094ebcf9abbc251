package gates

import (
	"fmt"
	"sync"
	"time"

	"trade-engine-go/internal/models"
)

type symbolLossRecord struct {
	day         string // local date the counter belongs to
	consecutive int
}

// DailySymbolLossLimit blocks a symbol for the rest of the local day once it
// has taken the configured number of consecutive losses. A win resets the
// counter; the day boundary resets it lazily.
type DailySymbolLossLimit struct {
	mu      sync.Mutex
	max     int
	loc     *time.Location
	records map[string]*symbolLossRecord
}

func NewDailySymbolLossLimit(cfg models.SymbolLossConfig, loc *time.Location) *DailySymbolLossLimit {
	return &DailySymbolLossLimit{
		max:     cfg.MaxConsecutiveLosses,
		loc:     loc,
		records: make(map[string]*symbolLossRecord),
	}
}

func (g *DailySymbolLossLimit) Name() string { return "daily_symbol_loss" }

func (g *DailySymbolLossLimit) day(ts time.Time) string {
	return ts.In(g.loc).Format("2006-01-02")
}

// record returns the symbol's counter for the day of ts, rolling it over if
// the stored record belongs to an earlier day.
func (g *DailySymbolLossLimit) record(symbol string, ts time.Time) *symbolLossRecord {
	day := g.day(ts)
	rec, ok := g.records[symbol]
	if !ok || rec.day != day {
		rec = &symbolLossRecord{day: day}
		g.records[symbol] = rec
	}
	return rec
}

func (g *DailySymbolLossLimit) RecordLoss(symbol string, ts time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(symbol, ts).consecutive++
}

func (g *DailySymbolLossLimit) RecordWin(symbol string, ts time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record(symbol, ts).consecutive = 0
}

// IsAllowed reports whether the symbol is under its daily loss limit.
func (g *DailySymbolLossLimit) IsAllowed(symbol string, now time.Time) (bool, int) {
	if g.max <= 0 {
		return true, 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[symbol]
	if !ok || rec.day != g.day(now) {
		return true, 0
	}
	return rec.consecutive < g.max, rec.consecutive
}

func (g *DailySymbolLossLimit) Evaluate(ctx *Context) Decision {
	ok, losses := g.IsAllowed(ctx.Symbol, ctx.Now)
	if !ok {
		return Reject(fmt.Sprintf("daily loss limit hit: %d consecutive losses", losses))
	}
	return Allow()
}
