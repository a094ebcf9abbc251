package clock

import (
	"sync"
	"time"
)

// Clock abstracts the time source so the engine runs identically against
// wall-clock time and backtest time.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Simulated is a Clock whose time is advanced explicitly, used by the
// backtest harness and by tests.
type Simulated struct {
	mu  sync.RWMutex
	now time.Time
}

// NewSimulated returns a simulated clock starting at t.
func NewSimulated(t time.Time) *Simulated {
	return &Simulated{now: t}
}

func (c *Simulated) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t. Time never moves backwards; earlier values are
// ignored.
func (c *Simulated) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.now) {
		c.now = t
	}
}

// Advance moves the clock forward by d.
func (c *Simulated) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
