package alerts

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	delivered chan alert
	failures  int32 // Send fails while > 0, decrementing each attempt
	attempts  int32
}

func newFakeSender() *fakeSender {
	return &fakeSender{delivered: make(chan alert, 16)}
}

func (f *fakeSender) Send(title, message string, color int) error {
	atomic.AddInt32(&f.attempts, 1)
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return errors.New("webhook unavailable")
	}
	f.delivered <- alert{title: title, message: message, color: color}
	return nil
}

func (f *fakeSender) waitFor(t *testing.T) alert {
	t.Helper()
	select {
	case a := <-f.delivered:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("no alert delivered in time")
		return alert{}
	}
}

func testDispatcher(t *testing.T, sender Sender, cfg models.AlertConfig) *Dispatcher {
	t.Helper()
	d := NewDispatcher(sender, cfg)
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func TestDispatcherDeliversInfoAndDanger(t *testing.T) {
	s := newFakeSender()
	d := testDispatcher(t, s, models.AlertConfig{})

	d.Notify("Position opened", "BTCUSDT 1.0 @ 100")
	a := s.waitFor(t)
	assert.Equal(t, "Position opened", a.title)
	assert.Equal(t, ColorInfo, a.color)

	d.NotifyDanger("Kill switch", "daily loss limit")
	a = s.waitFor(t)
	assert.Equal(t, "Kill switch", a.title)
	assert.Equal(t, ColorDanger, a.color)
}

func TestDispatcherRetriesTransientFailure(t *testing.T) {
	s := newFakeSender()
	s.failures = 2
	d := testDispatcher(t, s, models.AlertConfig{RetryAttempts: 3, RetryInitialDelayMs: 1})

	d.Notify("Position closed", "pnl 1.23")
	a := s.waitFor(t)
	assert.Equal(t, "Position closed", a.title)
	assert.Equal(t, int32(3), atomic.LoadInt32(&s.attempts))
}

func TestDispatcherDropsAfterRetryBudget(t *testing.T) {
	s := newFakeSender()
	s.failures = 100
	d := testDispatcher(t, s, models.AlertConfig{RetryAttempts: 2, RetryInitialDelayMs: 1})

	d.Notify("never arrives", "")

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&s.attempts) == 2
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case <-s.delivered:
		t.Fatal("alert should have been dropped")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatcherRateLimitDropsExcess(t *testing.T) {
	s := newFakeSender()
	d := testDispatcher(t, s, models.AlertConfig{RatePerMinute: 1})

	d.Notify("first", "")
	s.waitFor(t)

	// The budget is spent and refills only once a minute; the second alert
	// is dropped rather than queued behind the tick.
	d.Notify("second", "")
	select {
	case a := <-s.delivered:
		t.Fatalf("expected drop, got %q", a.title)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatcherNotifyNeverBlocksWhenStopped(t *testing.T) {
	s := newFakeSender()
	d := NewDispatcher(s, models.AlertConfig{})

	// Never started: the queue fills and further notifies drop silently.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			d.Notify("flood", "")
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
}
