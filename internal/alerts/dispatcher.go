package alerts

import (
	"time"

	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
)

// Sender is the delivery backend behind the dispatcher.
type Sender interface {
	Send(title, message string, color int) error
}

type alert struct {
	title   string
	message string
	color   int
}

// Dispatcher decouples alert delivery from the trading loop. Notify never
// blocks: alerts go through a bounded queue and a background worker that
// rate-limits and retries them. When the queue is full or the rate budget is
// exhausted the alert is dropped, never the tick.
type Dispatcher struct {
	sender Sender
	cfg    models.AlertConfig

	queue    chan alert
	tokens   chan struct{}
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewDispatcher(sender Sender, cfg models.AlertConfig) *Dispatcher {
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = 10
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryInitialDelayMs <= 0 {
		cfg.RetryInitialDelayMs = 500
	}
	d := &Dispatcher{
		sender:   sender,
		cfg:      cfg,
		queue:    make(chan alert, 64),
		tokens:   make(chan struct{}, cfg.RatePerMinute),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	for i := 0; i < cfg.RatePerMinute; i++ {
		d.tokens <- struct{}{}
	}
	return d
}

// Start launches the delivery worker and the token refiller.
func (d *Dispatcher) Start() {
	go d.refill()
	go d.run()
}

// Stop shuts the worker down after the current delivery finishes. Queued
// alerts that were not yet picked up are discarded.
func (d *Dispatcher) Stop() {
	close(d.stopChan)
	<-d.doneChan
}

// Notify enqueues an informational alert. Non-blocking.
func (d *Dispatcher) Notify(title, message string) {
	d.enqueue(alert{title: title, message: message, color: ColorInfo})
}

// NotifyDanger enqueues a high-priority alert (kills, breakers, locks).
func (d *Dispatcher) NotifyDanger(title, message string) {
	d.enqueue(alert{title: title, message: message, color: ColorDanger})
}

func (d *Dispatcher) enqueue(a alert) {
	select {
	case d.queue <- a:
	default:
		logger.S().Warnf("alert queue full, dropping: %s", a.title)
	}
}

func (d *Dispatcher) run() {
	defer close(d.doneChan)
	for {
		select {
		case <-d.stopChan:
			return
		case a := <-d.queue:
			select {
			case <-d.tokens:
			default:
				logger.S().Warnf("alert rate limit hit, dropping: %s", a.title)
				continue
			}
			d.deliver(a)
		}
	}
}

// deliver retries with exponential backoff up to the configured budget.
func (d *Dispatcher) deliver(a alert) {
	delay := time.Duration(d.cfg.RetryInitialDelayMs) * time.Millisecond
	for attempt := 1; attempt <= d.cfg.RetryAttempts; attempt++ {
		err := d.sender.Send(a.title, a.message, a.color)
		if err == nil {
			return
		}
		logger.S().Warnf("alert delivery attempt %d/%d failed: %v", attempt, d.cfg.RetryAttempts, err)
		if attempt == d.cfg.RetryAttempts {
			break
		}
		select {
		case <-d.stopChan:
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
	logger.S().Errorf("alert dropped after %d attempts: %s", d.cfg.RetryAttempts, a.title)
}

// refill restores the send budget once a minute.
func (d *Dispatcher) refill() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			for i := len(d.tokens); i < cap(d.tokens); i++ {
				select {
				case d.tokens <- struct{}{}:
				default:
				}
			}
		}
	}
}
