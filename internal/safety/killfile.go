package safety

import (
	"os"
	"time"

	"trade-engine-go/internal/logger"
	"trade-engine-go/internal/models"
)

// KillFileWatcher polls for an external kill file and trips the kill switch
// when it appears. The poller is the only background task the safety layer
// owns; it shares nothing with the tick loop beyond the switch itself.
type KillFileWatcher struct {
	path     string
	interval time.Duration
	ks       *KillSwitch
	stopChan chan struct{}
}

func NewKillFileWatcher(cfg models.KillSwitchConfig, ks *KillSwitch) *KillFileWatcher {
	return &KillFileWatcher{
		path:     cfg.KillFilePath,
		interval: time.Duration(cfg.KillFilePollSec) * time.Second,
		ks:       ks,
		stopChan: make(chan struct{}),
	}
}

// Start launches the polling goroutine. No-op when no path is configured.
func (w *KillFileWatcher) Start() {
	if w.path == "" {
		return
	}
	go w.loop()
	logger.S().Infof("kill file watcher started on %s (every %s)", w.path, w.interval)
}

// Stop cancels the poller.
func (w *KillFileWatcher) Stop() {
	close(w.stopChan)
}

func (w *KillFileWatcher) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if _, err := os.Stat(w.path); err == nil {
				if !w.ks.IsKilled() {
					w.ks.Trigger(models.KillFileDetected, "killfile", "kill file present at "+w.path, 0)
					// The operator wrote the file; the event is theirs.
					w.ks.Acknowledge("killfile")
				}
			}
		}
	}
}
