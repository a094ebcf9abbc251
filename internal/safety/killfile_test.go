package safety

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"trade-engine-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKillFileWatcherTriggersAndAcknowledges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "KILL")
	cfg := models.KillSwitchConfig{KillFilePath: path, KillFilePollSec: 1}
	k, _ := newTestKill(cfg)

	w := NewKillFileWatcher(cfg, k)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("stop"), 0o644))
	require.Eventually(t, func() bool { return k.IsKilled() }, 3*time.Second, 50*time.Millisecond)

	hist := k.History()
	require.Len(t, hist, 1)
	assert.Equal(t, models.KillFileDetected, hist[0].Reason)
	assert.True(t, hist[0].Acknowledged)
}

func TestKillFileWatcherNoPathIsNoop(t *testing.T) {
	cfg := models.KillSwitchConfig{}
	k, _ := newTestKill(cfg)

	w := NewKillFileWatcher(cfg, k)
	w.Start() // must not launch a poller on an empty path
	w.Stop()
	assert.False(t, k.IsKilled())
}
