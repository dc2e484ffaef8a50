package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherSnapshot(t *testing.T) {
	path := writeConfig(t, "trading:\n  pairs: [btc]\n")
	w, err := NewWatcher(path)
	require.NoError(t, err)

	snap := w.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, []string{"BTC"}, snap.Trading.NormalizedPairs())
}

func TestWatcherReload(t *testing.T) {
	path := writeConfig(t, "trading:\n  pairs: [btc]\n")
	w, err := NewWatcher(path)
	require.NoError(t, err)

	notified := make(chan *Config, 1)
	w.Subscribe(func(cfg *Config) {
		select {
		case notified <- cfg:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("trading:\n  pairs: [btc, eth]\n"), 0o644))
	require.NoError(t, w.reload())
	w.notify()

	assert.Equal(t, []string{"BTC", "ETH"}, w.Snapshot().Trading.NormalizedPairs())
	cfg := <-notified
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Trading.NormalizedPairs())
}

func TestWatcherKeepsSnapshotOnBadEdit(t *testing.T) {
	path := writeConfig(t, "trading:\n  pairs: [btc]\n")
	w, err := NewWatcher(path)
	require.NoError(t, err)

	// Invalid targets: reload fails, previous snapshot survives.
	require.NoError(t, os.WriteFile(path, []byte("targets:\n  percents: [5.0, 2.5]\n"), 0o644))
	assert.Error(t, w.reload())
	assert.Equal(t, []string{"BTC"}, w.Snapshot().Trading.NormalizedPairs())
}

func TestWatcherRequiresPath(t *testing.T) {
	_, err := NewWatcher(" ")
	assert.Error(t, err)
}
