package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hudtoast/internal/config"
)

func TestConfigWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hudtoast.toml")
	require.NoError(t, os.WriteFile(path, []byte("[overlay]\nexit_delay = \"600ms\"\n"), 0644))

	var (
		mu       sync.Mutex
		reloaded []*config.Config
		failures []error
	)

	w := NewConfigWatcher(path, nil)
	w.SetDebounce(20 * time.Millisecond)
	w.SetReloadCallback(func(cfg *config.Config) {
		mu.Lock()
		defer mu.Unlock()
		reloaded = append(reloaded, cfg)
	})
	w.SetErrorCallback(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		failures = append(failures, err)
	})

	initial := config.DefaultConfig()
	require.NoError(t, w.Start(context.Background(), initial))
	defer w.Stop()
	assert.Same(t, initial, w.GetCurrentConfig())

	require.NoError(t, os.WriteFile(path, []byte("[overlay]\nexit_delay = \"1s\"\n"), 0644))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, time.Second, w.GetCurrentConfig().Overlay.ExitDelay.Duration())

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nvolume = 500\n"), 0644))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failures) == 1
	}, 5*time.Second, 10*time.Millisecond)

	// The last good config stays active.
	assert.Equal(t, time.Second, w.GetCurrentConfig().Overlay.ExitDelay.Duration())
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hudtoast.toml")

	called := make(chan struct{}, 1)
	w := NewConfigWatcher(path, nil)
	w.SetDebounce(10 * time.Millisecond)
	w.SetReloadCallback(func(*config.Config) { called <- struct{}{} })
	require.NoError(t, w.Start(context.Background(), config.DefaultConfig()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1\n"), 0644))

	select {
	case <-called:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConfigWatcher_MissingDirectory(t *testing.T) {
	w := NewConfigWatcher("/nonexistent/dir/hudtoast.toml", nil)
	assert.Error(t, w.Start(context.Background(), config.DefaultConfig()))
	w.Stop()
}
