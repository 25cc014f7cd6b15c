package audio

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates decoded sounds when their files change on disk.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	player  SoundPlayer

	// Watched sound paths, and how many of them live in each directory
	paths map[string]bool
	dirs  map[string]int

	done    chan struct{}
	running bool
}

// NewWatcher creates a Watcher that invalidates entries in player.
func NewWatcher(player SoundPlayer, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		logger:  logger,
		watcher: watcher,
		player:  player,
		paths:   make(map[string]bool),
		dirs:    make(map[string]int),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a sound file. The containing directory is watched, which is
// more reliable than the file itself for editors that replace on save.
func (w *Watcher) Watch(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paths[path] {
		return
	}

	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch sound directory", "dir", dir, "error", err)
			return
		}
	}
	w.dirs[dir]++
	w.paths[path] = true
}

// Unwatch removes a sound file.
func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.paths[path] {
		return
	}
	delete(w.paths, path)

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.watcher.Remove(dir)
	}
}

// Watching reports whether path is being watched.
func (w *Watcher) Watching(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paths[filepath.Clean(path)]
}

// Start begins processing file events.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	go w.watch(ctx)

	w.logger.Debug("audio watcher started")
	return nil
}

// watch is the main watch loop.
func (w *Watcher) watch(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("audio watcher error", "error", err)

		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	path := filepath.Clean(event.Name)
	if !w.Watching(path) {
		return
	}

	w.logger.Debug("audio file changed, invalidating cache", "path", path, "op", event.Op.String())
	if w.player != nil {
		w.player.Invalidate(path)
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		_ = w.watcher.Close()
		return
	}
	w.running = false
	close(w.done)
	_ = w.watcher.Close()
	w.logger.Debug("audio watcher stopped")
}
