package audio

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/hudtoast/internal/config"
	"github.com/jmylchreest/hudtoast/internal/model"
)

// Cue announces new notifications: it logs the type symbol and plays the
// sound configured for the notification's presentation type.
type Cue struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  SoundPlayer
	watcher *Watcher

	enabled bool
	sounds  map[model.Type]string // presentation type -> sound path

	onError func(err error)
}

// NewCue creates a Cue. A nil player creates the speaker-backed Player.
func NewCue(cfg *config.Config, player SoundPlayer, logger *slog.Logger) *Cue {
	if logger == nil {
		logger = slog.Default()
	}
	if player == nil {
		player = NewPlayer(logger)
	}

	c := &Cue{
		logger: logger,
		player: player,
		sounds: make(map[model.Type]string),
	}
	c.applyConfig(cfg)
	return c
}

// SetErrorHandler sets the function called when a sound fails to play.
func (c *Cue) SetErrorHandler(handler func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = handler
}

// applyConfig loads enabled state, volume and sounds from cfg.
func (c *Cue) applyConfig(cfg *config.Config) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	sounds := make(map[model.Type]string)
	for _, t := range model.Types {
		path := cfg.GetSoundForType(t)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			c.logger.Warn("sound file not found", "type", t, "path", path)
			continue
		}
		sounds[t] = path
		c.logger.Debug("loaded sound", "type", t, "path", path)
	}

	for _, t := range model.Types {
		c.player.Bind(t, sounds[t])
	}
	c.player.SetVolume(float64(cfg.Audio.Volume) / 100.0)

	c.mu.Lock()
	c.enabled = cfg.Audio.Enabled
	c.sounds = sounds
	c.mu.Unlock()
}

// Sounds returns a copy of the resolved sound paths.
func (c *Cue) Sounds() map[model.Type]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sounds := make(map[model.Type]string, len(c.sounds))
	for t, path := range c.sounds {
		sounds[t] = path
	}
	return sounds
}

// Start preloads the configured sounds and watches them for edits.
func (c *Cue) Start(ctx context.Context) error {
	watcher, err := NewWatcher(c.player, c.logger)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.watcher = watcher
	c.mu.Unlock()

	c.preload()

	if err := watcher.Start(ctx); err != nil {
		return err
	}

	c.logger.Info("audio cue started", "sounds", len(c.Sounds()))
	return nil
}

// Stop stops the watcher and releases the speaker.
func (c *Cue) Stop() {
	c.mu.Lock()
	watcher := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if watcher != nil {
		watcher.Stop()
	}
	c.player.Close()
	c.logger.Debug("audio cue stopped")
}

// UpdateConfig applies a hot-reloaded configuration. Rebinding drops every
// previously decoded sound.
func (c *Cue) UpdateConfig(cfg *config.Config) {
	c.applyConfig(cfg)
	c.preload()
	c.logger.Debug("audio cue config updated")
}

func (c *Cue) preload() {
	c.mu.RLock()
	enabled := c.enabled
	watcher := c.watcher
	c.mu.RUnlock()

	for t, path := range c.Sounds() {
		if watcher != nil {
			watcher.Watch(path)
		}
		if !enabled {
			continue
		}
		if err := c.player.Preload(t); err != nil {
			c.logger.Warn("failed to preload sound", "type", t, "path", path, "error", err)
		}
	}
}

// Trigger runs the cue for a newly added notification.
func (c *Cue) Trigger(n model.Notification) {
	presentation := n.Type.Presentation()
	c.logger.Info("notification cue", "id", n.ID, "type", n.Type, "symbol", n.Type.Symbol())

	c.mu.RLock()
	enabled := c.enabled
	_, bound := c.sounds[presentation]
	onError := c.onError
	c.mu.RUnlock()

	if !enabled {
		return
	}
	if !bound {
		c.logger.Debug("no sound configured for type", "type", presentation)
		return
	}

	if err := c.player.Play(presentation); err != nil {
		c.logger.Warn("failed to play notification sound", "type", presentation, "error", err)
		if onError != nil {
			onError(err)
		}
	}
}
