package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/hudtoast/internal/model"
)

// NotificationLevel indicates the severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages.
	NotificationLevelWarning
	// NotificationLevelError is for error messages.
	NotificationLevelError
)

// internalDuration is how long the daemon's own toasts stay up.
const internalDuration = 5000

// Type maps the level to the toast type used to show it.
func (l NotificationLevel) Type() model.Type {
	switch l {
	case NotificationLevelWarning:
		return model.TypeWarning
	case NotificationLevelError:
		return model.TypeError
	default:
		return model.TypeInfo
	}
}

// InternalNotifier posts toasts about the daemon's own events.
// It rate-limits per key to prevent notification floods.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	// Creates the toast
	post func(req model.Request) (string, error)

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetPoster sets the function used to create toasts.
func (n *InternalNotifier) SetPoster(post func(req model.Request) (string, error)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.post = post
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify posts an internal toast unless the key is rate-limited.
func (n *InternalNotifier) Notify(key, title, message string, level NotificationLevel) {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return
	}
	post := n.post
	if post == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no poster", "title", title)
		return
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "title", title)
		return
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	n.logger.Debug("sending internal notification", "key", key, "title", title, "level", level)

	// Posting re-enters the store's cue handler, so it runs without the lock.
	if _, err := post(model.Request{
		Type:     level.Type(),
		Title:    title,
		Message:  message,
		Duration: internalDuration,
	}); err != nil {
		n.logger.Warn("failed to post internal notification", "key", key, "error", err)
	}
}

// NotifyConfigReloaded posts a toast about the config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"hudtoast configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError posts a toast about a rejected config file.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyStartup posts a toast that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"hudtoast Started",
		"Overlay daemon v"+version+" is now running.",
		NotificationLevelInfo,
	)
}

// NotifyAudioError posts a toast about a failed cue.
func (n *InternalNotifier) NotifyAudioError(err error) {
	n.Notify(
		"audio-error",
		"Audio Error",
		"Failed to play notification sound: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyHostError posts a toast about a failed host callback.
func (n *InternalNotifier) NotifyHostError(err error) {
	n.Notify(
		"host-error",
		"Host Callback Failed",
		err.Error(),
		NotificationLevelError,
	)
}
