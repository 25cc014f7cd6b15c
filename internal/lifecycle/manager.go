package lifecycle

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/hudtoast/internal/feed"
	"github.com/jmylchreest/hudtoast/internal/model"
	"github.com/jmylchreest/hudtoast/internal/store"
)

// DefaultExitDelay is how long a toast stays in Exiting before it is removed.
const DefaultExitDelay = 600 * time.Millisecond

// subscriberBuffer is the channel capacity of a subscription. Events beyond it
// wait in the subscription's backlog.
const subscriberBuffer = 64

var (
	// ErrUnknownNotification is returned for IDs the manager is not tracking.
	ErrUnknownNotification = errors.New("unknown notification")
	// ErrManagerClosed is returned by Add after Close.
	ErrManagerClosed = errors.New("lifecycle manager is closed")
)

// tracked is the manager's bookkeeping for one toast.
type tracked struct {
	item      Item
	reason    Reason
	timer     Timer // duration timer, nil for persistent toasts
	exitTimer Timer
}

// Manager owns the store's mutations and runs the per-toast timers.
type Manager struct {
	mu        sync.Mutex
	store     *store.Store
	clock     Clock
	logger    *slog.Logger
	exitDelay time.Duration

	items map[string]*tracked

	subscribers []*feed.Queue[Event]
	closed      bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for timers.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithExitDelay sets the Exiting → Removed delay.
func WithExitDelay(d time.Duration) Option {
	return func(m *Manager) { m.exitDelay = d }
}

// NewManager creates a Manager for the given store.
func NewManager(s *store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     s,
		clock:     WallClock(),
		logger:    slog.Default(),
		exitDelay: DefaultExitDelay,
		items:     make(map[string]*tracked),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetExitDelay changes the exit delay for toasts that start exiting from now on.
func (m *Manager) SetExitDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitDelay = d
}

// ExitDelay returns the current exit delay.
func (m *Manager) ExitDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitDelay
}

// Add stores the request and starts its lifecycle. It returns the new ID.
func (m *Manager) Add(req model.Request) (string, error) {
	id, err := m.store.Add(req)
	if err != nil {
		return "", err
	}

	n := m.store.Get(id)
	if n == nil {
		return id, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		_ = m.store.Remove(id)
		return "", ErrManagerClosed
	}

	now := m.clock.Now()
	t := &tracked{
		item: Item{
			Notification: *n,
			State:        StateVisible,
			ShownAt:      now,
		},
	}

	if timeout := n.Timeout(); timeout > 0 {
		t.item.ExpiresAt = now.Add(timeout)
		t.timer = m.clock.AfterFunc(timeout, func() {
			m.beginExit(id, ReasonExpired)
		})
	}
	m.items[id] = t

	m.logger.Debug("notification shown",
		"id", id,
		"type", n.Type,
		"title", n.Title,
		"duration_ms", n.Duration,
	)
	m.emitLocked(Event{Kind: EventAdded, Item: t.item})

	return id, nil
}

// Dismiss starts the exit animation for a visible toast, as a user close does.
// Dismissing a toast that is already exiting is a no-op.
func (m *Manager) Dismiss(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, exists := m.items[id]
	if !exists {
		return ErrUnknownNotification
	}
	if t.item.State == StateVisible {
		m.beginExitLocked(id, t, ReasonDismissed)
	}
	return nil
}

// Remove tears a toast down immediately, cancelling any pending timers.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, exists := m.items[id]
	if !exists {
		return ErrUnknownNotification
	}
	m.teardownLocked(id, t, ReasonClosed)
	return nil
}

// Clear tears down every toast.
func (m *Manager) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for id, t := range m.items {
		m.teardownLocked(id, t, ReasonClosed)
		count++
	}
	return count
}

// Get returns the lifecycle item for id.
func (m *Manager) Get(id string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, exists := m.items[id]
	if !exists {
		return Item{}, false
	}
	return t.item, true
}

// Snapshot returns every tracked toast in store order.
func (m *Manager) Snapshot() []Item {
	notifications := m.store.All()

	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]Item, 0, len(notifications))
	for _, n := range notifications {
		if t, exists := m.items[n.ID]; exists {
			items = append(items, t.item)
		}
	}
	return items
}

// Count returns the number of tracked toasts.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Subscribe returns a channel receiving every lifecycle event in order.
// A slow reader delays its own events but never loses them.
func (m *Manager) Subscribe() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := feed.New[Event](subscriberBuffer)
	if m.closed {
		q.Close()
		return q.C()
	}
	m.subscribers = append(m.subscribers, q)
	return q.C()
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(ch <-chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub.C() == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			sub.Close()
			return
		}
	}
}

// Close cancels every pending timer and closes subscriber channels.
// Toasts are left in the store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for id, t := range m.items {
		stopTimers(t)
		delete(m.items, id)
	}
	for _, sub := range m.subscribers {
		sub.Close()
	}
	m.subscribers = nil
}

// beginExit is the duration timer callback.
func (m *Manager) beginExit(id string, reason Reason) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, exists := m.items[id]
	if !exists || t.item.State != StateVisible {
		return
	}
	m.beginExitLocked(id, t, reason)
}

// beginExitLocked moves a toast to Exiting. Caller must hold the lock.
func (m *Manager) beginExitLocked(id string, t *tracked, reason Reason) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}

	t.item.State = StateExiting
	t.item.ExitingAt = m.clock.Now()
	t.reason = reason
	t.exitTimer = m.clock.AfterFunc(m.exitDelay, func() {
		m.finish(id, t)
	})

	m.logger.Debug("notification exiting", "id", id, "title", t.item.Notification.Title, "reason", reason)
	m.emitLocked(Event{Kind: EventExiting, Item: t.item, Reason: reason})
}

// finish is the exit timer callback.
func (m *Manager) finish(id string, t *tracked) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A torn-down or replaced entry must not be removed by a stale timer.
	if cur, exists := m.items[id]; !exists || cur != t || cur.item.State != StateExiting {
		return
	}
	t.exitTimer = nil
	m.teardownLocked(id, t, t.reason)
}

// teardownLocked removes a toast from the manager and the store.
// Caller must hold the lock.
func (m *Manager) teardownLocked(id string, t *tracked, reason Reason) {
	stopTimers(t)
	delete(m.items, id)

	if err := m.store.Remove(id); err != nil && !errors.Is(err, store.ErrStoreClosed) {
		m.logger.Warn("failed to remove notification", "id", id, "error", err)
	}

	t.item.State = StateRemoved
	m.logger.Debug("notification removed", "id", id, "reason", reason)
	m.emitLocked(Event{Kind: EventRemoved, Item: t.item, Reason: reason})
}

func stopTimers(t *tracked) {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.exitTimer != nil {
		t.exitTimer.Stop()
		t.exitTimer = nil
	}
}

// emitLocked queues an event for all subscribers (non-blocking).
// Caller must hold the lock.
func (m *Manager) emitLocked(event Event) {
	for _, sub := range m.subscribers {
		sub.Push(event)
	}
}
