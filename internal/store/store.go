// Package store provides the ordered store of active notifications.
package store

import (
	"sync"

	"github.com/jmylchreest/hudtoast/internal/model"
)

// ChangeType indicates the type of store change.
type ChangeType int

const (
	// ChangeTypeAdd indicates a notification was appended.
	ChangeTypeAdd ChangeType = iota
	// ChangeTypeRemove indicates a notification was removed.
	ChangeTypeRemove
)

// String returns the string representation of ChangeType.
func (c ChangeType) String() string {
	switch c {
	case ChangeTypeAdd:
		return "add"
	case ChangeTypeRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// ChangeEvent signals store content changes.
type ChangeEvent struct {
	Type  ChangeType
	ID    string
	Count int // Count after the change
}

// CueHandler is invoked for every added notification that has sound enabled.
type CueHandler func(n model.Notification)

// Store holds the active notifications in arrival order.
type Store struct {
	mu            sync.RWMutex
	notifications []model.Notification
	index         map[string]int // id -> slice index

	onCue CueHandler

	subscribers []chan ChangeEvent
	closed      bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		notifications: make([]model.Notification, 0),
		index:         make(map[string]int),
		subscribers:   make([]chan ChangeEvent, 0),
	}
}

// SetCueHandler sets the handler triggered when a notification with sound arrives.
func (s *Store) SetCueHandler(handler CueHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCue = handler
}

// Add assigns a fresh ID to the request, appends it and returns the ID.
func (s *Store) Add(req model.Request) (string, error) {
	n, err := model.NewNotification(req)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrStoreClosed
	}

	// IDs come from a monotonic source, a collision means the clock went
	// backwards into an ID we already hold.
	for {
		if _, exists := s.index[n.ID]; !exists {
			break
		}
		if n.ID, err = model.NewID(); err != nil {
			s.mu.Unlock()
			return "", err
		}
	}

	s.index[n.ID] = len(s.notifications)
	s.notifications = append(s.notifications, *n)

	s.notifyChange(ChangeEvent{
		Type:  ChangeTypeAdd,
		ID:    n.ID,
		Count: len(s.notifications),
	})
	cue := s.onCue
	s.mu.Unlock()

	if cue != nil && n.SoundEnabled() {
		cue(*n.Clone())
	}

	return n.ID, nil
}

// Remove deletes the notification with the given ID. Unknown IDs are ignored.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	idx, exists := s.index[id]
	if !exists {
		return nil
	}

	s.notifications = append(s.notifications[:idx], s.notifications[idx+1:]...)

	// Rebuild indices
	s.index = make(map[string]int, len(s.notifications))
	for i, n := range s.notifications {
		s.index[n.ID] = i
	}

	s.notifyChange(ChangeEvent{
		Type:  ChangeTypeRemove,
		ID:    id,
		Count: len(s.notifications),
	})

	return nil
}

// All returns a copy of the notifications in arrival order.
func (s *Store) All() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Notification, len(s.notifications))
	for i := range s.notifications {
		result[i] = *s.notifications[i].Clone()
	}
	return result
}

// Get returns a copy of the notification with the given ID, or nil.
func (s *Store) Get(id string) *model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, exists := s.index[id]; exists {
		return s.notifications[idx].Clone()
	}
	return nil
}

// Count returns the number of active notifications.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

// Subscribe returns a channel that receives change events.
func (s *Store) Subscribe() <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, 32)
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (s *Store) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close releases resources and closes all subscriber channels.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil

	return nil
}

// notifyChange sends a change event to all subscribers (non-blocking).
// Caller must hold the lock.
func (s *Store) notifyChange(event ChangeEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// Errors
var (
	ErrStoreClosed = storeError("store is closed")
)

type storeError string

func (e storeError) Error() string {
	return string(e)
}
