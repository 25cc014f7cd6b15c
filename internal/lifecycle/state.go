// Package lifecycle drives each toast from Visible through Exiting to Removed.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/jmylchreest/hudtoast/internal/model"
)

// State is the lifecycle state of a toast.
type State int

const (
	// StateVisible is the initial state of every toast.
	StateVisible State = iota
	// StateExiting means the exit animation is running.
	StateExiting
	// StateRemoved is terminal; the toast is no longer in the store.
	StateRemoved
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateVisible:
		return "visible"
	case StateExiting:
		return "exiting"
	case StateRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "visible":
		*s = StateVisible
	case "exiting":
		*s = StateExiting
	case "removed":
		*s = StateRemoved
	default:
		return fmt.Errorf("unknown lifecycle state %q", text)
	}
	return nil
}

// Reason explains why a toast left the Visible state.
type Reason string

const (
	// ReasonExpired means the duration timer fired.
	ReasonExpired Reason = "expired"
	// ReasonDismissed means the user closed the toast.
	ReasonDismissed Reason = "dismissed"
	// ReasonClosed means the toast was torn down without an exit animation.
	ReasonClosed Reason = "closed"
)

// EventKind identifies a lifecycle transition.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventExiting EventKind = "exiting"
	EventRemoved EventKind = "removed"
)

// Item is a toast together with its lifecycle state.
type Item struct {
	Notification model.Notification `json:"notification" yaml:"notification"`
	State        State              `json:"state" yaml:"state"`
	ShownAt      time.Time          `json:"shownAt" yaml:"shownAt"`
	ExpiresAt    time.Time          `json:"expiresAt,omitzero" yaml:"expiresAt,omitempty"` // Zero means persistent
	ExitingAt    time.Time          `json:"exitingAt,omitzero" yaml:"exitingAt,omitempty"`
}

// Remaining returns the fraction of display time left at now, in [0,1].
// Persistent toasts always report 1.
func (it Item) Remaining(now time.Time) float64 {
	if it.ExpiresAt.IsZero() {
		return 1
	}
	if it.State != StateVisible {
		return 0
	}
	total := it.ExpiresAt.Sub(it.ShownAt)
	if total <= 0 {
		return 0
	}
	left := it.ExpiresAt.Sub(now)
	switch {
	case left <= 0:
		return 0
	case left >= total:
		return 1
	}
	return float64(left) / float64(total)
}

// Event is emitted on every lifecycle transition.
type Event struct {
	Kind   EventKind `json:"kind"`
	Item   Item      `json:"item"`
	Reason Reason    `json:"reason,omitempty"`
}
