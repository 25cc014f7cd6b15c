// Package model defines the core data structures for hudtoast.
package model

import (
	"crypto/rand"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Type is the kind of toast, which drives its presentation.
type Type string

// Notification types understood by the overlay.
const (
	TypeError     Type = "error"
	TypeSuccess   Type = "success"
	TypeInfo      Type = "info"
	TypeWarning   Type = "warning"
	TypePolice    Type = "police"
	TypeEMS       Type = "ems"
	TypeNews      Type = "news"
	TypeCityAlert Type = "cityalert"
	TypeCustom    Type = "custom"
)

// Types lists every known notification type in display order.
var Types = []Type{
	TypeError,
	TypeSuccess,
	TypeInfo,
	TypeWarning,
	TypePolice,
	TypeEMS,
	TypeNews,
	TypeCityAlert,
	TypeCustom,
}

// typeSymbols maps types to the symbol used for the arrival cue.
var typeSymbols = map[Type]string{
	TypeError:     "❌",
	TypeSuccess:   "✅",
	TypeInfo:      "ℹ️",
	TypeWarning:   "⚠️",
	TypePolice:    "🚔",
	TypeEMS:       "🚑",
	TypeNews:      "📰",
	TypeCityAlert: "📢",
}

// Valid reports whether t is one of the known types.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Presentation returns the type used for styling.
// Unknown types are presented as info.
func (t Type) Presentation() Type {
	if t.Valid() {
		return t
	}
	return TypeInfo
}

// Symbol returns the cue symbol for the type. Custom and unknown types have
// none and return "".
func (t Type) Symbol() string {
	return typeSymbols[t]
}

// Request is a notification as sent by the host, before an ID is assigned.
type Request struct {
	Type            Type           `json:"type" yaml:"type"`
	Title           string         `json:"title" yaml:"title"`
	Message         string         `json:"message" yaml:"message"`
	Duration        int            `json:"duration" yaml:"duration"` // milliseconds, <= 0 persists
	CustomData      map[string]any `json:"customData,omitempty" yaml:"customData,omitempty"`
	Color           string         `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor string         `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	Icon            string         `json:"icon,omitempty" yaml:"icon,omitempty"`
	Sound           *bool          `json:"sound,omitempty" yaml:"sound,omitempty"`
}

// Notification is a toast held by the store.
type Notification struct {
	ID         string    `json:"id" yaml:"id"`
	ReceivedAt time.Time `json:"receivedAt" yaml:"receivedAt"`

	Request `yaml:",inline"`
}

// ID generation uses a single monotonic entropy source so IDs created within
// the same millisecond still sort in creation order.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a fresh notification ID.
func NewID() (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// NewNotification creates a Notification from a request with a generated ID.
func NewNotification(req Request) (*Notification, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}

	return &Notification{
		ID:         id,
		ReceivedAt: time.Now(),
		Request:    req,
	}, nil
}

// SoundEnabled reports whether the arrival cue should fire. Sound defaults to on.
func (r Request) SoundEnabled() bool {
	return r.Sound == nil || *r.Sound
}

// Persistent reports whether the toast stays until it is dismissed.
func (r Request) Persistent() bool {
	return r.Duration <= 0
}

// Timeout returns the display duration, or 0 for persistent toasts.
func (r Request) Timeout() time.Duration {
	if r.Persistent() {
		return 0
	}
	return time.Duration(r.Duration) * time.Millisecond
}

// DisplayTitle returns the title, falling back to "Notification" when empty.
func (r Request) DisplayTitle() string {
	if r.Title == "" {
		return "Notification"
	}
	return r.Title
}

// Urgent reports whether the toast is an emergency-service alert.
func (r Request) Urgent() bool {
	return r.Type == TypePolice || r.Type == TypeEMS
}

// Location returns the customData location of an emergency alert.
func (r Request) Location() string {
	if !r.Urgent() || r.CustomData == nil {
		return ""
	}
	switch v := r.CustomData["location"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Clone creates a copy of the notification that shares no mutable state.
func (n *Notification) Clone() *Notification {
	clone := *n
	if n.CustomData != nil {
		clone.CustomData = maps.Clone(n.CustomData)
	}
	if n.Sound != nil {
		sound := *n.Sound
		clone.Sound = &sound
	}
	return &clone
}
