package nui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/hudtoast/internal/model"
)

// Inbound actions understood by the overlay.
const (
	ActionAddNotification    = "addNotification"
	ActionRemoveNotification = "removeNotification"
	ActionClearNotifications = "clearNotifications"
	ActionSetVisible         = "setVisible"
)

// Outbound events sent to the host.
const (
	EventNotificationRemoved = "notificationRemoved"
)

// Overlay is the toast surface the inbound actions drive.
type Overlay interface {
	Add(req model.Request) (string, error)
	Dismiss(id string) error
	Clear() int
	SetVisible(visible bool)
}

// AddResult is returned for addNotification.
type AddResult struct {
	ID string `json:"id"`
}

// IDPayload identifies a toast.
type IDPayload struct {
	ID string `json:"id"`
}

// VisiblePayload is the setVisible payload.
type VisiblePayload struct {
	Visible bool `json:"visible"`
}

// ClearResult is returned for clearNotifications.
type ClearResult struct {
	Cleared int `json:"cleared"`
}

// RemovedPayload is sent to the host when a toast goes away.
type RemovedPayload struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// RegisterOverlayHandlers wires the overlay actions into d.
func RegisterOverlayHandlers(d *Dispatcher, overlay Overlay, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	d.On(ActionAddNotification, func(_ context.Context, msg Message) (any, error) {
		var req model.Request
		if err := msg.Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}

		logger.Info("notification received",
			"title", req.Title,
			"duration", req.Duration,
			"type", req.Type,
		)

		id, err := overlay.Add(req)
		if err != nil {
			return nil, err
		}
		return AddResult{ID: id}, nil
	})

	d.On(ActionRemoveNotification, func(_ context.Context, msg Message) (any, error) {
		var payload IDPayload
		if err := msg.Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		if payload.ID == "" {
			return nil, fmt.Errorf("%w: removeNotification requires an id", ErrInvalidMessage)
		}
		if err := overlay.Dismiss(payload.ID); err != nil {
			return nil, err
		}
		return payload, nil
	})

	d.On(ActionClearNotifications, func(_ context.Context, _ Message) (any, error) {
		return ClearResult{Cleared: overlay.Clear()}, nil
	})

	d.On(ActionSetVisible, func(_ context.Context, msg Message) (any, error) {
		var payload VisiblePayload
		if err := msg.Decode(&payload); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
		}
		overlay.SetVisible(payload.Visible)
		return payload, nil
	})
}
