// Package nui implements the message bridge between the host and the overlay.
//
// Inbound messages are JSON objects carrying an "action" field next to their
// payload. Outbound calls are JSON POSTs to https://<resource>/<event>, or
// canned responses from a mock registry when no host resource is present.
package nui

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned while decoding inbound messages.
var (
	ErrInvalidMessage = errors.New("invalid nui message")
	ErrMissingAction  = errors.New("nui message has no action")
)

// Message is an inbound message split into its action and payload.
type Message struct {
	Action  string
	Payload json.RawMessage // the object without the action field
}

// DecodeMessage parses a raw {"action": ..., ...} object.
func DecodeMessage(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if fields == nil {
		return Message{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidMessage)
	}

	rawAction, ok := fields["action"]
	if !ok {
		return Message{}, ErrMissingAction
	}
	var action string
	if err := json.Unmarshal(rawAction, &action); err != nil {
		return Message{}, fmt.Errorf("%w: action must be a string", ErrInvalidMessage)
	}
	if action == "" {
		return Message{}, ErrMissingAction
	}
	delete(fields, "action")

	payload, err := json.Marshal(fields)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	return Message{Action: action, Payload: payload}, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return nil
}

// EncodeMessage builds the wire form of a message by merging the action into
// the payload object. A nil payload produces {"action": ...}.
func EncodeMessage(action string, payload any) ([]byte, error) {
	fields := make(map[string]json.RawMessage)

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", action, err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("%w: %s payload must be an object", ErrInvalidMessage, action)
		}
		if fields == nil {
			fields = make(map[string]json.RawMessage)
		}
	}

	rawAction, err := json.Marshal(action)
	if err != nil {
		return nil, err
	}
	fields["action"] = rawAction

	return json.Marshal(fields)
}
