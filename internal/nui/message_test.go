package nui

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"action":"addNotification","type":"success","title":"Saved","duration":3000}`))
	require.NoError(t, err)

	assert.Equal(t, "addNotification", msg.Action)
	assert.JSONEq(t, `{"type":"success","title":"Saved","duration":3000}`, string(msg.Payload))
	assert.NotContains(t, string(msg.Payload), "action")
}

func TestDecodeMessage_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"not json", `{"action":`, ErrInvalidMessage},
		{"array", `[1,2]`, ErrInvalidMessage},
		{"null", `null`, ErrInvalidMessage},
		{"no action", `{"title":"x"}`, ErrMissingAction},
		{"empty action", `{"action":""}`, ErrMissingAction},
		{"numeric action", `{"action":5}`, ErrInvalidMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage([]byte(tt.input))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMessage_Decode(t *testing.T) {
	msg, err := DecodeMessage([]byte(`{"action":"setVisible","visible":true}`))
	require.NoError(t, err)

	var payload VisiblePayload
	require.NoError(t, msg.Decode(&payload))
	assert.True(t, payload.Visible)

	bad := Message{Action: "setVisible", Payload: json.RawMessage(`{"visible":"yes"}`)}
	assert.Error(t, bad.Decode(&payload))
}

func TestEncodeMessage(t *testing.T) {
	data, err := EncodeMessage("setVisible", VisiblePayload{Visible: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"setVisible","visible":true}`, string(data))

	data, err = EncodeMessage("clearNotifications", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"clearNotifications"}`, string(data))

	_, err = EncodeMessage("bad", []int{1})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	// The action wins over a payload field of the same name
	data, err = EncodeMessage("real", map[string]any{"action": "fake", "x": 1})
	require.NoError(t, err)
	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	assert.Equal(t, "real", msg.Action)
	assert.JSONEq(t, `{"x":1}`, string(msg.Payload))
}
