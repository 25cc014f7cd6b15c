package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestNewNotification(t *testing.T) {
	req := Request{
		Type:       TypeSuccess,
		Title:      "Saved",
		Message:    "Done",
		Duration:   3000,
		CustomData: map[string]any{"k": "v"},
		Color:      "#fff",
		Icon:       "💾",
	}

	n, err := NewNotification(req)
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Len(t, n.ID, 26)
	assert.Equal(t, req, n.Request)
	assert.WithinDuration(t, time.Now(), n.ReceivedAt, time.Second)
}

func TestNewID_UniqueAndOrdered(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		id, err := NewID()
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestType_Presentation(t *testing.T) {
	tests := []struct {
		in   Type
		want Type
	}{
		{TypeError, TypeError},
		{TypeCityAlert, TypeCityAlert},
		{TypeCustom, TypeCustom},
		{Type("bogus"), TypeInfo},
		{Type(""), TypeInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Presentation())
		})
	}
}

func TestType_Symbol(t *testing.T) {
	assert.Equal(t, "🚔", TypePolice.Symbol())
	assert.Equal(t, "", Type("unknown").Symbol(), "unknown types present as info but carry no symbol")
	assert.Equal(t, "ℹ️", TypeInfo.Symbol())
	assert.Equal(t, "", TypeCustom.Symbol())
}

func TestRequest_SoundEnabled(t *testing.T) {
	assert.True(t, Request{}.SoundEnabled())
	assert.True(t, Request{Sound: boolPtr(true)}.SoundEnabled())
	assert.False(t, Request{Sound: boolPtr(false)}.SoundEnabled())
}

func TestRequest_Timeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, Request{Duration: 5000}.Timeout())
	assert.Equal(t, time.Duration(0), Request{Duration: 0}.Timeout())
	assert.Equal(t, time.Duration(0), Request{Duration: -10}.Timeout())
	assert.True(t, Request{Duration: -10}.Persistent())
	assert.False(t, Request{Duration: 1}.Persistent())
}

func TestRequest_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Notification", Request{}.DisplayTitle())
	assert.Equal(t, "Hello", Request{Title: "Hello"}.DisplayTitle())
}

func TestRequest_Location(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"police with location", Request{Type: TypePolice, CustomData: map[string]any{"location": "Legion Square"}}, "Legion Square"},
		{"ems numeric location", Request{Type: TypeEMS, CustomData: map[string]any{"location": 42}}, "42"},
		{"news ignores location", Request{Type: TypeNews, CustomData: map[string]any{"location": "x"}}, ""},
		{"police without data", Request{Type: TypePolice}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Location())
		})
	}
}

func TestRequest_JSONFieldNames(t *testing.T) {
	raw := `{"type":"custom","title":"T","message":"M","duration":1500,
		"customData":{"location":"Pier"},"color":"#ff0","backgroundColor":"#123","icon":"🔥","sound":false}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(raw), &req))

	assert.Equal(t, TypeCustom, req.Type)
	assert.Equal(t, 1500, req.Duration)
	assert.Equal(t, "#123", req.BackgroundColor)
	assert.Equal(t, "Pier", req.CustomData["location"])
	require.NotNil(t, req.Sound)
	assert.False(t, *req.Sound)
}

func TestNotification_JSONIsFlat(t *testing.T) {
	n := Notification{ID: "01ABC", Request: Request{Type: TypeInfo, Title: "hi"}}

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "01ABC", flat["id"])
	assert.Equal(t, "hi", flat["title"])
	assert.NotContains(t, flat, "Request")
}

func TestNotification_Clone(t *testing.T) {
	n := &Notification{
		ID: "x",
		Request: Request{
			CustomData: map[string]any{"location": "a"},
			Sound:      boolPtr(true),
		},
	}

	clone := n.Clone()
	clone.CustomData["location"] = "b"
	*clone.Sound = false

	assert.Equal(t, "a", n.CustomData["location"])
	assert.True(t, *n.Sound)
}
