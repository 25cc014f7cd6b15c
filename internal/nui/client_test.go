package nui

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_URL(t *testing.T) {
	c := NewClient("hud")
	assert.False(t, c.Debug())
	assert.Equal(t, "https://hud/notificationRemoved", c.URL("notificationRemoved"))

	c = NewClient("", WithEndpoint("http://127.0.0.1:9000/"))
	assert.False(t, c.Debug())
	assert.Equal(t, "http://127.0.0.1:9000/ping", c.URL("ping"))

	assert.True(t, NewClient("").Debug())
}

func TestClient_FetchPostsJSON(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"ok":true,"count":2}`))
	}))
	defer srv.Close()

	c := NewClient("hud", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))

	var out struct {
		OK    bool `json:"ok"`
		Count int  `json:"count"`
	}
	err := c.Fetch(context.Background(), "notificationRemoved", RemovedPayload{ID: "x", Reason: "expired"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "/notificationRemoved", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{"id": "x", "reason": "expired"}, gotBody)
	assert.True(t, out.OK)
	assert.Equal(t, 2, out.Count)
}

func TestClient_FetchNilDataSendsEmptyObject(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient("", WithEndpoint(srv.URL))
	var out map[string]any
	require.NoError(t, c.Fetch(context.Background(), "ping", nil, &out))
	assert.Equal(t, "{}", string(body))
	assert.Nil(t, out)
}

func TestClient_FetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/garbage":
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	c := NewClient("", WithEndpoint(srv.URL))

	err := c.Fetch(context.Background(), "missing", nil, nil)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "missing", fetchErr.Event)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "status 404")

	var out map[string]any
	err = c.Fetch(context.Background(), "garbage", nil, &out)
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "decode response")

	// Garbage is fine when nobody reads the reply
	assert.NoError(t, c.Fetch(context.Background(), "garbage", nil, nil))
}

func TestClient_FetchCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("", WithEndpoint(srv.URL))
	err := c.Fetch(ctx, "ping", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_DebugUsesMocks(t *testing.T) {
	mocks := NewMockRegistry()
	mocks.Set("getConfig", map[string]any{"position": "top-right", "max": 5})

	c := NewClient("", WithMocks(mocks))
	require.True(t, c.Debug())

	var out struct {
		Position string `json:"position"`
		Max      int    `json:"max"`
	}
	require.NoError(t, c.Fetch(context.Background(), "getConfig", map[string]any{"ignored": true}, &out))
	assert.Equal(t, "top-right", out.Position)
	assert.Equal(t, 5, out.Max)
}

func TestClient_DebugWithoutMockYieldsEmptyObject(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	c := NewClient("", WithClientLogger(logger))

	var out map[string]any
	require.NoError(t, c.Fetch(context.Background(), "unknownEvent", nil, &out))
	assert.Equal(t, map[string]any{}, out)
	assert.Contains(t, logs.String(), "No mock for 'unknownEvent'. Add to debugData.")
}

func TestMockRegistry(t *testing.T) {
	r := NewMockRegistry()
	r.Set("b", 1)
	r.Set("a", "x")

	v, ok := r.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, []string{"a", "b"}, r.Events())

	r.Delete("a")
	_, ok = r.Get("a")
	assert.False(t, ok)
}

func TestMockRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mocks.yaml")
	content := `
getPlayer:
  name: Jane
  job:
    grade: 3
notificationRemoved: {}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r := NewMockRegistry()
	r.Set("notificationRemoved", "replaced")
	require.NoError(t, r.LoadFile(path))

	assert.Equal(t, []string{"getPlayer", "notificationRemoved"}, r.Events())

	c := NewClient("", WithMocks(r))
	var player struct {
		Name string `json:"name"`
		Job  struct {
			Grade int `json:"grade"`
		} `json:"job"`
	}
	require.NoError(t, c.Fetch(context.Background(), "getPlayer", nil, &player))
	assert.Equal(t, "Jane", player.Name)
	assert.Equal(t, 3, player.Job.Grade)

	assert.Error(t, r.LoadFile(filepath.Join(dir, "missing.yaml")))
	assert.Error(t, r.Load([]byte("- not\n- a map\n")))
}
