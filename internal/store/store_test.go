package store

import (
	"math/rand"
	"testing"

	"github.com/jmylchreest/hudtoast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest(title string) model.Request {
	return model.Request{
		Type:     model.TypeInfo,
		Title:    title,
		Message:  "message for " + title,
		Duration: 5000,
	}
}

func TestNewStore(t *testing.T) {
	s := NewStore()
	assert.NotNil(t, s)
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.All())
}

func TestStore_Add(t *testing.T) {
	s := NewStore()
	defer s.Close()

	sound := false
	req := model.Request{
		Type:            model.TypeCustom,
		Title:           "Saved",
		Message:         "Done",
		Duration:        3000,
		CustomData:      map[string]any{"location": "Pier"},
		Color:           "#fff",
		BackgroundColor: "#000",
		Icon:            "💾",
		Sound:           &sound,
	}

	id, err := s.Add(req)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
	assert.Equal(t, req, all[0].Request)
}

func TestStore_AddNoDeduplication(t *testing.T) {
	s := NewStore()
	defer s.Close()

	req := testRequest("same")
	id1, err := s.Add(req)
	require.NoError(t, err)
	id2, err := s.Add(req)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, s.Count())
}

func TestStore_AppendsInOrder(t *testing.T) {
	s := NewStore()
	defer s.Close()

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		id, err := s.Add(testRequest(title))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	all := s.All()
	require.Len(t, all, 3)
	for i, n := range all {
		assert.Equal(t, ids[i], n.ID)
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	defer s.Close()

	id1, _ := s.Add(testRequest("one"))
	id2, _ := s.Add(testRequest("two"))
	id3, _ := s.Add(testRequest("three"))

	require.NoError(t, s.Remove(id2))
	assert.Equal(t, 2, s.Count())
	assert.Nil(t, s.Get(id2))

	// Indices are rebuilt after removal
	assert.Equal(t, "one", s.Get(id1).Title)
	assert.Equal(t, "three", s.Get(id3).Title)
}

func TestStore_RemoveUnknownIsNoop(t *testing.T) {
	s := NewStore()
	defer s.Close()

	id, _ := s.Add(testRequest("keep"))
	before := s.All()

	require.NoError(t, s.Remove("does-not-exist"))
	require.NoError(t, s.Remove(""))

	assert.Equal(t, before, s.All())
	assert.NotNil(t, s.Get(id))
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := NewStore()
	defer s.Close()

	id, _ := s.Add(testRequest("x"))
	require.NoError(t, s.Remove(id))
	require.NoError(t, s.Remove(id))
	assert.Equal(t, 0, s.Count())
}

func TestStore_AddThenRemoveAllInAnyOrder(t *testing.T) {
	s := NewStore()
	defer s.Close()

	const n = 50
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.Add(testRequest("bulk"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	for _, id := range ids {
		require.NoError(t, s.Remove(id))
	}
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.All())
}

func TestStore_RemovedIDNeverReturns(t *testing.T) {
	s := NewStore()
	defer s.Close()

	id, _ := s.Add(testRequest("gone"))
	require.NoError(t, s.Remove(id))

	for i := 0; i < 100; i++ {
		next, err := s.Add(testRequest("new"))
		require.NoError(t, err)
		assert.NotEqual(t, id, next)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()
	defer s.Close()

	req := testRequest("copy")
	req.CustomData = map[string]any{"k": "v"}
	id, _ := s.Add(req)

	got := s.Get(id)
	got.Title = "mutated"
	got.CustomData["k"] = "mutated"

	again := s.Get(id)
	assert.Equal(t, "copy", again.Title)
	assert.Equal(t, "v", again.CustomData["k"])
}

func TestStore_CueHandler(t *testing.T) {
	s := NewStore()
	defer s.Close()

	var cued []string
	s.SetCueHandler(func(n model.Notification) {
		cued = append(cued, n.Title)
	})

	off := false
	on := true

	_, _ = s.Add(model.Request{Title: "default"})
	_, _ = s.Add(model.Request{Title: "explicit-on", Sound: &on})
	_, _ = s.Add(model.Request{Title: "muted", Sound: &off})

	assert.Equal(t, []string{"default", "explicit-on"}, cued)
	assert.Equal(t, 3, s.Count())
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore()
	defer s.Close()

	ch := s.Subscribe()

	id, err := s.Add(testRequest("sub"))
	require.NoError(t, err)

	ev := <-ch
	assert.Equal(t, ChangeTypeAdd, ev.Type)
	assert.Equal(t, id, ev.ID)
	assert.Equal(t, 1, ev.Count)

	require.NoError(t, s.Remove(id))
	ev = <-ch
	assert.Equal(t, ChangeTypeRemove, ev.Type)
	assert.Equal(t, id, ev.ID)
	assert.Equal(t, 0, ev.Count)

	// Removing an unknown id emits nothing
	require.NoError(t, s.Remove(id))
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %+v", ev)
	default:
	}

	s.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestStore_Close(t *testing.T) {
	s := NewStore()
	ch := s.Subscribe()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, ok := <-ch
	assert.False(t, ok)

	_, err := s.Add(testRequest("late"))
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.Remove("x"), ErrStoreClosed)
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "add", ChangeTypeAdd.String())
	assert.Equal(t, "remove", ChangeTypeRemove.String())
	assert.Equal(t, "unknown", ChangeType(99).String())
}
