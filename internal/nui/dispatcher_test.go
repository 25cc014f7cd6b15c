package nui

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hudtoast/internal/model"
)

type overlayMock struct {
	mock.Mock
}

func (m *overlayMock) Add(req model.Request) (string, error) {
	args := m.Called(req)
	return args.String(0), args.Error(1)
}

func (m *overlayMock) Dismiss(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *overlayMock) Clear() int {
	args := m.Called()
	return args.Int(0)
}

func (m *overlayMock) SetVisible(visible bool) {
	m.Called(visible)
}

func TestDispatcher_RoutesByAction(t *testing.T) {
	d := NewDispatcher(nil)

	var got []string
	d.On("a", func(_ context.Context, msg Message) (any, error) {
		got = append(got, "a:"+string(msg.Payload))
		return "ra", nil
	})
	d.On("b", func(_ context.Context, _ Message) (any, error) {
		got = append(got, "b")
		return nil, nil
	})

	result, err := d.Dispatch(context.Background(), []byte(`{"action":"a","n":1}`))
	require.NoError(t, err)
	assert.Equal(t, "ra", result)
	assert.Equal(t, []string{`a:{"n":1}`}, got)
	assert.Equal(t, []string{"a", "b"}, d.Actions())
}

func TestDispatcher_UnknownActionIgnored(t *testing.T) {
	d := NewDispatcher(nil)
	called := false
	d.On("known", func(_ context.Context, _ Message) (any, error) {
		called = true
		return nil, nil
	})

	result, err := d.Dispatch(context.Background(), []byte(`{"action":"unknown"}`))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.False(t, called)
}

func TestDispatcher_MalformedMessage(t *testing.T) {
	d := NewDispatcher(nil)
	_, err := d.Dispatch(context.Background(), []byte(`nope`))
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDispatcher_MultipleHandlers(t *testing.T) {
	d := NewDispatcher(nil)

	var order []int
	d.On("x", func(_ context.Context, _ Message) (any, error) {
		order = append(order, 1)
		return "first", nil
	})
	d.On("x", func(_ context.Context, _ Message) (any, error) {
		order = append(order, 2)
		return nil, nil
	})

	result, err := d.Emit(context.Background(), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, "first", result)
}

func TestDispatcher_HandlerErrorStops(t *testing.T) {
	d := NewDispatcher(nil)
	boom := errors.New("boom")

	second := false
	d.On("x", func(_ context.Context, _ Message) (any, error) { return nil, boom })
	d.On("x", func(_ context.Context, _ Message) (any, error) {
		second = true
		return nil, nil
	})

	_, err := d.Emit(context.Background(), "x", nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, second)
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcher(nil)
	calls := 0
	off := d.On("x", func(_ context.Context, _ Message) (any, error) {
		calls++
		return nil, nil
	})

	_, _ = d.Emit(context.Background(), "x", nil)
	off()
	off()
	_, _ = d.Emit(context.Background(), "x", nil)

	assert.Equal(t, 1, calls)
	assert.Empty(t, d.Actions())
}

func TestOverlayHandlers_AddNotification(t *testing.T) {
	overlay := &overlayMock{}
	d := NewDispatcher(nil)
	RegisterOverlayHandlers(d, overlay, nil)

	want := model.Request{
		Type:     model.TypeSuccess,
		Title:    "Saved",
		Message:  "Done",
		Duration: 3000,
	}
	overlay.On("Add", want).Return("01ABC", nil).Once()

	result, err := d.Dispatch(context.Background(),
		[]byte(`{"action":"addNotification","type":"success","title":"Saved","message":"Done","duration":3000}`))
	require.NoError(t, err)
	assert.Equal(t, AddResult{ID: "01ABC"}, result)
	overlay.AssertExpectations(t)
}

func TestOverlayHandlers_AddNotificationBadPayload(t *testing.T) {
	overlay := &overlayMock{}
	d := NewDispatcher(nil)
	RegisterOverlayHandlers(d, overlay, nil)

	_, err := d.Dispatch(context.Background(), []byte(`{"action":"addNotification","duration":"long"}`))
	assert.ErrorIs(t, err, ErrInvalidMessage)
	overlay.AssertNotCalled(t, "Add", mock.Anything)
}

func TestOverlayHandlers_Remove(t *testing.T) {
	overlay := &overlayMock{}
	d := NewDispatcher(nil)
	RegisterOverlayHandlers(d, overlay, nil)

	overlay.On("Dismiss", "01ABC").Return(nil).Once()
	result, err := d.Emit(context.Background(), ActionRemoveNotification, IDPayload{ID: "01ABC"})
	require.NoError(t, err)
	assert.Equal(t, IDPayload{ID: "01ABC"}, result)

	_, err = d.Emit(context.Background(), ActionRemoveNotification, nil)
	assert.ErrorIs(t, err, ErrInvalidMessage)

	overlay.AssertExpectations(t)
}

func TestOverlayHandlers_ClearAndVisible(t *testing.T) {
	overlay := &overlayMock{}
	d := NewDispatcher(nil)
	RegisterOverlayHandlers(d, overlay, nil)

	overlay.On("Clear").Return(4).Once()
	overlay.On("SetVisible", true).Once()

	result, err := d.Emit(context.Background(), ActionClearNotifications, nil)
	require.NoError(t, err)
	assert.Equal(t, ClearResult{Cleared: 4}, result)

	result, err = d.Emit(context.Background(), ActionSetVisible, VisiblePayload{Visible: true})
	require.NoError(t, err)
	assert.Equal(t, VisiblePayload{Visible: true}, result)

	overlay.AssertExpectations(t)
}
