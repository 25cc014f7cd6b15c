package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/hudtoast/internal/nui"
)

func TestStreamReader_DispatchesLines(t *testing.T) {
	d := nui.NewDispatcher(nil)

	var titles []string
	d.On(nui.ActionAddNotification, func(_ context.Context, msg nui.Message) (any, error) {
		var payload struct {
			Title string `json:"title"`
		}
		require.NoError(t, msg.Decode(&payload))
		titles = append(titles, payload.Title)
		return nui.AddResult{ID: "id-" + payload.Title}, nil
	})

	input := strings.Join([]string{
		`{"action":"addNotification","title":"one","duration":1000}`,
		``,
		`not json at all`,
		`{"title":"no action"}`,
		`{"action":"unknown"}`,
		`   {"action":"addNotification","title":"two"}   `,
	}, "\n")

	var replies bytes.Buffer
	r := NewStreamReader(strings.NewReader(input), d, nil)
	r.SetReplyWriter(&replies)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []string{"one", "two"}, titles)
	assert.Equal(t, "{\"id\":\"id-one\"}\n{\"id\":\"id-two\"}\n", replies.String())
}

func TestStreamReader_HandlerErrorsAreSkipped(t *testing.T) {
	d := nui.NewDispatcher(nil)
	calls := 0
	d.On("x", func(context.Context, nui.Message) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("first fails")
		}
		return nil, nil
	})

	input := "{\"action\":\"x\"}\n{\"action\":\"x\"}\n"
	require.NoError(t, NewStreamReader(strings.NewReader(input), d, nil).Run(context.Background()))
	assert.Equal(t, 2, calls)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestStreamReader_ReadError(t *testing.T) {
	err := NewStreamReader(failingReader{}, nui.NewDispatcher(nil), nil).Run(context.Background())

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "stream", readErr.Source)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Equal(t, "failed to read messages: io: read/write on closed pipe", err.Error())
}

func TestStreamReader_StopsOnCancel(t *testing.T) {
	d := nui.NewDispatcher(nil)
	calls := 0
	d.On("x", func(context.Context, nui.Message) (any, error) {
		calls++
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := "{\"action\":\"x\"}\n{\"action\":\"x\"}\n"
	require.NoError(t, NewStreamReader(strings.NewReader(input), d, nil).Run(ctx))
	assert.Equal(t, 0, calls)
}
