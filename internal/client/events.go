package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// Stream event names sent by the daemon besides the lifecycle kinds.
const (
	EventSnapshot   = "snapshot"
	EventVisibility = "visibility"
)

// Update is one decoded message from the daemon's event stream.
// Exactly one of Lifecycle, Snapshot or Visible is meaningful, selected by Event.
type Update struct {
	Event     string
	Lifecycle lifecycle.Event
	Snapshot  []lifecycle.Item
	Visible   bool
}

// Frame is a raw server-sent event.
type Frame struct {
	ID    string
	Event string
	Data  string
}

// Decoder reads server-sent events from a stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Decoder{scanner: scanner}
}

// Next returns the next frame. Comment lines are skipped. It returns io.EOF
// when the stream ends.
func (d *Decoder) Next() (Frame, error) {
	var frame Frame
	var data []string
	seen := false

	for d.scanner.Scan() {
		line := d.scanner.Text()
		if line == "" {
			if seen {
				frame.Data = strings.Join(data, "\n")
				return frame, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "id":
			frame.ID = value
		case "event":
			frame.Event = value
		case "data":
			data = append(data, value)
		default:
			continue
		}
		seen = true
	}

	if err := d.scanner.Err(); err != nil {
		return Frame{}, err
	}
	if seen {
		frame.Data = strings.Join(data, "\n")
		return frame, nil
	}
	return Frame{}, io.EOF
}

// DecodeUpdate converts a frame into an Update.
func DecodeUpdate(frame Frame) (Update, error) {
	u := Update{Event: frame.Event}
	switch frame.Event {
	case EventSnapshot:
		if err := json.Unmarshal([]byte(frame.Data), &u.Snapshot); err != nil {
			return Update{}, fmt.Errorf("decode snapshot: %w", err)
		}
	case EventVisibility:
		var payload struct {
			Visible bool `json:"visible"`
		}
		if err := json.Unmarshal([]byte(frame.Data), &payload); err != nil {
			return Update{}, fmt.Errorf("decode visibility: %w", err)
		}
		u.Visible = payload.Visible
	case string(lifecycle.EventAdded), string(lifecycle.EventExiting), string(lifecycle.EventRemoved):
		if err := json.Unmarshal([]byte(frame.Data), &u.Lifecycle); err != nil {
			return Update{}, fmt.Errorf("decode %s event: %w", frame.Event, err)
		}
	default:
		return Update{}, fmt.Errorf("unknown event %q", frame.Event)
	}
	return u, nil
}

// Watch connects to the daemon's event stream and delivers updates until
// ctx is done or the stream ends. The returned channel is closed on exit; the
// error channel receives at most one error.
func (c *Client) Watch(ctx context.Context) (<-chan Update, <-chan error, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/events", nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to event stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, nil, &APIError{StatusCode: resp.StatusCode}
	}

	updates := make(chan Update, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(updates)
		defer func() { _ = resp.Body.Close() }()

		dec := NewDecoder(resp.Body)
		for {
			frame, err := dec.Next()
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					errs <- err
				}
				return
			}

			u, err := DecodeUpdate(frame)
			if err != nil {
				c.logger.Debug("skipping event", "event", frame.Event, "error", err)
				continue
			}

			select {
			case updates <- u:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates, errs, nil
}
