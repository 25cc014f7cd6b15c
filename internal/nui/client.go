package nui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 5 * time.Second

// maxResponseSize caps how much of a host response is read.
const maxResponseSize = 1 << 20

// FetchError reports a failed fetch to the host.
type FetchError struct {
	Event      string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.Event, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: status %d", e.Event, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %v", e.Event, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client posts events to the host resource.
type Client struct {
	resource string
	endpoint string
	http     *http.Client
	mocks    *MockRegistry
	logger   *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the https://<resource> base URL.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) { c.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithHTTPClient sets the HTTP client used for fetches.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithMocks sets the registry consulted in debug mode.
func WithMocks(mocks *MockRegistry) ClientOption {
	return func(c *Client) {
		if mocks != nil {
			c.mocks = mocks
		}
	}
}

// WithClientLogger sets the logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client for the named host resource. An empty resource
// name puts the client in debug mode.
func NewClient(resourceName string, opts ...ClientOption) *Client {
	c := &Client{
		resource: resourceName,
		http:     &http.Client{Timeout: DefaultTimeout},
		mocks:    NewMockRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Debug reports whether fetches are served from mocks.
func (c *Client) Debug() bool {
	return c.resource == "" && c.endpoint == ""
}

// Mocks returns the debug mock registry.
func (c *Client) Mocks() *MockRegistry {
	return c.mocks
}

// URL returns the address an event is posted to.
func (c *Client) URL(event string) string {
	base := c.endpoint
	if base == "" {
		base = "https://" + c.resource
	}
	return base + "/" + event
}

// Fetch posts data to the host under event and decodes the JSON reply into out.
// A nil data sends {}; a nil out discards the reply.
func (c *Client) Fetch(ctx context.Context, event string, data any, out any) error {
	if c.Debug() {
		return c.fetchMock(event, out)
	}

	if data == nil {
		data = struct{}{}
	}
	body, err := json.Marshal(data)
	if err != nil {
		return &FetchError{Event: event, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(event), bytes.NewReader(body))
	if err != nil {
		return &FetchError{Event: event, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Event: event, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &FetchError{Event: event, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Event: event, StatusCode: resp.StatusCode}
	}

	c.logger.Debug("fetched", "event", event, "status", resp.StatusCode, "bytes", len(respBody))

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &FetchError{Event: event, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// fetchMock answers a fetch from the registry. Unknown events yield {}.
func (c *Client) fetchMock(event string, out any) error {
	mock, ok := c.mocks.Get(event)
	if !ok {
		c.logger.Warn(fmt.Sprintf("No mock for '%s'. Add to debugData.", event), "event", event)
		mock = map[string]any{}
	}
	if out == nil {
		return nil
	}

	// Mocks are decoded through JSON exactly like host replies.
	data, err := json.Marshal(mock)
	if err != nil {
		return &FetchError{Event: event, Err: fmt.Errorf("encode mock: %w", err)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &FetchError{Event: event, Err: fmt.Errorf("decode mock: %w", err)}
	}
	return nil
}
