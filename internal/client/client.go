// Package client talks to a running hudtoastd over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
	"github.com/jmylchreest/hudtoast/internal/nui"
)

// DefaultTimeout bounds non-streaming requests.
const DefaultTimeout = 5 * time.Second

// APIError is a non-2xx reply from the daemon.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("daemon returned status %d: %s", e.StatusCode, e.Message)
}

// NotFound reports whether the daemon did not know the notification.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Client is a hudtoastd API client.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for requests and streams.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
			c.stream = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the daemon listening on addr ("host:port" or a URL).
func New(addr string, opts ...Option) *Client {
	base := strings.TrimRight(addr, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: DefaultTimeout},
		stream:  &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the daemon base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Send posts an inbound NUI message and decodes the handler result into out.
func (c *Client) Send(ctx context.Context, action string, payload, out any) error {
	body, err := nui.EncodeMessage(action, payload)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/message", bytes.NewReader(body), out)
}

// Add posts an addNotification message and returns the new ID.
func (c *Client) Add(ctx context.Context, req model.Request) (string, error) {
	var result nui.AddResult
	if err := c.Send(ctx, nui.ActionAddNotification, req, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// SetVisible toggles the overlay.
func (c *Client) SetVisible(ctx context.Context, visible bool) error {
	return c.Send(ctx, nui.ActionSetVisible, nui.VisiblePayload{Visible: visible}, nil)
}

// List returns the overlay visibility and the current toasts.
func (c *Client) List(ctx context.Context) (bool, []lifecycle.Item, error) {
	var resp struct {
		Visible       bool             `json:"visible"`
		Notifications []lifecycle.Item `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &resp); err != nil {
		return false, nil, err
	}
	return resp.Visible, resp.Notifications, nil
}

// Dismiss closes a toast. With immediate it skips the exit animation.
func (c *Client) Dismiss(ctx context.Context, id string, immediate bool) error {
	path := "/notifications/" + url.PathEscape(id)
	if immediate {
		path += "?immediate=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Clear removes every toast and returns how many were removed.
func (c *Client) Clear(ctx context.Context) (int, error) {
	var resp nui.ClearResult
	if err := c.do(ctx, http.MethodDelete, "/notifications", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Cleared, nil
}

// Health checks that the daemon is up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("close response body", "path", path, "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
