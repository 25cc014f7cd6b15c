package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/jmylchreest/hudtoast/internal/feed"
	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// SSE event names.
const (
	EventSnapshot   = "snapshot"
	EventVisibility = "visibility"
)

// Frame is one server-sent event.
type Frame struct {
	ID    string
	Event string
	Data  []byte
}

// WriteTo writes the frame in text/event-stream format.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	var n int
	var err error
	if f.ID != "" {
		n, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", f.ID, f.Event, f.Data)
	} else {
		n, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.Event, f.Data)
	}
	return int64(n), err
}

// NewFrame builds a frame with a JSON payload.
func NewFrame(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return Frame{Event: event, Data: data}, nil
}

// LifecycleFrame converts a lifecycle event into a frame named after its kind.
func LifecycleFrame(ev lifecycle.Event) (Frame, error) {
	frame, err := NewFrame(string(ev.Kind), ev)
	if err != nil {
		return Frame{}, err
	}
	frame.ID = ev.Item.Notification.ID
	return frame, nil
}

// VisibilityPayload is the data of a visibility frame.
type VisibilityPayload struct {
	Visible bool `json:"visible"`
}

// Client is one connected event stream. Ch delivers every broadcast frame in
// order and is closed when the client is unregistered or the hub stops.
type Client struct {
	Ch    <-chan Frame
	queue *feed.Queue[Frame]
}

// NewClient creates a Client whose channel holds buffer frames before later
// frames wait in its backlog.
func NewClient(buffer int) *Client {
	q := feed.New[Frame](buffer)
	return &Client{Ch: q.C(), queue: q}
}

// Hub fans frames out to every connected client.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan Frame
	clients    map[*Client]struct{}
	mu         sync.RWMutex

	done     chan struct{} // closed when Run returns
	doneOnce sync.Once
}

// NewHub creates a Hub. Run must be started before clients register.
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Frame, 64),
		clients:    make(map[*Client]struct{}),
		done:       make(chan struct{}),
	}
}

// Register adds a client. It is a no-op once Run has returned.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a frame for every client.
func (h *Hub) Broadcast(frame Frame) {
	select {
	case h.broadcast <- frame:
	case <-h.done:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer h.doneOnce.Do(func() { close(h.done) })
	defer h.closeClients()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case frame := <-h.broadcast:
			h.broadcastToAll(frame)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.queue.Close()
	}
}

func (h *Hub) closeClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.queue.Close()
	}
	clear(h.clients)
}

func (h *Hub) broadcastToAll(frame Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.queue.Push(frame)
	}
}
