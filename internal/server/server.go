// Package server exposes the overlay over HTTP: the host message channel,
// the toast list and a server-sent event stream for renderers.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmylchreest/hudtoast/internal/lifecycle"
)

// DefaultHeartbeat is the SSE keep-alive interval.
const DefaultHeartbeat = 15 * time.Second

// Overlay is the state the HTTP surface reads and mutates.
type Overlay interface {
	Snapshot() []lifecycle.Item
	Dismiss(id string) error
	Remove(id string) error
	Clear() int
	Visible() bool
}

// Dispatcher routes host messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, data []byte) (any, error)
}

// Server is the HTTP front of the daemon.
type Server struct {
	engine     *gin.Engine
	overlay    Overlay
	dispatcher Dispatcher
	hub        *Hub
	logger     *slog.Logger

	mu        sync.Mutex
	heartbeat time.Duration
	http      *http.Server
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithHeartbeat sets the SSE heartbeat interval.
func WithHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server. The hub must be running for /events to work.
func New(overlay Overlay, dispatcher Dispatcher, hub *Hub, opts ...Option) *Server {
	s := &Server{
		overlay:    overlay,
		dispatcher: dispatcher,
		hub:        hub,
		logger:     slog.Default(),
		heartbeat:  DefaultHeartbeat,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.newRouter()
	return s
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(SlogLogger(s.logger), SlogRecovery(s.logger))

	router.GET("/health", s.health)
	router.POST("/message", s.message)
	router.GET("/notifications", s.listNotifications)
	router.DELETE("/notifications", s.clearNotifications)
	router.DELETE("/notifications/:id", s.deleteNotification)
	router.GET("/events", s.events)

	return router
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetHeartbeat changes the heartbeat for streams opened from now on.
func (s *Server) SetHeartbeat(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heartbeat = d
}

func (s *Server) heartbeatInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeat
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.http = &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.http
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until Shutdown is called.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown ends open event streams and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.http
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
