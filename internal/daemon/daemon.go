package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/hudtoast/internal/audio"
	"github.com/jmylchreest/hudtoast/internal/client"
	"github.com/jmylchreest/hudtoast/internal/config"
	"github.com/jmylchreest/hudtoast/internal/feed"
	"github.com/jmylchreest/hudtoast/internal/input"
	"github.com/jmylchreest/hudtoast/internal/lifecycle"
	"github.com/jmylchreest/hudtoast/internal/model"
	"github.com/jmylchreest/hudtoast/internal/nui"
	"github.com/jmylchreest/hudtoast/internal/server"
	"github.com/jmylchreest/hudtoast/internal/store"
)

// shutdownTimeout bounds the HTTP server drain on exit.
const shutdownTimeout = 5 * time.Second

// feedBuffer is the channel capacity of an in-process renderer feed.
const feedBuffer = 64

// Options configures a Daemon.
type Options struct {
	Config     *config.Config
	ConfigPath string // Watched for hot reload when set
	Logger     *slog.Logger
	Version    string

	// Listener overrides Config.Server.Listen.
	Listener net.Listener

	// Overrides is applied to Config and to every reloaded configuration,
	// so command-line flags survive a hot reload.
	Overrides func(*config.Config)

	// Stdin, when set, is read as newline-delimited host messages.
	Stdin      io.Reader
	StdinReply io.Writer

	// Test seams
	Clock      lifecycle.Clock
	Player     audio.SoundPlayer
	HTTPClient *http.Client
}

// Daemon is the hudtoastd orchestrator.
type Daemon struct {
	opts   Options
	logger *slog.Logger
	clock  lifecycle.Clock

	mu      sync.RWMutex
	cfg     *config.Config
	visible bool
	subs    []*feed.Queue[client.Update]

	store      *store.Store
	manager    *lifecycle.Manager
	cue        *audio.Cue
	mocks      *nui.MockRegistry
	host       *nui.Client
	dispatcher *nui.Dispatcher
	hub        *server.Hub
	server     *server.Server
	notifier   *InternalNotifier
	watcher    *ConfigWatcher

	ready chan struct{}
	addr  net.Addr
}

// New wires a Daemon from opts. Nothing runs until Run is called.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if opts.Overrides != nil {
		opts.Overrides(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = lifecycle.WallClock()
	}

	d := &Daemon{
		opts:    opts,
		logger:  logger,
		clock:   clock,
		cfg:     cfg,
		visible: cfg.Overlay.StartVisible,
		ready:   make(chan struct{}),
	}

	d.store = store.NewStore()
	d.manager = lifecycle.NewManager(d.store,
		lifecycle.WithClock(clock),
		lifecycle.WithLogger(logger),
		lifecycle.WithExitDelay(cfg.Overlay.ExitDelay.Duration()),
	)

	d.notifier = NewInternalNotifier(logger)
	d.notifier.SetPoster(d.manager.Add)

	d.cue = audio.NewCue(cfg, opts.Player, logger)
	d.cue.SetErrorHandler(d.notifier.NotifyAudioError)
	d.store.SetCueHandler(d.cue.Trigger)

	d.mocks = nui.NewMockRegistry()
	if err := d.loadMocks(cfg); err != nil {
		return nil, err
	}
	d.host = d.newHostClient(cfg)

	d.dispatcher = nui.NewDispatcher(logger)
	nui.RegisterOverlayHandlers(d.dispatcher, d, logger)

	d.hub = server.NewHub()
	d.server = server.New(d, d.dispatcher, d.hub,
		server.WithHeartbeat(cfg.Server.Heartbeat.Duration()),
		server.WithLogger(logger),
	)

	return d, nil
}

func (d *Daemon) loadMocks(cfg *config.Config) error {
	path := cfg.MocksPath()
	if path == "" {
		return nil
	}
	if err := d.mocks.LoadFile(path); err != nil {
		return fmt.Errorf("failed to load mocks: %w", err)
	}
	d.logger.Debug("loaded debug mocks", "path", path, "events", d.mocks.Events())
	return nil
}

func (d *Daemon) newHostClient(cfg *config.Config) *nui.Client {
	hc := d.opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.NUI.Timeout.Duration()}
	}
	return nui.NewClient(cfg.NUI.ResourceName,
		nui.WithEndpoint(cfg.NUI.Endpoint),
		nui.WithHTTPClient(hc),
		nui.WithMocks(d.mocks),
		nui.WithClientLogger(d.logger),
	)
}

// Add posts a toast.
func (d *Daemon) Add(req model.Request) (string, error) {
	return d.manager.Add(req)
}

// Dismiss starts the exit animation of a toast.
func (d *Daemon) Dismiss(id string) error {
	return d.manager.Dismiss(id)
}

// Remove tears a toast down immediately.
func (d *Daemon) Remove(id string) error {
	return d.manager.Remove(id)
}

// Clear tears every toast down.
func (d *Daemon) Clear() int {
	return d.manager.Clear()
}

// Snapshot returns the current toasts in display order.
func (d *Daemon) Snapshot() []lifecycle.Item {
	return d.manager.Snapshot()
}

// Visible reports whether the overlay is shown.
func (d *Daemon) Visible() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.visible
}

// SetVisible shows or hides the overlay and tells every renderer.
func (d *Daemon) SetVisible(visible bool) {
	d.mu.Lock()
	d.visible = visible
	d.publishLocked(client.Update{Event: client.EventVisibility, Visible: visible})
	d.mu.Unlock()

	d.logger.Debug("overlay visibility changed", "visible", visible)
	frame, err := server.NewFrame(server.EventVisibility, server.VisibilityPayload{Visible: visible})
	if err != nil {
		d.logger.Error("encode visibility frame failed", "error", err)
		return
	}
	d.hub.Broadcast(frame)
}

// Dispatcher returns the host message dispatcher.
func (d *Daemon) Dispatcher() *nui.Dispatcher {
	return d.dispatcher
}

// Host returns the client used to call back into the host.
func (d *Daemon) Host() *nui.Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.host
}

// Handler returns the HTTP handler.
func (d *Daemon) Handler() http.Handler {
	return d.server.Handler()
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Subscribe returns a feed for an in-process renderer. The feed starts with
// the current visibility and snapshot.
func (d *Daemon) Subscribe() <-chan client.Update {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := feed.New[client.Update](feedBuffer)
	q.Push(client.Update{Event: client.EventVisibility, Visible: d.visible})
	q.Push(client.Update{Event: client.EventSnapshot, Snapshot: d.manager.Snapshot()})
	d.subs = append(d.subs, q)
	return q.C()
}

// Unsubscribe closes a feed returned by Subscribe.
func (d *Daemon) Unsubscribe(ch <-chan client.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, sub := range d.subs {
		if sub.C() == ch {
			d.subs = slices.Delete(d.subs, i, i+1)
			sub.Close()
			return
		}
	}
}

// publishLocked queues an update on every feed (non-blocking).
// Caller must hold the lock.
func (d *Daemon) publishLocked(u client.Update) {
	for _, sub := range d.subs {
		sub.Push(u)
	}
}

// Ready is closed once the HTTP listener is accepting connections.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// Addr returns the listening address. Valid after Ready is closed.
func (d *Daemon) Addr() net.Addr {
	return d.addr
}

// Run starts every component and blocks until ctx is cancelled or the HTTP
// server fails.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := d.Config()

	listener := d.opts.Listener
	if listener == nil {
		l, err := net.Listen("tcp", cfg.Server.Listen)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Listen, err)
		}
		listener = l
	}
	d.addr = listener.Addr()

	var wg sync.WaitGroup
	goFn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	goFn(func() { d.hub.Run(ctx) })

	events := d.manager.Subscribe()
	goFn(func() { d.forward(ctx, events) })

	if err := d.cue.Start(ctx); err != nil {
		d.logger.Warn("failed to start sound watcher", "error", err)
	}

	if d.opts.ConfigPath != "" {
		d.watcher = NewConfigWatcher(d.opts.ConfigPath, d.logger)
		d.watcher.SetReloadCallback(d.ApplyConfig)
		d.watcher.SetErrorCallback(d.notifier.NotifyConfigError)
		if err := d.watcher.Start(ctx, cfg); err != nil {
			d.logger.Warn("config hot reload disabled", "error", err)
			d.watcher = nil
		}
	}

	if d.opts.Stdin != nil {
		reader := input.NewStreamReader(d.opts.Stdin, d.dispatcher, d.logger)
		if d.opts.StdinReply != nil {
			reader.SetReplyWriter(d.opts.StdinReply)
		}
		goFn(func() {
			if err := reader.Run(ctx); err != nil {
				d.logger.Error("stdin reader stopped", "error", err)
			}
		})
	}

	if cfg.DebugMode() {
		d.logger.Info("no host resource configured; running in debug mode")
		d.clock.AfterFunc(cfg.Overlay.DebugVisibleDelay.Duration(), func() {
			if _, err := d.dispatcher.Emit(ctx, nui.ActionSetVisible, nui.VisiblePayload{Visible: true}); err != nil {
				d.logger.Warn("debug bootstrap failed", "error", err)
			}
		})
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- d.server.Serve(listener)
	}()
	d.notifier.NotifyStartup(d.opts.Version)
	close(d.ready)
	d.logger.Info("hudtoastd started", "addr", d.addr.String(), "version", d.opts.Version)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	d.shutdown()
	cancel()
	wg.Wait()

	d.logger.Info("hudtoastd stopped")
	return runErr
}

// shutdown stops components in reverse start order.
func (d *Daemon) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("http server shutdown", "error", err)
	}

	if d.watcher != nil {
		d.watcher.Stop()
	}
	d.cue.Stop()

	d.manager.Close()
	if err := d.store.Close(); err != nil && !errors.Is(err, store.ErrStoreClosed) {
		d.logger.Warn("store close", "error", err)
	}

	d.mu.Lock()
	for _, sub := range d.subs {
		sub.Close()
	}
	d.subs = nil
	d.mu.Unlock()
}

// forward fans lifecycle events out to the hub, in-process feeds and the host.
func (d *Daemon) forward(ctx context.Context, events <-chan lifecycle.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			d.mu.Lock()
			d.publishLocked(client.Update{Event: string(ev.Kind), Lifecycle: ev})
			notifyHost := d.cfg.NUI.NotifyHostOnRemove
			d.mu.Unlock()

			frame, err := server.LifecycleFrame(ev)
			if err != nil {
				d.logger.Error("encode lifecycle frame failed", "kind", ev.Kind, "error", err)
			} else {
				d.hub.Broadcast(frame)
			}

			if ev.Kind == lifecycle.EventRemoved && notifyHost {
				go d.reportRemoval(ctx, ev)
			}
		}
	}
}

// reportRemoval tells the host that a toast went away.
func (d *Daemon) reportRemoval(ctx context.Context, ev lifecycle.Event) {
	payload := nui.RemovedPayload{
		ID:     ev.Item.Notification.ID,
		Reason: string(ev.Reason),
	}
	if err := d.Host().Fetch(ctx, nui.EventNotificationRemoved, payload, nil); err != nil {
		if ctx.Err() != nil {
			return
		}
		d.logger.Warn("failed to report removal to host", "id", payload.ID, "error", err)
		d.notifier.NotifyHostError(err)
	}
}

// ApplyConfig applies a reloaded configuration to the running daemon.
// A changed listen address needs a restart.
func (d *Daemon) ApplyConfig(cfg *config.Config) {
	if d.opts.Overrides != nil {
		d.opts.Overrides(cfg)
	}

	d.mu.Lock()
	old := d.cfg
	d.cfg = cfg
	d.mu.Unlock()

	if old.Server.Listen != cfg.Server.Listen {
		d.logger.Warn("server.listen changed; restart hudtoastd to apply", "old", old.Server.Listen, "new", cfg.Server.Listen)
	}

	d.manager.SetExitDelay(cfg.Overlay.ExitDelay.Duration())
	d.server.SetHeartbeat(cfg.Server.Heartbeat.Duration())
	d.cue.UpdateConfig(cfg)

	if old.NUI != cfg.NUI {
		if err := d.loadMocks(cfg); err != nil {
			d.logger.Warn("failed to reload mocks", "error", err)
		}
		host := d.newHostClient(cfg)
		d.mu.Lock()
		d.host = host
		d.mu.Unlock()
	}

	d.notifier.NotifyConfigReloaded()
}
