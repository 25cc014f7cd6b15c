package nui

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Handler processes the payload of one action. The returned value, if not
// nil, is sent back to whoever posted the message.
type Handler func(ctx context.Context, msg Message) (any, error)

type registration struct {
	handler Handler
}

// Dispatcher routes inbound messages to the handlers registered for their action.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]*registration
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handlers: make(map[string][]*registration),
		logger:   logger,
	}
}

// On registers a handler for action. Several handlers may listen to the same
// action; they run in registration order. The returned func unregisters it.
func (d *Dispatcher) On(action string, handler Handler) func() {
	reg := &registration{handler: handler}

	d.mu.Lock()
	d.handlers[action] = append(d.handlers[action], reg)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		regs := d.handlers[action]
		for i, r := range regs {
			if r == reg {
				d.handlers[action] = append(regs[:i], regs[i+1:]...)
				break
			}
		}
		if len(d.handlers[action]) == 0 {
			delete(d.handlers, action)
		}
	}
}

// Actions returns the actions that have at least one handler.
func (d *Dispatcher) Actions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	actions := make([]string, 0, len(d.handlers))
	for action := range d.handlers {
		actions = append(actions, action)
	}
	sort.Strings(actions)
	return actions
}

// Dispatch decodes a raw message and routes it.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte) (any, error) {
	msg, err := DecodeMessage(data)
	if err != nil {
		return nil, err
	}
	return d.DispatchMessage(ctx, msg)
}

// DispatchMessage routes msg to its handlers. Messages for actions nobody
// listens to are ignored. The result is the last non-nil handler result.
func (d *Dispatcher) DispatchMessage(ctx context.Context, msg Message) (any, error) {
	d.mu.RLock()
	regs := append([]*registration(nil), d.handlers[msg.Action]...)
	d.mu.RUnlock()

	if len(regs) == 0 {
		d.logger.Debug("ignoring message with no handler", "action", msg.Action)
		return nil, nil
	}

	var result any
	for _, reg := range regs {
		out, err := reg.handler(ctx, msg)
		if err != nil {
			return nil, err
		}
		if out != nil {
			result = out
		}
	}
	return result, nil
}

// Emit dispatches a locally built message, as if the host had posted it.
func (d *Dispatcher) Emit(ctx context.Context, action string, payload any) (any, error) {
	data, err := EncodeMessage(action, payload)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, data)
}
