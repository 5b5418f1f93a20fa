package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// MiddlewareFunc wraps every handler invocation made by the registry
type MiddlewareFunc func(ctx context.Context, eventName string, payload json.RawMessage, respond Responder, next EventHandler)

// EventRegistry maps event names to ordered handler lists. Dispatch is
// multicast: every handler registered for a name runs, in registration order
type EventRegistry struct {
	handlers   map[string][]EventHandler
	mu         sync.RWMutex
	logger     *slog.Logger
	middleware []MiddlewareFunc
}

// RegistryOption configures the EventRegistry
type RegistryOption func(*EventRegistry)

// WithRegistryLogger sets the logger
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *EventRegistry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMiddleware adds middleware to the registry
func WithMiddleware(middleware ...MiddlewareFunc) RegistryOption {
	return func(r *EventRegistry) {
		r.middleware = append(r.middleware, middleware...)
	}
}

// NewEventRegistry creates an empty registry
func NewEventRegistry(options ...RegistryOption) *EventRegistry {
	r := &EventRegistry{
		handlers: make(map[string][]EventHandler),
		logger:   slog.Default(),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Register appends handler to the list for eventName
func (r *EventRegistry) Register(eventName string, handler EventHandler) error {
	if eventName == "" {
		return fmt.Errorf("eventName cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	r.handlers[eventName] = append(r.handlers[eventName], handler)
	count := len(r.handlers[eventName])
	r.mu.Unlock()

	r.logger.Debug("registered embed event handler",
		"eventName", eventName,
		"handlerCount", count,
	)

	return nil
}

// Dispatch invokes every handler for eventName with payload and returns how
// many ran. Only the first handler receives respond. Handlers run on the
// calling goroutine without the registry lock held
func (r *EventRegistry) Dispatch(ctx context.Context, eventName string, payload json.RawMessage, respond Responder) int {
	handlers := r.Handlers(eventName)
	if len(handlers) == 0 {
		return 0
	}

	for i, handler := range handlers {
		var rsp Responder
		if i == 0 {
			rsp = respond
		}
		r.buildMiddlewareChain(eventName, handler).HandleEvent(ctx, payload, rsp)
	}

	return len(handlers)
}

// Handlers returns a copy of the handlers registered for eventName
func (r *EventRegistry) Handlers(eventName string) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handlers, exists := r.handlers[eventName]
	if !exists {
		return nil
	}

	result := make([]EventHandler, len(handlers))
	copy(result, handlers)
	return result
}

// EventNames returns every event name with at least one handler
func (r *EventRegistry) EventNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Len returns the number of event names with handlers
func (r *EventRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Clear removes every registration
func (r *EventRegistry) Clear() {
	r.mu.Lock()
	r.handlers = make(map[string][]EventHandler)
	r.mu.Unlock()
}

func (r *EventRegistry) buildMiddlewareChain(eventName string, handler EventHandler) EventHandler {
	if len(r.middleware) == 0 {
		return handler
	}

	// Build chain in reverse order
	result := handler
	for i := len(r.middleware) - 1; i >= 0; i-- {
		middleware := r.middleware[i]
		next := result
		result = EventHandlerFunc(func(ctx context.Context, payload json.RawMessage, respond Responder) {
			middleware(ctx, eventName, payload, respond, next)
		})
	}

	return result
}
