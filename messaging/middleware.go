package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// EventFilter decides whether an embed event reaches its handlers
type EventFilter interface {
	ShouldProcess(ctx context.Context, eventName string, payload json.RawMessage) bool
}

// EventFilterFunc is a function adapter for EventFilter
type EventFilterFunc func(ctx context.Context, eventName string, payload json.RawMessage) bool

// ShouldProcess implements EventFilter
func (f EventFilterFunc) ShouldProcess(ctx context.Context, eventName string, payload json.RawMessage) bool {
	return f(ctx, eventName, payload)
}

// AllOf passes an event only when every filter does
func AllOf(filters ...EventFilter) EventFilter {
	return EventFilterFunc(func(ctx context.Context, eventName string, payload json.RawMessage) bool {
		for _, f := range filters {
			if !f.ShouldProcess(ctx, eventName, payload) {
				return false
			}
		}
		return true
	})
}

// AnyOf passes an event when at least one filter does
func AnyOf(filters ...EventFilter) EventFilter {
	return EventFilterFunc(func(ctx context.Context, eventName string, payload json.RawMessage) bool {
		for _, f := range filters {
			if f.ShouldProcess(ctx, eventName, payload) {
				return true
			}
		}
		return false
	})
}

// OnlyEvents passes only the listed events
func OnlyEvents(names ...string) EventFilter {
	allowed := make(map[string]struct{}, len(names))
	for _, n := range names {
		allowed[n] = struct{}{}
	}
	return EventFilterFunc(func(_ context.Context, eventName string, _ json.RawMessage) bool {
		_, ok := allowed[eventName]
		return ok
	})
}

// FilterMiddleware drops events the filter rejects. A nil logger drops them
// silently
func FilterMiddleware(filter EventFilter, logger *slog.Logger) MiddlewareFunc {
	return func(ctx context.Context, eventName string, payload json.RawMessage, respond Responder, next EventHandler) {
		if !filter.ShouldProcess(ctx, eventName, payload) {
			if logger != nil {
				logger.Debug("embed event filtered", "eventName", eventName)
			}
			return
		}
		next.HandleEvent(ctx, payload, respond)
	}
}

// LoggingMiddleware logs every handler invocation and its duration
func LoggingMiddleware(logger *slog.Logger) MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, eventName string, payload json.RawMessage, respond Responder, next EventHandler) {
		start := time.Now()

		logger.Debug("handling embed event",
			"eventName", eventName,
			"payloadSize", len(payload),
			"hasResponder", respond != nil,
		)

		next.HandleEvent(ctx, payload, respond)

		logger.Debug("embed event handled",
			"eventName", eventName,
			"duration", time.Since(start),
		)
	}
}

// RecoverMiddleware keeps a panicking handler from stopping the remaining
// handlers for the same event
func RecoverMiddleware(logger *slog.Logger) MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, eventName string, payload json.RawMessage, respond Responder, next EventHandler) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("embed event handler panicked",
					"eventName", eventName,
					"panic", rec,
				)
			}
		}()
		next.HandleEvent(ctx, payload, respond)
	}
}
