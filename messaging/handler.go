package messaging

import (
	"context"
	"encoding/json"
)

// Responder answers the sender of an inbound event with a correlated reply
type Responder func(payload any) error

// EventHandler handles an event emitted by the embedded content
//
// respond is nil unless the content asked for a reply and this handler is the
// first one registered for the event name
type EventHandler interface {
	HandleEvent(ctx context.Context, payload json.RawMessage, respond Responder)
}

// EventHandlerFunc is a function adapter for EventHandler
type EventHandlerFunc func(ctx context.Context, payload json.RawMessage, respond Responder)

// HandleEvent implements EventHandler
func (f EventHandlerFunc) HandleEvent(ctx context.Context, payload json.RawMessage, respond Responder) {
	f(ctx, payload, respond)
}

// PayloadHandler adapts a callback that only cares about the payload
func PayloadHandler(fn func(payload json.RawMessage)) EventHandler {
	return EventHandlerFunc(func(_ context.Context, payload json.RawMessage, _ Responder) {
		fn(payload)
	})
}
