package messaging

import (
	"context"
	"errors"
)

// ErrNotAttached is returned by transports that have nowhere to deliver to yet
var ErrNotAttached = errors.New("transport: not attached")

// Transport pushes serialized messages into the embedded content's execution
// context. Delivery is fire-and-forget: a nil error only means the message was
// handed over, not that the content received it
type Transport interface {
	// Deliver sends one serialized message
	Deliver(ctx context.Context, data []byte) error

	// Attached reports whether the transport currently has a live target
	Attached() bool
}

// AttachNotifier is implemented by transports whose attached state can change
// after construction. Callbacks run synchronously on the goroutine that changed
// the state
type AttachNotifier interface {
	NotifyAttach(fn func(attached bool))
}

// RawMessageHandler receives serialized messages coming back from the embedded content
type RawMessageHandler interface {
	HandleRawMessage(ctx context.Context, data []byte)
}

// RawMessageHandlerFunc is a function adapter for RawMessageHandler
type RawMessageHandlerFunc func(ctx context.Context, data []byte)

// HandleRawMessage implements RawMessageHandler
func (f RawMessageHandlerFunc) HandleRawMessage(ctx context.Context, data []byte) {
	f(ctx, data)
}
