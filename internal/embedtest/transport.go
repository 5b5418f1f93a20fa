// Package embedtest provides in-memory collaborators for tests of the bridge,
// the lifecycle controller and the transports built on them
package embedtest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/glimte/mmate-embed/contracts"
)

// Transport records every delivered message and lets tests flip the attached state
type Transport struct {
	mu         sync.Mutex
	attached   bool
	sent       [][]byte
	listeners  []func(bool)
	deliverErr error
}

// NewTransport returns a transport in the given attached state
func NewTransport(attached bool) *Transport {
	return &Transport{attached: attached}
}

// Deliver implements messaging.Transport
func (t *Transport) Deliver(_ context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.deliverErr != nil {
		return t.deliverErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	t.sent = append(t.sent, cp)
	return nil
}

// Attached implements messaging.Transport
func (t *Transport) Attached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attached
}

// NotifyAttach implements messaging.AttachNotifier
func (t *Transport) NotifyAttach(fn func(bool)) {
	t.mu.Lock()
	t.listeners = append(t.listeners, fn)
	t.mu.Unlock()
}

// SetAttached changes the attached state and notifies listeners when it changed
func (t *Transport) SetAttached(attached bool) {
	t.mu.Lock()
	changed := t.attached != attached
	t.attached = attached
	listeners := append([]func(bool){}, t.listeners...)
	t.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range listeners {
		fn(attached)
	}
}

// FailDeliveries makes every following Deliver return err; nil restores delivery
func (t *Transport) FailDeliveries(err error) {
	t.mu.Lock()
	t.deliverErr = err
	t.mu.Unlock()
}

// Sent returns a copy of the raw delivered payloads
func (t *Transport) Sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.sent))
	copy(out, t.sent)
	return out
}

// Count returns the number of delivered messages
func (t *Transport) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

// Reset forgets delivered messages
func (t *Transport) Reset() {
	t.mu.Lock()
	t.sent = nil
	t.mu.Unlock()
}

// Messages decodes every delivered payload
func (t *Transport) Messages(tb testing.TB) []contracts.Message {
	tb.Helper()
	raw := t.Sent()
	out := make([]contracts.Message, 0, len(raw))
	for _, data := range raw {
		var msg contracts.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			tb.Fatalf("delivered payload is not a message: %v (%s)", err, data)
		}
		out = append(out, msg)
	}
	return out
}

// Types returns the type of every delivered message, in order
func (t *Transport) Types(tb testing.TB) []contracts.MessageType {
	tb.Helper()
	msgs := t.Messages(tb)
	out := make([]contracts.MessageType, len(msgs))
	for i, m := range msgs {
		out[i] = m.Type
	}
	return out
}

// Last returns the most recently delivered message
func (t *Transport) Last(tb testing.TB) contracts.Message {
	tb.Helper()
	msgs := t.Messages(tb)
	if len(msgs) == 0 {
		tb.Fatalf("no message delivered")
	}
	return msgs[len(msgs)-1]
}
