package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Call is the pending result of a host-initiated Trigger. It completes at most
// once, either with the payload of the matching HOST_EVENT_REPLY or, when no
// transport was attached, immediately with an empty result. A call still
// pending when the bridge is destroyed never completes
type Call struct {
	EventName string
	EventID   string

	done    chan struct{}
	once    sync.Once
	payload json.RawMessage
	empty   bool
}

func newCall(eventName, eventID string) *Call {
	return &Call{
		EventName: eventName,
		EventID:   eventID,
		done:      make(chan struct{}),
	}
}

// EmptyCall returns a call that is already complete with an empty result,
// the same value Trigger returns when no transport is attached
func EmptyCall(eventName string) *Call {
	return newEmptyCall(eventName)
}

func newEmptyCall(eventName string) *Call {
	c := newCall(eventName, "")
	c.empty = true
	close(c.done)
	return c
}

func (c *Call) resolve(payload json.RawMessage) bool {
	resolved := false
	c.once.Do(func() {
		c.payload = payload
		close(c.done)
		resolved = true
	})
	return resolved
}

// Done is closed when the call completes
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Empty reports whether the call completed without ever being sent
func (c *Call) Empty() bool {
	select {
	case <-c.done:
		return c.empty
	default:
		return false
	}
}

// Result returns the reply payload without blocking. ok is false while the
// call is still pending
func (c *Call) Result() (payload json.RawMessage, ok bool) {
	select {
	case <-c.done:
		return c.payload, true
	default:
		return nil, false
	}
}

// Wait blocks until the call completes or ctx is done. The bridge applies no
// timeout of its own
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-c.done:
		return c.payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("host event %s: %w", c.EventName, ctx.Err())
	}
}

// Decode waits for the call and unmarshals the reply into v. An empty reply
// leaves v untouched
func (c *Call) Decode(ctx context.Context, v any) error {
	payload, err := c.Wait(ctx)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode reply for %s: %w", c.EventName, err)
	}
	return nil
}
