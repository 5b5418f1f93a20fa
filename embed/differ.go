package embed

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/glimte/mmate-embed/contracts"
	"github.com/glimte/mmate-embed/messaging"
)

// Props are the host-supplied properties of one embedding, keyed by name.
// Event subscriptions are the names listed in contracts.EventProps; everything
// else except the reserved keys becomes view configuration
type Props map[string]any

// ViewConfig is the configuration sent to the content in the EMBED message
type ViewConfig map[string]any

const (
	propEmbedType  = "embedType"
	propOnErrorSDK = "onErrorSDK"
)

// Subscription is a newly seen event property
type Subscription struct {
	Prop    string
	Event   contracts.EmbedEvent
	Handler messaging.EventHandler
}

// Diff is the result of applying a new set of props
type Diff struct {
	Config           ViewConfig
	ConfigChanged    bool
	NewSubscriptions []Subscription
	ErrorCallback    func(error)
}

// Differ partitions props into configuration and subscriptions and remembers
// what it has already seen, so unchanged configuration is not re-sent and an
// event property subscribes only once
//
// The handler registered for an event property looks up the property's current
// value at dispatch time, so replacing a callback does not add a second
// registration and removing it silences the subscription
type Differ struct {
	mu         sync.RWMutex
	last       ViewConfig
	seen       bool
	handlers   map[string]messaging.EventHandler
	subscribed map[string]struct{}
	logger     *slog.Logger
}

// NewDiffer creates an empty differ
func NewDiffer(logger *slog.Logger) *Differ {
	if logger == nil {
		logger = slog.Default()
	}
	return &Differ{
		handlers:   make(map[string]messaging.EventHandler),
		subscribed: make(map[string]struct{}),
		logger:     logger,
	}
}

// Apply partitions props and reports what changed since the previous call
func (d *Differ) Apply(props Props) Diff {
	config := ViewConfig{}
	current := make(map[string]messaging.EventHandler)
	var errorCallback func(error)

	for key, value := range props {
		switch {
		case key == propEmbedType:
			continue
		case key == propOnErrorSDK:
			if cb, ok := value.(func(error)); ok {
				errorCallback = cb
			}
			continue
		}

		if _, ok := contracts.LookupEventProp(key); ok {
			handler, ok := AsEventHandler(value)
			if !ok {
				d.logger.Warn("ignoring event property with unsupported handler type", "prop", key)
				continue
			}
			current[key] = handler
			continue
		}

		if isFunc(value) {
			if looksLikeEventProp(key) {
				d.logger.Warn("ignoring unknown event property", "prop", key)
			} else {
				d.logger.Debug("dropping function property from view config", "prop", key)
			}
			continue
		}

		config[key] = value
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers = current

	var subs []Subscription
	for _, prop := range sortedKeys(current) {
		if _, done := d.subscribed[prop]; done {
			continue
		}
		d.subscribed[prop] = struct{}{}
		event, _ := contracts.LookupEventProp(prop)
		subs = append(subs, Subscription{
			Prop:    prop,
			Event:   event,
			Handler: d.trampoline(prop),
		})
	}

	changed := !d.seen || !reflect.DeepEqual(d.last, config)
	d.last = config
	d.seen = true

	return Diff{
		Config:           cloneConfig(config),
		ConfigChanged:    changed,
		NewSubscriptions: subs,
		ErrorCallback:    errorCallback,
	}
}

func (d *Differ) trampoline(prop string) messaging.EventHandler {
	return messaging.EventHandlerFunc(func(ctx context.Context, payload json.RawMessage, respond messaging.Responder) {
		d.mu.RLock()
		handler := d.handlers[prop]
		d.mu.RUnlock()

		if handler == nil {
			return
		}
		handler.HandleEvent(ctx, payload, respond)
	})
}

// AsEventHandler converts the callback shapes accepted in Props
func AsEventHandler(v any) (messaging.EventHandler, bool) {
	switch h := v.(type) {
	case messaging.EventHandler:
		return h, true
	case func(context.Context, json.RawMessage, messaging.Responder):
		return messaging.EventHandlerFunc(h), true
	case func(json.RawMessage, messaging.Responder):
		return messaging.EventHandlerFunc(func(_ context.Context, p json.RawMessage, r messaging.Responder) { h(p, r) }), true
	case func(json.RawMessage):
		return messaging.PayloadHandler(h), true
	case func():
		return messaging.PayloadHandler(func(json.RawMessage) { h() }), true
	}
	return nil, false
}

func looksLikeEventProp(key string) bool {
	if !strings.HasPrefix(key, "on") || len(key) < 3 {
		return false
	}
	return unicode.IsUpper(rune(key[2]))
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

func sortedKeys(m map[string]messaging.EventHandler) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneConfig(in ViewConfig) ViewConfig {
	out := make(ViewConfig, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Reset forgets the previous configuration and subscriptions, so the next
// Apply reports everything as new
func (d *Differ) Reset() {
	d.mu.Lock()
	d.last = nil
	d.seen = false
	d.handlers = make(map[string]messaging.EventHandler)
	d.subscribed = make(map[string]struct{})
	d.mu.Unlock()
}
