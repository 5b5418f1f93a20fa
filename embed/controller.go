package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/glimte/mmate-embed/bridge"
	"github.com/glimte/mmate-embed/config"
	"github.com/glimte/mmate-embed/contracts"
	"github.com/glimte/mmate-embed/messaging"
	"github.com/glimte/mmate-embed/serialization"
)

var (
	// ErrMissingEmbedType is returned by New when no content type is given
	ErrMissingEmbedType = errors.New("embed: embed type is required")
	// ErrMissingContext is returned by New without a configuration context
	ErrMissingContext = errors.New("embed: configuration context is required")
	// ErrMissingTransport is returned by New without a transport
	ErrMissingTransport = errors.New("embed: transport is required")
)

// Handle is the capability the host keeps to talk to a mounted embedding
type Handle interface {
	Trigger(ctx context.Context, eventName string, payload any) (*bridge.Call, error)
}

type pendingHandler struct {
	eventName string
	handler   messaging.EventHandler
}

// Controller drives the lifecycle of one embedding. It holds subscriptions and
// view configuration until the content reports readiness, then builds the
// bridge, flushes what it buffered and keeps the content's configuration in
// sync with the host's properties
type Controller struct {
	embedType  string
	transport  messaging.Transport
	embedCtx   *config.EmbedContext
	serializer serialization.MessageSerializer
	notifier   ErrorNotifier
	bridgeOpts []bridge.BridgeOption
	differ     *Differ
	logger     *slog.Logger

	mu            sync.Mutex
	state         State
	bridge        *bridge.EmbedBridge
	ready         bool
	pending       []pendingHandler
	viewConfig    ViewConfig
	lastPushed    ViewConfig
	pushed        bool
	pushGen       uint64
	errorCallback func(error)
	watching      bool
}

// New creates an unmounted controller for content of embedType
func New(embedType string, transport messaging.Transport, embedCtx *config.EmbedContext, opts ...Option) (*Controller, error) {
	if embedType == "" {
		return nil, ErrMissingEmbedType
	}
	if transport == nil {
		return nil, ErrMissingTransport
	}
	if embedCtx == nil {
		return nil, ErrMissingContext
	}

	options := &Options{
		Logger:     slog.Default(),
		Serializer: serialization.NewJSONSerializer(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Notifier == nil {
		options.Notifier = LogNotifier{Logger: options.Logger}
	}

	logger := options.Logger.With("embedType", embedType)

	return &Controller{
		embedType:     embedType,
		transport:     transport,
		embedCtx:      embedCtx,
		serializer:    options.Serializer,
		notifier:      options.Notifier,
		bridgeOpts:    options.BridgeOptions,
		differ:        NewDiffer(logger),
		logger:        logger,
		errorCallback: options.ErrorCallback,
	}, nil
}

// Mount enters AwaitingReadiness. Mounting an already mounted controller is a no-op
func (c *Controller) Mount() {
	c.mu.Lock()
	if c.state != StateUninitialized {
		c.mu.Unlock()
		return
	}
	c.state = StateAwaitingReadiness
	watch := !c.watching
	c.watching = true
	c.mu.Unlock()

	if notifier, ok := c.transport.(messaging.AttachNotifier); ok && watch {
		notifier.NotifyAttach(func(bool) {
			c.tryPush(context.Background())
		})
	}

	c.logger.Debug("embedding mounted")
}

// SetProps applies a new full set of host properties
func (c *Controller) SetProps(ctx context.Context, props Props) {
	diff := c.differ.Apply(props)

	c.mu.Lock()
	if diff.ErrorCallback != nil {
		c.errorCallback = diff.ErrorCallback
	}
	if diff.ConfigChanged {
		c.viewConfig = diff.Config
	}
	c.mu.Unlock()

	for _, sub := range diff.NewSubscriptions {
		c.subscribe(string(sub.Event), sub.Handler)
	}

	c.tryPush(ctx)
}

// On subscribes handler to an embed event, queueing it until the bridge exists
func (c *Controller) On(eventName string, handler messaging.EventHandler) error {
	if eventName == "" {
		return fmt.Errorf("embed: event name is required")
	}
	if handler == nil {
		return fmt.Errorf("embed: handler for %q is nil", eventName)
	}
	c.subscribe(eventName, handler)
	return nil
}

func (c *Controller) subscribe(eventName string, handler messaging.EventHandler) {
	c.mu.Lock()
	b := c.bridge
	if b == nil {
		c.pending = append(c.pending, pendingHandler{eventName: eventName, handler: handler})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := b.RegisterEmbedEvent(eventName, handler); err != nil {
		c.logger.Warn("failed to register embed event", "eventName", eventName, "error", err)
	}
}

// HandleRawMessage is the inbound entry point for serialized messages from the
// content. It implements messaging.RawMessageHandler
func (c *Controller) HandleRawMessage(ctx context.Context, data []byte) {
	msg, err := c.serializer.Deserialize(data)
	if err != nil {
		c.notify(err, contracts.ErrorKindEvent)
		return
	}

	if msg.Type == contracts.MessageTypeInitVercelShell {
		c.handleReadiness(ctx)
		return
	}

	c.mu.Lock()
	b := c.bridge
	c.mu.Unlock()

	if b == nil {
		c.logger.Debug("dropping message received before readiness", "type", msg.Type)
		return
	}
	b.HandleMessage(ctx, msg)
}

func (c *Controller) handleReadiness(ctx context.Context) {
	c.mu.Lock()
	if c.state == StateUninitialized {
		c.logger.Warn("readiness received before mount, mounting")
		c.mu.Unlock()
		c.Mount()
		c.mu.Lock()
	}

	if c.bridge != nil {
		// content restarted; resend the current configuration
		c.pushed = false
		c.mu.Unlock()
		c.logger.Info("content reported readiness again")
		c.tryPush(ctx)
		return
	}

	opts := []bridge.BridgeOption{
		bridge.WithSerializer(c.serializer),
		bridge.WithCredentials(c.embedCtx.Credentials()),
		bridge.WithLogger(c.logger),
		bridge.WithErrorHandler(c.notify),
		bridge.WithHandlerMiddleware(messaging.RecoverMiddleware(c.logger)),
	}
	b := bridge.NewEmbedBridge(c.transport, append(opts, c.bridgeOpts...)...)

	for _, p := range c.pending {
		if err := b.RegisterEmbedEvent(p.eventName, p.handler); err != nil {
			c.logger.Warn("failed to register queued embed event", "eventName", p.eventName, "error", err)
		}
	}
	flushed := len(c.pending)
	c.pending = nil
	c.bridge = b
	c.ready = true
	c.state = StateActive
	c.mu.Unlock()

	c.logger.Debug("content ready", "flushedHandlers", flushed)
	c.tryPush(ctx)
}

func (c *Controller) tryPush(ctx context.Context) {
	c.mu.Lock()
	b := c.bridge
	switch {
	case b == nil || !c.ready:
		c.mu.Unlock()
		c.logger.Debug("Waiting for Vercel shell to load...")
		return
	case !c.transport.Attached():
		c.mu.Unlock()
		c.logger.Debug("skipping push, transport not attached")
		return
	case len(c.viewConfig) == 0:
		c.mu.Unlock()
		c.logger.Debug("skipping push, no view configuration")
		return
	case c.pushed && reflect.DeepEqual(c.lastPushed, c.viewConfig):
		c.mu.Unlock()
		return
	}

	viewConfig := cloneConfig(c.viewConfig)
	c.lastPushed = viewConfig
	c.pushed = true
	c.pushGen++
	gen := c.pushGen
	c.mu.Unlock()

	err := c.push(ctx, b, viewConfig)
	if err == nil {
		return
	}

	if !errors.Is(err, bridge.ErrDeliveryFailed) && !errors.Is(err, messaging.ErrNotAttached) {
		c.notify(err, contracts.ErrorKindInit)
		return
	}

	// forget the push so the next attach or props change retries it
	c.mu.Lock()
	if c.pushGen == gen {
		c.pushed = false
		c.lastPushed = nil
	}
	c.mu.Unlock()
	c.logger.Warn("failed to push view configuration, waiting for the transport", "error", err)
}

func (c *Controller) push(ctx context.Context, b *bridge.EmbedBridge, viewConfig ViewConfig) error {
	initMsg, err := contracts.NewInitMessage(c.embedCtx.EmbedConfig())
	if err != nil {
		return err
	}
	return b.Send(ctx, initMsg, contracts.NewEmbedMessage(c.embedType, viewConfig))
}

// Trigger sends a host event to the content. Before readiness it returns an
// already empty call
func (c *Controller) Trigger(ctx context.Context, eventName string, payload any) (*bridge.Call, error) {
	c.mu.Lock()
	b := c.bridge
	c.mu.Unlock()

	if b == nil {
		c.logger.Warn("webview is not ready for host event", "eventName", eventName)
		return bridge.EmptyCall(eventName), nil
	}

	call, err := b.Trigger(ctx, eventName, payload)
	if err != nil {
		c.notify(err, contracts.ErrorKindTrigger)
		return nil, err
	}
	return call, nil
}

// Handle returns the capability used to trigger host events
func (c *Controller) Handle() Handle {
	return c
}

// Unmount destroys the bridge and returns to Uninitialized. Pending calls are
// abandoned. Properties must be set again after a later Mount
func (c *Controller) Unmount() {
	c.mu.Lock()
	b := c.bridge
	c.bridge = nil
	c.ready = false
	c.pending = nil
	c.pushed = false
	c.lastPushed = nil
	c.viewConfig = nil
	c.state = StateUninitialized
	c.mu.Unlock()

	c.differ.Reset()

	if b != nil {
		b.Destroy()
	}
	c.logger.Debug("embedding unmounted")
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Bridge returns the live bridge, or nil before readiness
func (c *Controller) Bridge() *bridge.EmbedBridge {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bridge
}

// PendingHandlers returns the number of subscriptions waiting for readiness
func (c *Controller) PendingHandlers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// EmbedType returns the content type this controller embeds
func (c *Controller) EmbedType() string {
	return c.embedType
}

func (c *Controller) notify(err error, kind contracts.ErrorKind) {
	c.mu.Lock()
	cb := c.errorCallback
	c.mu.Unlock()

	c.notifier.Notify(err, cb, kind)
}
