package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glimte/mmate-embed/auth"
	"github.com/glimte/mmate-embed/contracts"
	"github.com/glimte/mmate-embed/messaging"
	"github.com/glimte/mmate-embed/serialization"
	"github.com/google/uuid"
)

// ErrDestroyed is returned by operations on a bridge after Destroy
var ErrDestroyed = errors.New("bridge: destroyed")

// ErrDeliveryFailed wraps transport failures returned by Send
var ErrDeliveryFailed = errors.New("bridge: delivery failed")

// ErrorHandler receives failures the bridge cannot surface through a return
// value, such as a failed credential lookup
type ErrorHandler func(err error, kind contracts.ErrorKind)

// EmbedBridge correlates messages exchanged with the embedded content. It owns
// the event registry and the pending-reply table; nothing else mutates them
type EmbedBridge struct {
	transport      messaging.Transport
	events         *messaging.EventRegistry
	pendingReplies map[string]*Call
	mu             sync.Mutex

	serializer  serialization.MessageSerializer
	credentials auth.CredentialSource
	onError     ErrorHandler
	newID       func() string
	authTimeout time.Duration
	logger      *slog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	destroyed bool
}

// BridgeOption configures the bridge
type BridgeOption func(*BridgeConfig)

// BridgeConfig holds configuration for the bridge
type BridgeConfig struct {
	Serializer   serialization.MessageSerializer
	Credentials  auth.CredentialSource
	ErrorHandler ErrorHandler
	IDGenerator  func() string
	AuthTimeout  time.Duration
	Logger       *slog.Logger
	Middleware   []messaging.MiddlewareFunc
}

// WithSerializer sets the wire serializer
func WithSerializer(s serialization.MessageSerializer) BridgeOption {
	return func(c *BridgeConfig) {
		c.Serializer = s
	}
}

// WithCredentials sets the source used to answer REQUEST_AUTH_TOKEN
func WithCredentials(src auth.CredentialSource) BridgeOption {
	return func(c *BridgeConfig) {
		c.Credentials = src
	}
}

// WithErrorHandler sets the callback for asynchronous failures
func WithErrorHandler(h ErrorHandler) BridgeOption {
	return func(c *BridgeConfig) {
		c.ErrorHandler = h
	}
}

// WithIDGenerator overrides the EventId generator
func WithIDGenerator(gen func() string) BridgeOption {
	return func(c *BridgeConfig) {
		c.IDGenerator = gen
	}
}

// WithAuthTimeout bounds each credential lookup
func WithAuthTimeout(timeout time.Duration) BridgeOption {
	return func(c *BridgeConfig) {
		c.AuthTimeout = timeout
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) BridgeOption {
	return func(c *BridgeConfig) {
		c.Logger = logger
	}
}

// WithHandlerMiddleware wraps every embed event handler invocation
func WithHandlerMiddleware(middleware ...messaging.MiddlewareFunc) BridgeOption {
	return func(c *BridgeConfig) {
		c.Middleware = append(c.Middleware, middleware...)
	}
}

// NewEmbedBridge creates a bridge bound to transport. A nil transport is
// allowed; sends become no-ops and triggers complete empty
func NewEmbedBridge(transport messaging.Transport, opts ...BridgeOption) *EmbedBridge {
	config := &BridgeConfig{
		Serializer:  serialization.NewJSONSerializer(),
		IDGenerator: uuid.NewString,
		AuthTimeout: 30 * time.Second,
		Logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(config)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &EmbedBridge{
		transport: transport,
		events: messaging.NewEventRegistry(
			messaging.WithRegistryLogger(config.Logger),
			messaging.WithMiddleware(config.Middleware...),
		),
		pendingReplies: make(map[string]*Call),
		serializer:     config.Serializer,
		credentials:    config.Credentials,
		onError:        config.ErrorHandler,
		newID:          config.IDGenerator,
		authTimeout:    config.AuthTimeout,
		logger:         config.Logger,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// SendMessage serializes msg and pushes it through the transport. Failures
// are logged; there is no delivery guarantee
func (b *EmbedBridge) SendMessage(ctx context.Context, msg contracts.Message) {
	if err := b.send(ctx, msg); err != nil {
		b.logger.Warn("failed to send message", "type", msg.Type, "error", err)
	}
}

// Send serializes every message before delivering any, then delivers them in
// order and stops at the first failure
func (b *EmbedBridge) Send(ctx context.Context, msgs ...contracts.Message) error {
	transport := b.currentTransport()
	if transport == nil {
		return messaging.ErrNotAttached
	}

	encoded := make([][]byte, len(msgs))
	for i, msg := range msgs {
		data, err := b.serializer.Serialize(msg)
		if err != nil {
			return err
		}
		encoded[i] = data
	}
	for i, data := range encoded {
		if err := transport.Deliver(ctx, data); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDeliveryFailed, msgs[i].Type, err)
		}
	}
	return nil
}

func (b *EmbedBridge) send(ctx context.Context, msg contracts.Message) error {
	transport := b.currentTransport()
	if transport == nil {
		return messaging.ErrNotAttached
	}

	data, err := b.serializer.Serialize(msg)
	if err != nil {
		return err
	}
	if err := transport.Deliver(ctx, data); err != nil {
		return fmt.Errorf("deliver %s: %w", msg.Type, err)
	}
	return nil
}

// RegisterEmbedEvent appends handler to the handlers for eventName. Every
// registration is kept and invoked; later ones never replace earlier ones
func (b *EmbedBridge) RegisterEmbedEvent(eventName string, handler messaging.EventHandler) error {
	b.mu.Lock()
	destroyed := b.destroyed
	b.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	return b.events.Register(eventName, handler)
}

// Trigger starts a host-to-content call and returns its pending result
//
// Without an attached transport nothing is sent and the returned call is
// already complete with an empty result; check Call.Empty to tell it apart
// from a real reply
func (b *EmbedBridge) Trigger(ctx context.Context, eventName string, payload any) (*Call, error) {
	if b.currentTransport() == nil {
		b.logger.Warn("webview is not ready for host event", "eventName", eventName)
		return newEmptyCall(eventName), nil
	}

	eventID := b.newID()
	msg, err := contracts.NewHostEvent(eventName, eventID, payload)
	if err != nil {
		return nil, err
	}

	call := newCall(eventName, eventID)

	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return newEmptyCall(eventName), nil
	}
	b.pendingReplies[eventID] = call
	b.mu.Unlock()

	if err := b.send(ctx, msg); err != nil {
		b.mu.Lock()
		delete(b.pendingReplies, eventID)
		b.mu.Unlock()
		return nil, err
	}

	b.logger.Debug("host event sent", "eventName", eventName, "eventId", eventID)
	return call, nil
}

// HandleMessage is the single inbound dispatch point. Nothing the content
// sends can make it fail; unexpected input is logged and dropped
func (b *EmbedBridge) HandleMessage(ctx context.Context, msg contracts.Message) {
	switch msg.Type {
	case contracts.MessageTypeInitVercelShell:
		// Readiness is handled by the lifecycle controller
	case contracts.MessageTypeRequestAuthToken:
		go b.respondWithToken(msg.EventID)
	case contracts.MessageTypeEmbedEvent:
		b.handleEmbedEvent(ctx, msg)
	case contracts.MessageTypeHostEventReply:
		b.handleHostEventReply(msg)
	default:
		b.logger.Info("Type of the message is unknown from the Shell app", "type", msg.Type)
	}
}

func (b *EmbedBridge) handleEmbedEvent(ctx context.Context, msg contracts.Message) {
	var respond messaging.Responder
	if msg.ExpectsResponse() {
		eventID := msg.EventID
		respond = func(payload any) error {
			reply, err := contracts.NewEmbedEventReply(eventID, payload)
			if err != nil {
				return err
			}
			return b.send(b.ctx, reply)
		}
	}

	if n := b.events.Dispatch(ctx, msg.EventName, msg.Payload, respond); n == 0 {
		b.logger.Debug("no handlers for embed event", "eventName", msg.EventName)
	}
}

func (b *EmbedBridge) handleHostEventReply(msg contracts.Message) {
	b.mu.Lock()
	call, ok := b.pendingReplies[msg.EventID]
	if ok {
		delete(b.pendingReplies, msg.EventID)
	}
	b.mu.Unlock()

	if !ok {
		// Already resolved, or sent by a previous bridge
		b.logger.Debug("dropping reply for unknown event id", "eventId", msg.EventID)
		return
	}
	call.resolve(msg.Payload)
}

func (b *EmbedBridge) respondWithToken(eventID string) {
	if b.credentials == nil {
		b.reportError(fmt.Errorf("token requested but no credential source is configured: %w", auth.ErrNoToken), contracts.ErrorKindAuth)
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, b.authTimeout)
	defer cancel()

	token, err := b.credentials.Token(ctx)
	if err != nil {
		if b.ctx.Err() != nil {
			return
		}
		b.reportError(fmt.Errorf("get auth token: %w", err), contracts.ErrorKindAuth)
		return
	}
	if b.ctx.Err() != nil {
		return
	}

	if err := b.send(ctx, contracts.NewAuthTokenResponse(token, eventID)); err != nil {
		b.logger.Warn("failed to send auth token", "error", err)
	}
}

func (b *EmbedBridge) reportError(err error, kind contracts.ErrorKind) {
	b.logger.Error("bridge error", "kind", kind, "error", err)
	if b.onError != nil {
		b.onError(err, kind)
	}
}

// Destroy clears the event registry and the pending-reply table and releases
// the transport. Pending calls are abandoned: they never complete
func (b *EmbedBridge) Destroy() {
	b.mu.Lock()
	b.destroyed = true
	b.transport = nil
	abandoned := len(b.pendingReplies)
	b.pendingReplies = make(map[string]*Call)
	b.mu.Unlock()

	b.events.Clear()
	b.cancel()

	b.logger.Debug("bridge destroyed", "abandonedCalls", abandoned)
}

// PendingCount returns the number of calls awaiting a reply
func (b *EmbedBridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pendingReplies)
}

// HandlerCount returns the number of handlers registered for eventName
func (b *EmbedBridge) HandlerCount(eventName string) int {
	return len(b.events.Handlers(eventName))
}

// Destroyed reports whether Destroy has been called
func (b *EmbedBridge) Destroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

func (b *EmbedBridge) currentTransport() messaging.Transport {
	b.mu.Lock()
	t := b.transport
	b.mu.Unlock()

	if t == nil || !t.Attached() {
		return nil
	}
	return t
}

// DecodePayload unmarshals an event payload; an empty payload leaves v untouched
func DecodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	return json.Unmarshal(payload, v)
}
