package embed

import (
	"log/slog"

	"github.com/glimte/mmate-embed/bridge"
	"github.com/glimte/mmate-embed/serialization"
)

// Option configures a Controller
type Option func(*Options)

// Options holds configuration for a Controller
type Options struct {
	Logger        *slog.Logger
	Notifier      ErrorNotifier
	ErrorCallback func(error)
	Serializer    serialization.MessageSerializer
	BridgeOptions []bridge.BridgeOption
}

// WithLogger sets the logger used by the controller and its bridge
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithErrorNotifier sets where errors are reported
func WithErrorNotifier(n ErrorNotifier) Option {
	return func(o *Options) {
		o.Notifier = n
	}
}

// WithErrorCallback sets the host error callback handed to the notifier. An
// onErrorSDK property replaces it
func WithErrorCallback(cb func(error)) Option {
	return func(o *Options) {
		o.ErrorCallback = cb
	}
}

// WithSerializer sets the serializer used for inbound and outbound messages
func WithSerializer(s serialization.MessageSerializer) Option {
	return func(o *Options) {
		o.Serializer = s
	}
}

// WithBridgeOptions passes extra options to the bridge built on readiness
func WithBridgeOptions(opts ...bridge.BridgeOption) Option {
	return func(o *Options) {
		o.BridgeOptions = append(o.BridgeOptions, opts...)
	}
}
