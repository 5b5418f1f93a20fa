// Package messaging provides the transport contract and the event handler
// registry shared by the bridge and the lifecycle controller.
//
// This package defines:
//   - Transport: one-way delivery of serialized messages into the embedded content
//   - AttachNotifier: optional attach-state callbacks for transports
//   - RawMessageHandler: the inbound entry point transports feed
//   - EventRegistry: ordered, multicast handler lists keyed by event name
//
// Example usage:
//
//	registry := messaging.NewEventRegistry(
//		messaging.WithMiddleware(messaging.RecoverMiddleware(logger)),
//	)
//	_ = registry.Register("load", messaging.PayloadHandler(func(p json.RawMessage) {
//		log.Printf("content loaded: %s", p)
//	}))
//	registry.Dispatch(ctx, "load", payload, nil)
package messaging
