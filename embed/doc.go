// Package embed drives the lifecycle of one embedded content instance.
//
// A Controller starts Uninitialized, moves to AwaitingReadiness on Mount and
// to Active when the content sends INIT_VERCEL_SHELL. Until then, event
// subscriptions are queued and view configuration is held back. On readiness
// the controller builds the bridge, replays the queue in order and pushes INIT
// followed by EMBED once the transport is attached and there is configuration
// to send.
package embed
