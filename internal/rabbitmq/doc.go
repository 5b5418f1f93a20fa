// Package rabbitmq keeps a single AMQP connection alive for the broker
// transport.
//
// ConnectionManager dials the broker, watches for connection loss and
// reconnects with exponential backoff, notifying state listeners on every
// transition. Listeners use those notifications to reopen channels and to
// report the transport as attached or detached.
package rabbitmq
