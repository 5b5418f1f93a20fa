// Package contracts provides the wire types shared by the host and the embedded content.
//
// This package defines the messages that cross the embedding boundary:
//   - MessageType: the fixed enumeration carried in the mandatory "type" field
//   - Message: a flat record with the optional type-specific fields
//   - EmbedEvent / HostEvent: well-known event names for both directions
//   - ErrorKind: labels attached to errors reported to the host
//
// Messages are immutable once built and always serialize to a flat JSON object,
// so both sides can evolve independently as long as they agree on the type names.
package contracts
