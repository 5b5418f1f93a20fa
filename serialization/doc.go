// Package serialization converts protocol messages to and from flat JSON records.
//
// Decoding is lenient about message types: a record whose "type" is outside the
// protocol enumeration still decodes, because the embedded content evolves
// independently and the receiver is the one that decides to drop it. Records that
// are not JSON objects, or that have no "type" at all, are reported as malformed.
package serialization
