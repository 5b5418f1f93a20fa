package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingType is returned when a message has no "type" field
	ErrMissingType = errors.New("message: missing type")
	// ErrMalformedMessage is returned when an inbound payload cannot be decoded
	ErrMalformedMessage = errors.New("message: malformed payload")
)

// MessageError describes a failure to build, encode or decode a message
type MessageError struct {
	Op   string
	Type MessageType
	Err  error
}

func (e *MessageError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("message %s: %s: %v", e.Type, e.Op, e.Err)
	}
	return fmt.Sprintf("message: %s: %v", e.Op, e.Err)
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// ErrorKind labels an error reported to the host application
type ErrorKind string

const (
	ErrorKindEvent   ErrorKind = "EVENT_ERROR"
	ErrorKindAuth    ErrorKind = "AUTH_ERROR"
	ErrorKindInit    ErrorKind = "INIT_ERROR"
	ErrorKindTrigger ErrorKind = "TRIGGER_ERROR"
)
