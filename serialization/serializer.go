package serialization

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/glimte/mmate-embed/contracts"
)

// MessageSerializer converts messages to and from their flat wire form
type MessageSerializer interface {
	// Serialize serializes a message to bytes
	Serialize(msg contracts.Message) ([]byte, error)

	// Deserialize deserializes bytes to a message
	Deserialize(data []byte) (contracts.Message, error)
}

// JSONSerializer implements MessageSerializer using JSON
type JSONSerializer struct {
	validate      bool
	disallowExtra bool
}

// JSONSerializerOption configures the JSON serializer
type JSONSerializerOption func(*JSONSerializer)

// WithValidation runs contracts.Message.Validate on both directions
func WithValidation(enabled bool) JSONSerializerOption {
	return func(s *JSONSerializer) {
		s.validate = enabled
	}
}

// WithDisallowUnknownFields rejects inbound records with fields outside the protocol
func WithDisallowUnknownFields(disallow bool) JSONSerializerOption {
	return func(s *JSONSerializer) {
		s.disallowExtra = disallow
	}
}

// NewJSONSerializer creates a new JSON serializer
func NewJSONSerializer(opts ...JSONSerializerOption) *JSONSerializer {
	s := &JSONSerializer{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Serialize serializes a message to bytes
func (s *JSONSerializer) Serialize(msg contracts.Message) ([]byte, error) {
	if msg.Type == "" {
		return nil, contracts.ErrMissingType
	}
	if s.validate {
		if err := msg.Validate(); err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, &contracts.MessageError{Op: "serialize", Type: msg.Type, Err: err}
	}
	return data, nil
}

// Deserialize deserializes bytes to a message. Types outside the protocol
// enumeration are returned as-is so the receiver can log and drop them
func (s *JSONSerializer) Deserialize(data []byte) (contracts.Message, error) {
	var msg contracts.Message

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return msg, &contracts.MessageError{Op: "deserialize", Err: fmt.Errorf("%w: empty input", contracts.ErrMalformedMessage)}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if s.disallowExtra {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&msg); err != nil {
		return contracts.Message{}, &contracts.MessageError{Op: "deserialize", Err: fmt.Errorf("%w: %v", contracts.ErrMalformedMessage, err)}
	}
	if dec.More() {
		return contracts.Message{}, &contracts.MessageError{Op: "deserialize", Err: fmt.Errorf("%w: trailing data", contracts.ErrMalformedMessage)}
	}

	if msg.Type == "" {
		return contracts.Message{}, contracts.ErrMissingType
	}
	if s.validate && msg.Type.IsKnown() {
		if err := msg.Validate(); err != nil {
			return contracts.Message{}, err
		}
	}

	return msg, nil
}
