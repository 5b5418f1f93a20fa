package contracts

import (
	"encoding/json"
	"fmt"
)

// MessageType is the discriminant carried in the "type" field of every message
type MessageType string

const (
	MessageTypeInit              MessageType = "INIT"
	MessageTypeEmbed             MessageType = "EMBED"
	MessageTypeHostEvent         MessageType = "HOST_EVENT"
	MessageTypeHostEventReply    MessageType = "HOST_EVENT_REPLY"
	MessageTypeEmbedEvent        MessageType = "EMBED_EVENT"
	MessageTypeEmbedEventReply   MessageType = "EMBED_EVENT_REPLY"
	MessageTypeRequestAuthToken  MessageType = "REQUEST_AUTH_TOKEN"
	MessageTypeAuthTokenResponse MessageType = "AUTH_TOKEN_RESPONSE"

	// MessageTypeInitVercelShell is the readiness announcement sent by the
	// embedded content once it has booted
	MessageTypeInitVercelShell MessageType = "INIT_VERCEL_SHELL"
)

var knownMessageTypes = map[MessageType]struct{}{
	MessageTypeInit:              {},
	MessageTypeEmbed:             {},
	MessageTypeHostEvent:         {},
	MessageTypeHostEventReply:    {},
	MessageTypeEmbedEvent:        {},
	MessageTypeEmbedEventReply:   {},
	MessageTypeRequestAuthToken:  {},
	MessageTypeAuthTokenResponse: {},
	MessageTypeInitVercelShell:   {},
}

// IsKnown reports whether t belongs to the protocol enumeration
func (t MessageType) IsKnown() bool {
	_, ok := knownMessageTypes[t]
	return ok
}

func (t MessageType) String() string {
	return string(t)
}

// Message is the only unit of communication across the embedding boundary.
// Only Type is mandatory; the remaining fields depend on the type
type Message struct {
	Type         MessageType     `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	EventName    string          `json:"eventName,omitempty"`
	EventID      string          `json:"eventId,omitempty"`
	HasResponder bool            `json:"hasResponder,omitempty"`
	Token        string          `json:"token,omitempty"`
	EmbedType    string          `json:"embedType,omitempty"`
	ViewConfig   map[string]any  `json:"viewConfig,omitempty"`
}

// NewInitMessage creates the INIT message carrying the host embed configuration
func NewInitMessage(embedConfig any) (Message, error) {
	payload, err := marshalPayload(embedConfig)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: MessageTypeInit, Payload: payload}, nil
}

// NewEmbedMessage creates the EMBED message describing what to render
func NewEmbedMessage(embedType string, viewConfig map[string]any) Message {
	return Message{
		Type:       MessageTypeEmbed,
		EmbedType:  embedType,
		ViewConfig: viewConfig,
	}
}

// NewHostEvent creates a correlated host-to-content call
func NewHostEvent(eventName, eventID string, payload any) (Message, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:      MessageTypeHostEvent,
		EventName: eventName,
		EventID:   eventID,
		Payload:   raw,
	}, nil
}

// NewEmbedEventReply answers a content-initiated event; eventID must be the
// id the content sent
func NewEmbedEventReply(eventID string, payload any) (Message, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Type:    MessageTypeEmbedEventReply,
		EventID: eventID,
		Payload: raw,
	}, nil
}

// NewAuthTokenResponse answers REQUEST_AUTH_TOKEN
func NewAuthTokenResponse(token, eventID string) Message {
	return Message{
		Type:    MessageTypeAuthTokenResponse,
		Token:   token,
		EventID: eventID,
	}
}

// Validate checks the fields required by the message type. Unknown types are
// not an error here; receivers decide how to treat them
func (m Message) Validate() error {
	if m.Type == "" {
		return ErrMissingType
	}

	switch m.Type {
	case MessageTypeHostEvent:
		if m.EventName == "" || m.EventID == "" {
			return &MessageError{Op: "validate", Type: m.Type, Err: fmt.Errorf("eventName and eventId are required")}
		}
	case MessageTypeHostEventReply, MessageTypeEmbedEventReply:
		if m.EventID == "" {
			return &MessageError{Op: "validate", Type: m.Type, Err: fmt.Errorf("eventId is required")}
		}
	case MessageTypeEmbedEvent:
		if m.EventName == "" {
			return &MessageError{Op: "validate", Type: m.Type, Err: fmt.Errorf("eventName is required")}
		}
		if m.HasResponder && m.EventID == "" {
			return &MessageError{Op: "validate", Type: m.Type, Err: fmt.Errorf("eventId is required when hasResponder is set")}
		}
	}

	return nil
}

// ExpectsResponse reports whether an EMBED_EVENT asks the host for a reply
func (m Message) ExpectsResponse() bool {
	return m.Type == MessageTypeEmbedEvent && m.HasResponder && m.EventID != ""
}

func marshalPayload(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, &MessageError{Op: "marshal payload", Err: err}
	}
	return b, nil
}
