package contracts

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageType(t *testing.T) {
	t.Run("IsKnown accepts protocol types", func(t *testing.T) {
		for _, mt := range []MessageType{
			MessageTypeInit, MessageTypeEmbed, MessageTypeHostEvent, MessageTypeHostEventReply,
			MessageTypeEmbedEvent, MessageTypeEmbedEventReply, MessageTypeRequestAuthToken,
			MessageTypeAuthTokenResponse, MessageTypeInitVercelShell,
		} {
			assert.True(t, mt.IsKnown(), mt.String())
		}
	})

	t.Run("IsKnown rejects other types", func(t *testing.T) {
		assert.False(t, MessageType("UNKNOWN_TYPE").IsKnown())
		assert.False(t, MessageType("").IsKnown())
	})
}

func TestMessageConstructors(t *testing.T) {
	t.Run("NewHostEvent carries name, id and payload", func(t *testing.T) {
		msg, err := NewHostEvent("reload", "id-1", map[string]any{"test": true})
		require.NoError(t, err)

		assert.Equal(t, MessageTypeHostEvent, msg.Type)
		assert.Equal(t, "reload", msg.EventName)
		assert.Equal(t, "id-1", msg.EventID)
		assert.JSONEq(t, `{"test":true}`, string(msg.Payload))
	})

	t.Run("NewHostEvent without payload omits the field", func(t *testing.T) {
		msg, err := NewHostEvent("reload", "id-1", nil)
		require.NoError(t, err)

		data, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"HOST_EVENT","eventName":"reload","eventId":"id-1"}`, string(data))
	})

	t.Run("NewEmbedEventReply echoes the id", func(t *testing.T) {
		msg, err := NewEmbedEventReply("test-id", map[string]any{"response": "test"})
		require.NoError(t, err)

		data, err := json.Marshal(msg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"EMBED_EVENT_REPLY","eventId":"test-id","payload":{"response":"test"}}`, string(data))
	})

	t.Run("NewAuthTokenResponse without id matches the bare shape", func(t *testing.T) {
		data, err := json.Marshal(NewAuthTokenResponse("mock-auth-token", ""))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"AUTH_TOKEN_RESPONSE","token":"mock-auth-token"}`, string(data))
	})

	t.Run("NewEmbedMessage carries embed type and view config", func(t *testing.T) {
		data, err := json.Marshal(NewEmbedMessage("Liveboard", map[string]any{"liveboardId": "lb-123"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"EMBED","embedType":"Liveboard","viewConfig":{"liveboardId":"lb-123"}}`, string(data))
	})

	t.Run("raw payloads are passed through untouched", func(t *testing.T) {
		msg, err := NewInitMessage(json.RawMessage(`{"thoughtSpotHost":"h"}`))
		require.NoError(t, err)
		assert.Equal(t, `{"thoughtSpotHost":"h"}`, string(msg.Payload))
	})

	t.Run("unmarshalable payload is a MessageError", func(t *testing.T) {
		_, err := NewHostEvent("reload", "id", make(chan int))

		var msgErr *MessageError
		require.True(t, errors.As(err, &msgErr))
		assert.Equal(t, "marshal payload", msgErr.Op)
	})
}

func TestMessageValidate(t *testing.T) {
	t.Run("missing type", func(t *testing.T) {
		assert.ErrorIs(t, Message{}.Validate(), ErrMissingType)
	})

	t.Run("host event needs name and id", func(t *testing.T) {
		err := Message{Type: MessageTypeHostEvent, EventName: "reload"}.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "HOST_EVENT")
	})

	t.Run("replies need an id", func(t *testing.T) {
		assert.Error(t, Message{Type: MessageTypeHostEventReply}.Validate())
		assert.Error(t, Message{Type: MessageTypeEmbedEventReply}.Validate())
		assert.NoError(t, Message{Type: MessageTypeHostEventReply, EventID: "x"}.Validate())
	})

	t.Run("embed event with responder needs an id", func(t *testing.T) {
		assert.Error(t, Message{Type: MessageTypeEmbedEvent, EventName: "load", HasResponder: true}.Validate())
		assert.NoError(t, Message{Type: MessageTypeEmbedEvent, EventName: "load"}.Validate())
	})

	t.Run("unknown types are not rejected", func(t *testing.T) {
		assert.NoError(t, Message{Type: "SOMETHING_NEW"}.Validate())
	})
}

func TestExpectsResponse(t *testing.T) {
	assert.True(t, Message{Type: MessageTypeEmbedEvent, HasResponder: true, EventID: "id"}.ExpectsResponse())
	assert.False(t, Message{Type: MessageTypeEmbedEvent, HasResponder: true}.ExpectsResponse())
	assert.False(t, Message{Type: MessageTypeEmbedEvent, EventID: "id"}.ExpectsResponse())
	assert.False(t, Message{Type: MessageTypeHostEvent, HasResponder: true, EventID: "id"}.ExpectsResponse())
}

func TestLookupEventProp(t *testing.T) {
	ev, ok := LookupEventProp("onLiveboardRendered")
	assert.True(t, ok)
	assert.Equal(t, EmbedEventLiveboardRendered, ev)

	_, ok = LookupEventProp("onSomethingElse")
	assert.False(t, ok)
	_, ok = LookupEventProp("liveboardId")
	assert.False(t, ok)
}
