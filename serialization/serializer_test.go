package serialization

import (
	"errors"
	"testing"

	"github.com/glimte/mmate-embed/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSerializer(t *testing.T) {
	t.Run("Serialize produces a flat record", func(t *testing.T) {
		s := NewJSONSerializer()

		data, err := s.Serialize(contracts.Message{
			Type:      contracts.MessageTypeHostEvent,
			EventName: "reload",
			EventID:   "abc",
		})

		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"HOST_EVENT","eventName":"reload","eventId":"abc"}`, string(data))
	})

	t.Run("Serialize rejects a message without type", func(t *testing.T) {
		s := NewJSONSerializer()

		_, err := s.Serialize(contracts.Message{EventName: "reload"})
		assert.ErrorIs(t, err, contracts.ErrMissingType)
	})

	t.Run("Serialize validates when enabled", func(t *testing.T) {
		s := NewJSONSerializer(WithValidation(true))

		_, err := s.Serialize(contracts.Message{Type: contracts.MessageTypeHostEvent})
		assert.Error(t, err)
	})

	t.Run("Deserialize reads every optional field", func(t *testing.T) {
		s := NewJSONSerializer()

		msg, err := s.Deserialize([]byte(`{"type":"EMBED_EVENT","eventName":"load","eventId":"e1","hasResponder":true,"payload":{"data":"test"}}`))

		require.NoError(t, err)
		assert.Equal(t, contracts.MessageTypeEmbedEvent, msg.Type)
		assert.Equal(t, "load", msg.EventName)
		assert.Equal(t, "e1", msg.EventID)
		assert.True(t, msg.HasResponder)
		assert.JSONEq(t, `{"data":"test"}`, string(msg.Payload))
	})

	t.Run("Deserialize keeps unknown types", func(t *testing.T) {
		s := NewJSONSerializer(WithValidation(true))

		msg, err := s.Deserialize([]byte(`{"type":"UNKNOWN_TYPE"}`))

		require.NoError(t, err)
		assert.Equal(t, contracts.MessageType("UNKNOWN_TYPE"), msg.Type)
	})

	t.Run("Deserialize reports malformed input", func(t *testing.T) {
		s := NewJSONSerializer()

		for _, in := range []string{"", "   ", "not json", `{"type":`, `[1,2]`, `{"type":"INIT"} trailing`} {
			_, err := s.Deserialize([]byte(in))
			assert.ErrorIs(t, err, contracts.ErrMalformedMessage, in)

			var msgErr *contracts.MessageError
			assert.True(t, errors.As(err, &msgErr), in)
		}
	})

	t.Run("Deserialize reports missing type", func(t *testing.T) {
		s := NewJSONSerializer()

		_, err := s.Deserialize([]byte(`{"payload":1}`))
		assert.ErrorIs(t, err, contracts.ErrMissingType)

		_, err = s.Deserialize([]byte(`null`))
		assert.ErrorIs(t, err, contracts.ErrMissingType)
	})

	t.Run("Deserialize rejects extra fields when strict", func(t *testing.T) {
		s := NewJSONSerializer(WithDisallowUnknownFields(true))

		_, err := s.Deserialize([]byte(`{"type":"INIT","extra":1}`))
		assert.ErrorIs(t, err, contracts.ErrMalformedMessage)
	})
}
