package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterMiddleware(t *testing.T) {
	t.Run("OnlyEvents passes listed events", func(t *testing.T) {
		registry := NewEventRegistry(WithMiddleware(FilterMiddleware(OnlyEvents("data"), nil)))
		var got []string
		for _, name := range []string{"data", "alert"} {
			name := name
			require.NoError(t, registry.Register(name, PayloadHandler(func(json.RawMessage) { got = append(got, name) })))
		}

		registry.Dispatch(context.Background(), "data", nil, nil)
		registry.Dispatch(context.Background(), "alert", nil, nil)

		assert.Equal(t, []string{"data"}, got)
	})

	t.Run("AllOf and AnyOf combine filters", func(t *testing.T) {
		yes := EventFilterFunc(func(context.Context, string, json.RawMessage) bool { return true })
		no := EventFilterFunc(func(context.Context, string, json.RawMessage) bool { return false })
		ctx := context.Background()

		assert.True(t, AllOf(yes, yes).ShouldProcess(ctx, "x", nil))
		assert.False(t, AllOf(yes, no).ShouldProcess(ctx, "x", nil))
		assert.True(t, AnyOf(no, yes).ShouldProcess(ctx, "x", nil))
		assert.False(t, AnyOf(no, no).ShouldProcess(ctx, "x", nil))
		assert.True(t, AllOf().ShouldProcess(ctx, "x", nil))
	})

	t.Run("filtered events are logged when a logger is set", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		registry := NewEventRegistry(WithMiddleware(FilterMiddleware(OnlyEvents(), logger)))
		require.NoError(t, registry.Register("load", PayloadHandler(func(json.RawMessage) {})))

		registry.Dispatch(context.Background(), "load", nil, nil)

		assert.Contains(t, buf.String(), "embed event filtered")
	})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	registry := NewEventRegistry(WithMiddleware(LoggingMiddleware(logger)))
	called := false
	require.NoError(t, registry.Register("load", PayloadHandler(func(json.RawMessage) { called = true })))

	registry.Dispatch(context.Background(), "load", json.RawMessage(`{}`), nil)

	assert.True(t, called)
	assert.Contains(t, buf.String(), "handling embed event")
	assert.Contains(t, buf.String(), "eventName=load")
	assert.Contains(t, buf.String(), "embed event handled")
}
