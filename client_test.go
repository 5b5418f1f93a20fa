package mmateembed

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/glimte/mmate-embed/auth"
	"github.com/glimte/mmate-embed/config"
	"github.com/glimte/mmate-embed/contracts"
	"github.com/glimte/mmate-embed/embed"
	"github.com/glimte/mmate-embed/internal/embedtest"
	"github.com/glimte/mmate-embed/transports/stream"
	"github.com/glimte/mmate-embed/transports/webview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(config.EmbedConfig{
		ThoughtSpotHost: "my.ts.host",
		AuthType:        config.AuthTypeTrustedAuthTokenCookieless,
	}, auth.StaticToken("test-auth-token"))
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("validates the embed config", func(t *testing.T) {
		_, err := NewClient(config.EmbedConfig{}, nil)
		assert.Error(t, err)
	})

	t.Run("forces token retrieval through the host", func(t *testing.T) {
		client := newTestClient(t)
		assert.True(t, client.Context().EmbedConfig().GetTokenFromSDK)
	})

	t.Run("loads from the environment", func(t *testing.T) {
		t.Setenv("THOUGHTSPOT_HOST", "env.ts.host")
		t.Setenv("THOUGHTSPOT_AUTH_TYPE", "None")

		client, err := NewClientFromEnv(nil)

		require.NoError(t, err)
		assert.Equal(t, "env.ts.host", client.Context().EmbedConfig().ThoughtSpotHost)
	})
}

func TestContentWrappers(t *testing.T) {
	ctx := context.Background()

	t.Run("liveboard requires an id", func(t *testing.T) {
		client := newTestClient(t)

		_, err := client.NewLiveboardEmbed(ctx, embedtest.NewTransport(true), embed.Props{})

		assert.Error(t, err)
	})

	t.Run("each wrapper mounts the right content type", func(t *testing.T) {
		client := newTestClient(t)
		tr := embedtest.NewTransport(true)

		lb, err := client.NewLiveboardEmbed(ctx, tr, embed.Props{"liveboardId": "lb-123"})
		require.NoError(t, err)
		search, err := client.NewSearchEmbed(ctx, tr, nil)
		require.NoError(t, err)
		spotter, err := client.NewSpotterEmbed(ctx, tr, embed.Props{"worksheetId": "ws-1"})
		require.NoError(t, err)

		assert.Equal(t, EmbedTypeLiveboard, lb.EmbedType())
		assert.Equal(t, EmbedTypeSearch, search.EmbedType())
		assert.Equal(t, EmbedTypeSpotter, spotter.EmbedType())
		for _, c := range []*embed.Controller{lb, search, spotter} {
			assert.Equal(t, embed.StateAwaitingReadiness, c.State())
		}
		assert.Equal(t, 0, tr.Count())
	})

	t.Run("liveboard pushes its id on readiness", func(t *testing.T) {
		client := newTestClient(t)
		tr := embedtest.NewTransport(true)
		lb, err := client.NewLiveboardEmbed(ctx, tr, embed.Props{"liveboardId": "lb-123"})
		require.NoError(t, err)

		lb.HandleRawMessage(ctx, []byte(`{"type":"INIT_VERCEL_SHELL"}`))

		msgs := tr.Messages(t)
		require.Len(t, msgs, 2)
		assert.Equal(t, contracts.MessageTypeInit, msgs[0].Type)
		assert.Equal(t, contracts.MessageTypeEmbed, msgs[1].Type)
		assert.Equal(t, EmbedTypeLiveboard, msgs[1].EmbedType)
		assert.Equal(t, "lb-123", msgs[1].ViewConfig["liveboardId"])
	})
}

func TestWebViewEmbedding(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	tr := webview.NewTransport()

	lb, err := client.NewLiveboardEmbed(ctx, tr, embed.Props{"liveboardId": "lb-123"})
	require.NoError(t, err)
	lb.HandleRawMessage(ctx, []byte(`{"type":"INIT_VERCEL_SHELL"}`))

	var scripts []string
	tr.Attach(webview.InjectorFunc(func(script string) error {
		scripts = append(scripts, script)
		return nil
	}))

	require.Len(t, scripts, 2, "attaching the view releases the deferred push")
	assert.Contains(t, scripts[0], `"type":"INIT"`)
	assert.Contains(t, scripts[1], `"type":"EMBED"`)
}

func TestStreamEmbeddingRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hostOut, contentIn := io.Pipe()
	contentOut, hostIn := io.Pipe()
	defer hostIn.Close()

	client := newTestClient(t)
	tr := stream.NewTransport(contentIn)
	defer tr.Close()

	lb, err := client.NewLiveboardEmbed(ctx, tr, embed.Props{"liveboardId": "lb-123"})
	require.NoError(t, err)
	go stream.Serve(ctx, contentOut, lb)

	content := bufio.NewScanner(hostOut)
	readMessage := func() contracts.Message {
		require.True(t, content.Scan())
		var msg contracts.Message
		require.NoError(t, json.Unmarshal(content.Bytes(), &msg))
		return msg
	}
	send := func(s string) {
		_, err := io.WriteString(hostIn, s+"\n")
		require.NoError(t, err)
	}

	send(`{"type":"INIT_VERCEL_SHELL"}`)
	assert.Equal(t, contracts.MessageTypeInit, readMessage().Type)
	assert.Equal(t, contracts.MessageTypeEmbed, readMessage().Type)

	send(`{"type":"REQUEST_AUTH_TOKEN","eventId":"auth-1"}`)
	tokenMsg := readMessage()
	assert.Equal(t, contracts.MessageTypeAuthTokenResponse, tokenMsg.Type)
	assert.Equal(t, "test-auth-token", tokenMsg.Token)
	assert.Equal(t, "auth-1", tokenMsg.EventID)

	callc := make(chan error, 1)
	var tabs struct {
		Tabs []string `json:"tabs"`
	}
	go func() {
		call, err := lb.Trigger(ctx, string(contracts.HostEventGetTabs), nil)
		if err != nil {
			callc <- err
			return
		}
		callc <- call.Decode(ctx, &tabs)
	}()

	hostEvent := readMessage()
	require.Equal(t, contracts.MessageTypeHostEvent, hostEvent.Type)
	send(`{"type":"HOST_EVENT_REPLY","eventId":"` + hostEvent.EventID + `","payload":{"tabs":["a","b"]}}`)

	require.NoError(t, <-callc)
	assert.Equal(t, []string{"a", "b"}, tabs.Tabs)
}
