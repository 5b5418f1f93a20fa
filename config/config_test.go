package config

import (
	"encoding/json"
	"testing"

	"github.com/glimte/mmate-embed/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("stores the config and credential source", func(t *testing.T) {
		src := auth.StaticToken("test-token")
		ctx, err := New(EmbedConfig{
			ThoughtSpotHost: "testhost",
			AuthType:        AuthTypeTrustedAuthTokenCookieless,
		}, src)

		require.NoError(t, err)
		assert.Equal(t, EmbedConfig{
			ThoughtSpotHost: "testhost",
			AuthType:        AuthTypeTrustedAuthTokenCookieless,
			GetTokenFromSDK: true,
		}, ctx.EmbedConfig())
		assert.Equal(t, src, ctx.Credentials())
	})

	t.Run("forces getTokenFromSDK", func(t *testing.T) {
		ctx, err := New(EmbedConfig{ThoughtSpotHost: "testhost", AuthType: AuthTypeNone}, nil)

		require.NoError(t, err)
		assert.True(t, ctx.EmbedConfig().GetTokenFromSDK)
	})

	t.Run("defaults the auth type", func(t *testing.T) {
		ctx, err := New(EmbedConfig{ThoughtSpotHost: "testhost"}, auth.StaticToken("x"))

		require.NoError(t, err)
		assert.Equal(t, AuthTypeTrustedAuthTokenCookieless, ctx.EmbedConfig().AuthType)
	})

	t.Run("trims the host", func(t *testing.T) {
		ctx, err := New(EmbedConfig{ThoughtSpotHost: " https://my.ts.host/ ", AuthType: AuthTypeNone}, nil)

		require.NoError(t, err)
		assert.Equal(t, "https://my.ts.host", ctx.EmbedConfig().ThoughtSpotHost)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := New(EmbedConfig{}, nil)
		assert.ErrorContains(t, err, "thoughtSpotHost is required")

		_, err = New(EmbedConfig{ThoughtSpotHost: "h", AuthType: "Magic"}, nil)
		assert.ErrorContains(t, err, "unsupported authType")

		_, err = New(EmbedConfig{ThoughtSpotHost: "h", AuthType: AuthTypeTrustedAuthToken}, nil)
		assert.ErrorContains(t, err, "requires a credential source")
	})

	t.Run("EmbedConfig returns an independent copy", func(t *testing.T) {
		ctx, err := New(EmbedConfig{
			ThoughtSpotHost: "h",
			AuthType:        AuthTypeNone,
			Customizations:  map[string]any{"style": "dark"},
		}, nil)
		require.NoError(t, err)

		cfg := ctx.EmbedConfig()
		cfg.Customizations["style"] = "light"

		assert.Equal(t, "dark", ctx.EmbedConfig().Customizations["style"])
	})

	t.Run("serializes with the wire field names", func(t *testing.T) {
		ctx, err := New(EmbedConfig{ThoughtSpotHost: "h", AuthType: AuthTypeNone}, nil)
		require.NoError(t, err)

		data, err := json.Marshal(ctx.EmbedConfig())
		require.NoError(t, err)
		assert.JSONEq(t, `{"thoughtSpotHost":"h","authType":"None","getTokenFromSDK":true}`, string(data))
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("loads the config from the environment", func(t *testing.T) {
		t.Setenv("THOUGHTSPOT_HOST", "env.host")
		t.Setenv("THOUGHTSPOT_AUTH_TYPE", "None")

		ctx, err := FromEnv(nil)

		require.NoError(t, err)
		assert.Equal(t, "env.host", ctx.EmbedConfig().ThoughtSpotHost)
		assert.Equal(t, AuthTypeNone, ctx.EmbedConfig().AuthType)
	})

	t.Run("fails without a host", func(t *testing.T) {
		t.Setenv("THOUGHTSPOT_HOST", "")

		_, err := FromEnv(auth.StaticToken("x"))
		assert.Error(t, err)
	})
}
