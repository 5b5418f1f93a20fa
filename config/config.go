// Package config holds the host-level embed configuration and credential
// source that every embedding instance is built from
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/glimte/mmate-embed/auth"
	"github.com/joeshaw/envdecode"
)

// AuthType selects how the embedded content authenticates against the host cluster
type AuthType string

const (
	AuthTypeNone                       AuthType = "None"
	AuthTypeBasic                      AuthType = "Basic"
	AuthTypeTrustedAuthToken           AuthType = "AuthServer"
	AuthTypeTrustedAuthTokenCookieless AuthType = "AuthServerCookieless"
)

// Valid reports whether a is one of the supported auth types
func (a AuthType) Valid() bool {
	switch a {
	case AuthTypeNone, AuthTypeBasic, AuthTypeTrustedAuthToken, AuthTypeTrustedAuthTokenCookieless:
		return true
	}
	return false
}

// EmbedConfig is sent to the embedded content as the payload of INIT
type EmbedConfig struct {
	// ENV: THOUGHTSPOT_HOST
	ThoughtSpotHost string `json:"thoughtSpotHost" env:"THOUGHTSPOT_HOST,required"`
	// ENV: THOUGHTSPOT_AUTH_TYPE
	AuthType AuthType `json:"authType" env:"THOUGHTSPOT_AUTH_TYPE,default=AuthServerCookieless"`
	// ENV: THOUGHTSPOT_USERNAME
	Username string `json:"username,omitempty" env:"THOUGHTSPOT_USERNAME"`
	// Always true once the config is part of an EmbedContext; tokens are
	// requested from the host through REQUEST_AUTH_TOKEN
	GetTokenFromSDK bool           `json:"getTokenFromSDK"`
	Customizations  map[string]any `json:"customizations,omitempty"`
}

// EmbedContext is the explicitly owned replacement for a process-wide
// configuration cache. Build one per host and pass it to each controller
type EmbedContext struct {
	embed       EmbedConfig
	credentials auth.CredentialSource
}

// New validates cfg and binds it to a credential source. credentials may be
// nil when the auth type never asks for tokens
func New(cfg EmbedConfig, credentials auth.CredentialSource) (*EmbedContext, error) {
	host := strings.TrimSpace(cfg.ThoughtSpotHost)
	if host == "" {
		return nil, fmt.Errorf("thoughtSpotHost is required")
	}
	if strings.Contains(host, "://") {
		if _, err := url.Parse(host); err != nil {
			return nil, fmt.Errorf("invalid thoughtSpotHost %q: %w", host, err)
		}
	}
	cfg.ThoughtSpotHost = strings.TrimRight(host, "/")

	if cfg.AuthType == "" {
		cfg.AuthType = AuthTypeTrustedAuthTokenCookieless
	}
	if !cfg.AuthType.Valid() {
		return nil, fmt.Errorf("unsupported authType %q", cfg.AuthType)
	}
	if credentials == nil && cfg.AuthType != AuthTypeNone {
		return nil, fmt.Errorf("authType %s requires a credential source", cfg.AuthType)
	}

	cfg.GetTokenFromSDK = true
	cfg.Customizations = cloneMap(cfg.Customizations)

	return &EmbedContext{embed: cfg, credentials: credentials}, nil
}

// FromEnv loads EmbedConfig from the environment with envdecode and binds it
// to credentials
func FromEnv(credentials auth.CredentialSource) (*EmbedContext, error) {
	var cfg EmbedConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode embed config from env: %w", err)
	}
	return New(cfg, credentials)
}

// EmbedConfig returns a copy of the configuration sent in INIT
func (c *EmbedContext) EmbedConfig() EmbedConfig {
	cfg := c.embed
	cfg.Customizations = cloneMap(c.embed.Customizations)
	return cfg
}

// Credentials returns the credential source, possibly nil
func (c *EmbedContext) Credentials() auth.CredentialSource {
	return c.credentials
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
