// Copyright 2024 Mmate Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mmateembed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/glimte/mmate-embed/auth"
	"github.com/glimte/mmate-embed/config"
	"github.com/glimte/mmate-embed/embed"
	"github.com/glimte/mmate-embed/messaging"
)

// Content types understood by the embedded application
const (
	EmbedTypeLiveboard = "Liveboard"
	EmbedTypeSearch    = "SearchEmbed"
	EmbedTypeSpotter   = "SpotterEmbed"
)

// Client provides the main entry point: it owns the configuration context
// shared by every embedding it creates
type Client struct {
	embedCtx *config.EmbedContext
	logger   *slog.Logger
	options  []embed.Option
}

// NewClient creates a client for cfg. credentials answers the content's token
// requests and may be nil only for config.AuthTypeNone
func NewClient(cfg config.EmbedConfig, credentials auth.CredentialSource, options ...ClientOption) (*Client, error) {
	embedCtx, err := config.New(cfg, credentials)
	if err != nil {
		return nil, fmt.Errorf("invalid embed config: %w", err)
	}
	return newClient(embedCtx, options...), nil
}

// NewClientFromEnv creates a client from THOUGHTSPOT_* environment variables
func NewClientFromEnv(credentials auth.CredentialSource, options ...ClientOption) (*Client, error) {
	embedCtx, err := config.FromEnv(credentials)
	if err != nil {
		return nil, err
	}
	return newClient(embedCtx, options...), nil
}

func newClient(embedCtx *config.EmbedContext, options ...ClientOption) *Client {
	cfg := &clientConfig{logger: slog.Default()}
	for _, opt := range options {
		opt(cfg)
	}

	return &Client{
		embedCtx: embedCtx,
		logger:   cfg.logger,
		options:  append([]embed.Option{embed.WithLogger(cfg.logger)}, cfg.embedOptions...),
	}
}

// Context returns the shared configuration context
func (c *Client) Context() *config.EmbedContext {
	return c.embedCtx
}

// Embed creates and mounts a controller for any content type. props are
// applied before it returns, so they are delivered as soon as the content is
// ready
func (c *Client) Embed(ctx context.Context, embedType string, transport messaging.Transport, props embed.Props, options ...embed.Option) (*embed.Controller, error) {
	opts := append(append([]embed.Option{}, c.options...), options...)
	controller, err := embed.New(embedType, transport, c.embedCtx, opts...)
	if err != nil {
		return nil, err
	}

	controller.Mount()
	if props != nil {
		controller.SetProps(ctx, props)
	}
	return controller, nil
}

// NewLiveboardEmbed embeds the liveboard identified by props["liveboardId"]
func (c *Client) NewLiveboardEmbed(ctx context.Context, transport messaging.Transport, props embed.Props, options ...embed.Option) (*embed.Controller, error) {
	id, _ := props["liveboardId"].(string)
	if id == "" {
		return nil, fmt.Errorf("liveboard embed: liveboardId is required")
	}
	return c.Embed(ctx, EmbedTypeLiveboard, transport, props, options...)
}

// NewSearchEmbed embeds the search experience
func (c *Client) NewSearchEmbed(ctx context.Context, transport messaging.Transport, props embed.Props, options ...embed.Option) (*embed.Controller, error) {
	return c.Embed(ctx, EmbedTypeSearch, transport, props, options...)
}

// NewSpotterEmbed embeds the conversational search experience
func (c *Client) NewSpotterEmbed(ctx context.Context, transport messaging.Transport, props embed.Props, options ...embed.Option) (*embed.Controller, error) {
	return c.Embed(ctx, EmbedTypeSpotter, transport, props, options...)
}

// ClientOption configures the client
type ClientOption func(*clientConfig)

type clientConfig struct {
	logger       *slog.Logger
	embedOptions []embed.Option
}

// WithLogger sets the logger used by every embedding
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithErrorNotifier sets the notifier used by every embedding
func WithErrorNotifier(n embed.ErrorNotifier) ClientOption {
	return func(c *clientConfig) {
		c.embedOptions = append(c.embedOptions, embed.WithErrorNotifier(n))
	}
}

// WithEmbedOptions adds controller options applied to every embedding
func WithEmbedOptions(opts ...embed.Option) ClientOption {
	return func(c *clientConfig) {
		c.embedOptions = append(c.embedOptions, opts...)
	}
}
