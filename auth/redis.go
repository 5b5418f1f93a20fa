package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a RedisSource. Defaults can be loaded via envdecode
type RedisConfig struct {
	// Addr like "localhost:6379". ENV: EMBED_REDIS_ADDR
	Addr string `env:"EMBED_REDIS_ADDR,default=localhost:6379"`
	// Key holding the current token. ENV: EMBED_REDIS_TOKEN_KEY
	Key string `env:"EMBED_REDIS_TOKEN_KEY,default=embed:auth:token"`
	// DB index. ENV: EMBED_REDIS_DB
	DB int `env:"EMBED_REDIS_DB,default=0"`
}

// RedisSource reads the current token from a Redis string key kept fresh by
// some other process
type RedisSource struct {
	client *redis.Client
	key    string
	owned  bool
}

// NewRedisSource wraps an existing client. The caller keeps ownership of it
func NewRedisSource(client *redis.Client, key string) (*RedisSource, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if key == "" {
		return nil, fmt.Errorf("token key cannot be empty")
	}
	return &RedisSource{client: client, key: key}, nil
}

// DialRedisSource connects with cfg and verifies the connection
func DialRedisSource(ctx context.Context, cfg RedisConfig) (*RedisSource, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	key := cfg.Key
	if key == "" {
		key = "embed:auth:token"
	}

	cl := redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSource{client: cl, key: key, owned: true}, nil
}

// DialRedisSourceFromEnv builds a RedisSource using envdecode to populate RedisConfig
func DialRedisSourceFromEnv(ctx context.Context) (*RedisSource, error) {
	var cfg RedisConfig
	// Defaults are provided via struct tags
	_ = envdecode.Decode(&cfg)
	return DialRedisSource(ctx, cfg)
}

// Token implements CredentialSource
func (s *RedisSource) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", s.key, err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// Close closes the client when the source dialed it
func (s *RedisSource) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
