package auth

import (
	"context"
	"errors"
)

// ErrNoToken is returned when a source has no token to hand out
var ErrNoToken = errors.New("auth: no token available")

// CredentialSource returns the current bearer credential. Implementations may
// block; callers bound the lookup with ctx
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc is a function adapter for CredentialSource
type TokenFunc func(ctx context.Context) (string, error)

// Token implements CredentialSource
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken always returns the same token
type StaticToken string

// Token implements CredentialSource
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}
