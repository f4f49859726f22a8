// Package auth supplies the bearer tokens used to open subscriptions and
// call the user service.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyToken is returned when a provider has no token to hand out.
var ErrEmptyToken = errors.New("token is empty")

// TokenProvider returns a token valid for at least the next request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Static always returns the same token.
type Static string

// Token implements TokenProvider.
func (s Static) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrEmptyToken
	}
	return string(s), nil
}
