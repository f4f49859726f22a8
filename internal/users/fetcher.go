// Package users fetches full user profiles from the users service. The SDK
// uses it to promote partial users referenced by subscription events.
package users

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/bhandras/chatkit/internal/auth"
	"github.com/bhandras/chatkit/internal/wire"
	"github.com/bhandras/chatkit/pkg/logger"
	"resty.dev/v3"
)

const (
	// DefaultBatchSize caps the identifiers sent in one request.
	DefaultBatchSize = 50

	defaultTimeout = 15 * time.Second
)

// Fetcher loads users by identifier.
type Fetcher struct {
	client    *resty.Client
	tokens    auth.TokenProvider
	batchSize int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithBatchSize overrides DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.batchSize = n
		}
	}
}

// NewFetcher creates a fetcher for the instance served at serverURL.
func NewFetcher(serverURL, instanceID string, tokens auth.TokenProvider, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: resty.New().
			SetBaseURL(fmt.Sprintf("%s/services/chatkit/v7/%s", serverURL, url.PathEscape(instanceID))).
			SetTimeout(defaultTimeout),
		tokens:    tokens,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the users with the given identifiers. Identifiers unknown to
// the server are absent from the result.
func (f *Fetcher) Fetch(ctx context.Context, ids []string) ([]wire.User, error) {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))

	var users []wire.User
	for batch := range slices.Chunk(ids, f.batchSize) {
		got, err := f.fetchBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		users = append(users, got...)
	}
	return users, nil
}

func (f *Fetcher) fetchBatch(ctx context.Context, ids []string) ([]wire.User, error) {
	token, err := f.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}

	logger.Debugf("users: fetching %d users", len(ids))
	resp, err := f.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParamsFromValues(url.Values{"id": ids}).
		Get("/users_by_ids")
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch users: unexpected status %d", resp.StatusCode())
	}

	users, err := wire.DecodeUsers(resp.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Close releases the HTTP client.
func (f *Fetcher) Close() error {
	return f.client.Close()
}
