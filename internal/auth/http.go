package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bhandras/chatkit/pkg/logger"
	"resty.dev/v3"
)

const (
	// DefaultRefreshWindow is how long before expiry a token is replaced.
	DefaultRefreshWindow = time.Minute

	defaultRequestTimeout = 15 * time.Second
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// HTTPProvider fetches tokens from a token endpoint using the client
// credentials grant and keeps them until they are about to expire.
type HTTPProvider struct {
	client   *resty.Client
	tokenURL string
	userID   string
	window   time.Duration
	cache    *FileCache
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	loaded    bool
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithRefreshWindow sets how long before expiry a token is refreshed.
func WithRefreshWindow(d time.Duration) HTTPOption {
	return func(p *HTTPProvider) { p.window = d }
}

// WithCache persists tokens across process restarts.
func WithCache(c *FileCache) HTTPOption {
	return func(p *HTTPProvider) { p.cache = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) HTTPOption {
	return func(p *HTTPProvider) { p.now = now }
}

// NewHTTPProvider creates a provider for userID against tokenURL.
func NewHTTPProvider(tokenURL, userID string, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		client:   resty.New().SetTimeout(defaultRequestTimeout),
		tokenURL: tokenURL,
		userID:   userID,
		window:   DefaultRefreshWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Token implements TokenProvider.
func (p *HTTPProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		p.loaded = true
		p.loadCache()
	}
	if p.valid() {
		return p.token, nil
	}

	tok, exp, err := p.fetch(ctx)
	if err != nil {
		return "", err
	}
	p.token, p.expiresAt = tok, exp

	if p.cache != nil {
		if err := p.cache.Save(CachedToken{Token: tok, ExpiresAt: exp}); err != nil {
			logger.Warnf("auth: failed to cache token: %v", err)
		}
	}
	return tok, nil
}

// Invalidate drops the current token so the next call fetches a new one.
func (p *HTTPProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = ""
	p.expiresAt = time.Time{}
	if p.cache != nil {
		if err := p.cache.Clear(); err != nil {
			logger.Warnf("auth: failed to clear token cache: %v", err)
		}
	}
}

// Close releases the HTTP client.
func (p *HTTPProvider) Close() error {
	return p.client.Close()
}

func (p *HTTPProvider) valid() bool {
	return p.token != "" && p.expiresAt.Sub(p.now()) > p.window
}

func (p *HTTPProvider) loadCache() {
	if p.cache == nil {
		return
	}
	tok, err := p.cache.Load()
	if err != nil {
		logger.Debugf("auth: no usable cached token: %v", err)
		return
	}
	p.token, p.expiresAt = tok.Token, tok.ExpiresAt
}

func (p *HTTPProvider) fetch(ctx context.Context) (string, time.Time, error) {
	logger.Debugf("auth: fetching token for %s", p.userID)

	var out tokenResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type": "client_credentials",
			"user_id":    p.userID,
		}).
		SetResult(&out).
		Post(p.tokenURL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request: %w", err)
	}
	if resp.IsError() {
		return "", time.Time{}, fmt.Errorf("token request: unexpected status %d", resp.StatusCode())
	}
	if out.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("token request: %w", ErrEmptyToken)
	}

	// The exp claim wins over expires_in when both are present.
	exp, ok := ExpiresAt(out.AccessToken)
	if !ok {
		exp = p.now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return out.AccessToken, exp, nil
}
