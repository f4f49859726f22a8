package sdk

import (
	"fmt"

	"github.com/bhandras/chatkit/internal/auth"
	"github.com/bhandras/chatkit/internal/config"
	"github.com/bhandras/chatkit/internal/transport/socketio"
	"github.com/bhandras/chatkit/internal/users"
	"github.com/bhandras/chatkit/pkg/logger"
)

// Config is the client configuration, see config.Load.
type Config = config.Config

// LoadConfig loads the configuration from path (optional), the chatkit home
// directory and CHATKIT_* variables.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// NewFromConfig creates a client talking to the service described by cfg.
func NewFromConfig(cfg *Config, opts ...Option) (*Client, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger.SetLevel(level)

	tokens, closeTokens := tokenProvider(cfg)
	fetcher := users.NewFetcher(cfg.ServerURL, cfg.InstanceID(), tokens,
		users.WithBatchSize(cfg.FetchBatchSize))
	factory := socketio.NewFactory(cfg.ServerURL, cfg.SocketPath, tokens)

	opts = append([]Option{
		WithMaxPending(cfg.MaxPending),
		withCloser(fetcher.Close),
		withCloser(closeTokens),
	}, opts...)
	return New(factory, fetcher, opts...), nil
}

// tokenProvider picks a fixed token when configured, the token endpoint
// otherwise.
func tokenProvider(cfg *Config) (auth.TokenProvider, func() error) {
	if cfg.Token != "" {
		return auth.Static(cfg.Token), func() error { return nil }
	}
	p := auth.NewHTTPProvider(cfg.TokenURL, cfg.UserID,
		auth.WithCache(auth.NewFileCache(cfg.Home)))
	return p, p.Close
}
