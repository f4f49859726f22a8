// Package config loads the client configuration from defaults, an optional
// TOML file and CHATKIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bhandras/chatkit/pkg/logger"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultSocketPath     = "/socket.io/"
	defaultMaxPending     = 64
	defaultFetchBatchSize = 50
	defaultLogLevel       = "info"
	hostSuffix            = "pusherplatform.io"
)

// ErrInvalidLocator is returned for instance locators not of the form
// v1:<cluster>:<instance id>.
var ErrInvalidLocator = errors.New("invalid instance locator")

type Config struct {
	// InstanceLocator identifies the chat instance, v1:<cluster>:<id>.
	InstanceLocator string `toml:"instance_locator" validate:"required,instance_locator"`
	// UserID is the user the client connects as.
	UserID string `toml:"user_id" validate:"required"`
	// TokenURL is the token provider endpoint. Ignored when Token is set.
	TokenURL string `toml:"token_url" validate:"omitempty,url"`
	// Token is a fixed bearer token, mostly useful for testing.
	Token string `toml:"token" validate:"required_without=TokenURL"`

	// ServerURL overrides the host derived from the instance locator.
	ServerURL string `toml:"server_url" validate:"omitempty,url"`
	// SocketPath is the Socket.IO endpoint path.
	SocketPath string `toml:"socket_path" validate:"required,startswith=/"`

	// Home is the directory where chatkit keeps local state.
	Home string `toml:"home" validate:"required"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `toml:"log_level" validate:"oneof=trace debug info warn error"`
	// MaxPending bounds the states a repository holds back while waiting
	// for user profiles.
	MaxPending int `toml:"max_pending" validate:"gte=1"`
	// FetchBatchSize caps the users requested at once.
	FetchBatchSize int `toml:"fetch_batch_size" validate:"gte=1,lte=100"`
}

// Load builds the configuration. path may be empty, in which case
// $CHATKIT_HOME_DIR/config.toml is used if it exists.
func Load(path string) (*Config, error) {
	cfg, err := defaults()
	if err != nil {
		return nil, err
	}
	if home := os.Getenv("CHATKIT_HOME_DIR"); home != "" {
		cfg.Home = home
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.Home, "config.toml")
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.ServerURL == "" && cfg.InstanceLocator != "" {
		if cluster, _, err := ParseInstanceLocator(cfg.InstanceLocator); err == nil {
			cfg.ServerURL = fmt.Sprintf("https://%s.%s", cluster, hostSuffix)
		}
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", validationError(err))
	}

	// Ensure chatkit home exists
	if err := os.MkdirAll(cfg.Home, 0700); err != nil {
		return nil, fmt.Errorf("failed to create chatkit home: %w", err)
	}
	return cfg, nil
}

func defaults() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Config{
		SocketPath:     defaultSocketPath,
		Home:           filepath.Join(homeDir, ".chatkit"),
		LogLevel:       defaultLogLevel,
		MaxPending:     defaultMaxPending,
		FetchBatchSize: defaultFetchBatchSize,
	}, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	logger.Debugf("config: loaded %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	for env, dst := range map[string]*string{
		"CHATKIT_INSTANCE_LOCATOR": &c.InstanceLocator,
		"CHATKIT_USER_ID":          &c.UserID,
		"CHATKIT_TOKEN_URL":        &c.TokenURL,
		"CHATKIT_TOKEN":            &c.Token,
		"CHATKIT_SERVER_URL":       &c.ServerURL,
		"CHATKIT_SOCKET_PATH":      &c.SocketPath,
		"CHATKIT_LOG_LEVEL":        &c.LogLevel,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}

	for env, dst := range map[string]*int{
		"CHATKIT_MAX_PENDING":      &c.MaxPending,
		"CHATKIT_FETCH_BATCH_SIZE": &c.FetchBatchSize,
	} {
		v := strings.TrimSpace(os.Getenv(env))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", env, v, err)
		}
		*dst = n
	}

	debug := os.Getenv("DEBUG")
	if debug == "true" || debug == "1" {
		c.LogLevel = "debug"
	}
	return nil
}

// InstanceID returns the instance part of the locator.
func (c *Config) InstanceID() string {
	_, id, _ := ParseInstanceLocator(c.InstanceLocator)
	return id
}

// ParseInstanceLocator splits v1:<cluster>:<instance id>.
func ParseInstanceLocator(locator string) (cluster, instanceID string, err error) {
	parts := strings.Split(locator, ":")
	if len(parts) != 3 || parts[0] != "v1" || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidLocator, locator)
	}
	return parts[1], parts[2], nil
}
