package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bhandras/chatkit/internal/crypto"
	"github.com/bhandras/chatkit/internal/storage"
)

// ErrNoCachedToken is returned by Load when nothing has been cached yet.
var ErrNoCachedToken = errors.New("no cached token")

// CachedToken is a token with the time it stops being usable.
type CachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileCache keeps the last token on disk, sealed with a key stored next to
// it.
type FileCache struct {
	path    string
	keyPath string
}

// NewFileCache creates a cache storing the sealed token in dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{
		path:    filepath.Join(dir, "token.sealed"),
		keyPath: filepath.Join(dir, "token.key"),
	}
}

// Save seals and writes the token.
func (c *FileCache) Save(tok CachedToken) error {
	key, err := storage.GetOrCreateSecretKey(c.keyPath)
	if err != nil {
		return err
	}
	sealed, err := crypto.Seal(tok, key)
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}
	if err := os.WriteFile(c.path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Load reads the cached token.
func (c *FileCache) Load() (CachedToken, error) {
	sealed, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return CachedToken{}, ErrNoCachedToken
	}
	if err != nil {
		return CachedToken{}, fmt.Errorf("failed to read token cache: %w", err)
	}
	key, err := storage.LoadSecretKey(c.keyPath)
	if err != nil {
		return CachedToken{}, err
	}
	var tok CachedToken
	if err := crypto.Open(sealed, key, &tok); err != nil {
		return CachedToken{}, fmt.Errorf("failed to open token cache: %w", err)
	}
	return tok, nil
}

// Clear removes the cached token. The key is kept.
func (c *FileCache) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
