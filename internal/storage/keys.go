// Package storage manages key files under the chatkit home directory.
package storage

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// KeySize is the length of a secret key.
const KeySize = 32

// GenerateSecretKey generates a new random secret key.
func GenerateSecretKey() (*[KeySize]byte, error) {
	var key [KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return &key, nil
}

// SaveSecretKey writes the key base64 encoded, readable by the owner only.
func SaveSecretKey(path string, key *[KeySize]byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key[:])
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// LoadSecretKey reads a key written by SaveSecretKey.
func LoadSecretKey(path string) (*[KeySize]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("invalid key length: %d (expected %d)", len(raw), KeySize)
	}

	var key [KeySize]byte
	copy(key[:], raw)
	return &key, nil
}

// GetOrCreateSecretKey loads the key at path, generating and saving one if
// the file does not exist. A corrupt key file is an error, never silently
// replaced.
func GetOrCreateSecretKey(path string) (*[KeySize]byte, error) {
	key, err := LoadSecretKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	key, err = GenerateSecretKey()
	if err != nil {
		return nil, err
	}
	if err := SaveSecretKey(path, key); err != nil {
		return nil, err
	}
	return key, nil
}
