// Package crypto seals small local blobs with NaCl secretbox.
package crypto

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrOpen is returned when a sealed blob fails authentication.
var ErrOpen = errors.New("decryption failed")

// Seal encrypts data with XSalsa20-Poly1305.
// Format: [nonce (24 bytes)][encrypted data + auth tag]
// Byte slices and json.RawMessage are sealed as is, anything else is JSON
// encoded first.
func Seal(data any, secret *[32]byte) ([]byte, error) {
	var plaintext []byte
	switch v := data.(type) {
	case json.RawMessage:
		plaintext = []byte(v)
	case []byte:
		plaintext = v
	default:
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal data: %w", err)
		}
		plaintext = encoded
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return secretbox.Seal(nonce[:], plaintext, &nonce, secret), nil
}

// Open decrypts a blob produced by Seal and JSON decodes it into target.
func Open(sealed []byte, secret *[32]byte, target any) error {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return fmt.Errorf("sealed data too short")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, secret)
	if !ok {
		return ErrOpen
	}

	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}
