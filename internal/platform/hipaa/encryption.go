// Package hipaa seals protected health information before it is written to
// the document store.
package hipaa

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks a stored value as ciphertext so plaintext written
// before encryption was enabled can still be read.
const sealedPrefix = "enc:v1:"

// ErrNoKey is returned when a sealed value is read without a configured key.
var ErrNoKey = errors.New("phi: sealed value but no encryption key configured")

// FieldCipher encrypts individual string fields with AES-256-GCM. A nil
// *FieldCipher is valid and leaves values in plaintext.
type FieldCipher struct {
	aead cipher.AEAD
}

// ParseKey decodes a 64-character hex string into a 32-byte AES-256 key.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, fmt.Errorf("phi key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("phi key: must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// NewFieldCipher creates a FieldCipher from a 32-byte key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("phi cipher: key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("phi cipher: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("phi cipher: create GCM: %w", err)
	}
	return &FieldCipher{aead: aead}, nil
}

// Enabled reports whether values are actually encrypted.
func (f *FieldCipher) Enabled() bool {
	return f != nil
}

// IsSealed reports whether v was produced by Seal.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, sealedPrefix)
}

// Seal encrypts plaintext. Empty strings are stored as-is.
func (f *FieldCipher) Seal(plaintext string) (string, error) {
	if f == nil || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, f.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("phi seal: generate nonce: %w", err)
	}
	sealed := f.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Values without the sealed prefix
// are returned unchanged.
func (f *FieldCipher) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if f == nil {
		return "", ErrNoKey
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("phi open: base64 decode: %w", err)
	}
	n := f.aead.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("phi open: ciphertext too short")
	}
	plaintext, err := f.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("phi open: %w", err)
	}
	return string(plaintext), nil
}

// SealAll seals each field in place, stopping at the first error.
func (f *FieldCipher) SealAll(fields ...*string) error {
	for _, p := range fields {
		v, err := f.Seal(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

// OpenAll opens each field in place, stopping at the first error.
func (f *FieldCipher) OpenAll(fields ...*string) error {
	for _, p := range fields {
		v, err := f.Open(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
