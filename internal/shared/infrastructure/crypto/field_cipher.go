// Package crypto seals individual column values with AES-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// sealedPrefix marks a stored value as ciphertext. Values without it are
// read back as plaintext, so enabling encryption needs no data migration.
const sealedPrefix = "enc:v1:"

var (
	ErrEmptyKey         = errors.New("encryption key is empty")
	ErrInvalidKeyLength = errors.New("encryption key must be 32 bytes")
	ErrCiphertextShort  = errors.New("ciphertext too short")
)

// FieldCipher seals and opens string column values. The binding passed to
// both calls is authenticated but not stored, which ties a ciphertext to
// its row.
type FieldCipher interface {
	Seal(plaintext, binding string) (string, error)
	Open(stored, binding string) (string, error)
}

// AESFieldCipher implements FieldCipher with AES-256-GCM.
type AESFieldCipher struct {
	aead cipher.AEAD
}

// NewAESFieldCipherFromBase64Key creates an AESFieldCipher from a
// base64-encoded 32-byte key.
func NewAESFieldCipherFromBase64Key(encodedKey string) (*AESFieldCipher, error) {
	if encodedKey == "" {
		return nil, ErrEmptyKey
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &AESFieldCipher{aead: aead}, nil
}

// Seal encrypts plaintext. Empty values stay empty.
func (c *AESFieldCipher) Seal(plaintext, binding string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(binding))
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal. Unsealed values are returned as is.
func (c *AESFieldCipher) Open(stored, binding string) (string, error) {
	encoded, ok := strings.CutPrefix(stored, sealedPrefix)
	if !ok {
		return stored, nil
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid sealed value: %w", err)
	}
	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCiphertextShort
	}
	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], []byte(binding))
	if err != nil {
		return "", fmt.Errorf("failed to open sealed value: %w", err)
	}
	return string(plaintext), nil
}

// IsSealed reports whether stored was produced by Seal.
func IsSealed(stored string) bool {
	return strings.HasPrefix(stored, sealedPrefix)
}
