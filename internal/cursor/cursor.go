// Package cursor implements the opaque cursor codec used by paginated
// listings. Cursors encode the boundary record's fully-qualified name so a
// scan can resume with a strict key comparison; encoding them keeps clients
// from fabricating arbitrary keys.
package cursor

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidCursor marks a malformed or undecodable cursor token (maps to HTTP 400).
var ErrInvalidCursor = errors.New("invalid cursor")

// Codec converts boundary keys to opaque tokens and back.
// Decode(Encode(k)) == k for every valid key.
type Codec interface {
	Encode(key string) string
	Decode(token string) (string, error)
}

// Base64Codec is the low-security codec: tokens are reversible by anyone.
// Suitable for internal deployments where opacity is cosmetic.
type Base64Codec struct{}

func (Base64Codec) Encode(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

func (Base64Codec) Decode(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return string(raw), nil
}

// AESCodec encrypts keys with AES-GCM under a configured secret. Tampered or
// garbage tokens fail authentication and surface as ErrInvalidCursor.
type AESCodec struct {
	aead cipher.AEAD
}

// NewAESCodec derives a 256-bit key from the secret and builds the AEAD.
// An empty secret is a configuration error, not a fallback to plain encoding.
func NewAESCodec(secret string) (*AESCodec, error) {
	if secret == "" {
		return nil, errors.New("cursor secret is required")
	}
	sum := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("failed to init cursor cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init cursor aead: %w", err)
	}
	return &AESCodec{aead: aead}, nil
}

func (c *AESCodec) Encode(key string) string {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		// rand.Reader failing means the process is in a broken state anyway.
		panic(fmt.Sprintf("cursor nonce: %v", err))
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(key), nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

func (c *AESCodec) Decode(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: token too short", ErrInvalidCursor)
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	key, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return string(key), nil
}

// New selects a codec by configured mode: "aes" (default) or "base64".
func New(mode, secret string) (Codec, error) {
	switch mode {
	case "", "aes":
		return NewAESCodec(secret)
	case "base64":
		return Base64Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown cursor codec mode %q", mode)
	}
}
