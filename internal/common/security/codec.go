package security

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"voice_motto/internal/common"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of a motto encryption key.
const KeySize = chacha20poly1305.KeySize

// Versioned prefix so a future key or algorithm rotation can coexist with
// stored mottos.
const tokenPrefixV1 = "v1."

// MottoCodec encrypts mottos with XChaCha20-Poly1305 under one static key.
// Output is an ASCII token: "v1." + base64url(nonce || sealed).
type MottoCodec struct {
	aead cipher.AEAD
}

// NewMottoCodec builds a codec. The key must be exactly KeySize bytes.
func NewMottoCodec(key []byte) (*MottoCodec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	return &MottoCodec{aead: aead}, nil
}

// Encrypt seals plaintext with a random nonce.
func (c *MottoCodec) Encrypt(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(tokenPrefixV1))

	out := make([]byte, len(tokenPrefixV1)+base64.RawURLEncoding.EncodedLen(len(sealed)))
	copy(out, tokenPrefixV1)
	base64.RawURLEncoding.Encode(out[len(tokenPrefixV1):], sealed)
	return out, nil
}

// Decrypt opens a token produced by Encrypt. Any malformed, tampered or
// foreign-key token yields an error wrapping common.ErrDecryption.
func (c *MottoCodec) Decrypt(ciphertext []byte) (string, error) {
	token := string(ciphertext)
	if !strings.HasPrefix(token, tokenPrefixV1) {
		return "", fmt.Errorf("unknown ciphertext version: %w", common.ErrDecryption)
	}
	sealed, err := base64.RawURLEncoding.DecodeString(token[len(tokenPrefixV1):])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %v: %w", err, common.ErrDecryption)
	}
	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("ciphertext too short: %w", common.ErrDecryption)
	}
	nonce, body := sealed[:nonceSize], sealed[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, body, []byte(tokenPrefixV1))
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", common.ErrDecryption)
	}
	return string(plain), nil
}

// Encrypt is the stateless form of MottoCodec.Encrypt.
func Encrypt(plaintext string, key []byte) ([]byte, error) {
	c, err := NewMottoCodec(key)
	if err != nil {
		return nil, err
	}
	return c.Encrypt(plaintext)
}

// Decrypt is the stateless form of MottoCodec.Decrypt.
func Decrypt(ciphertext, key []byte) (string, error) {
	c, err := NewMottoCodec(key)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, common.ErrDecryption)
	}
	return c.Decrypt(ciphertext)
}

// ParseKey decodes a configured key. Hex and both base64 alphabets (padded or
// not) are accepted, so Fernet-style url-safe keys work unchanged.
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("key is empty")
	}
	if len(raw) == hex.EncodedLen(KeySize) {
		if b, err := hex.DecodeString(raw); err == nil {
			return b, nil
		}
	}
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding,
		base64.RawURLEncoding,
		base64.StdEncoding,
		base64.RawStdEncoding,
	} {
		b, err := enc.DecodeString(raw)
		if err != nil {
			continue
		}
		if len(b) != KeySize {
			return nil, fmt.Errorf("key must decode to %d bytes, got %d", KeySize, len(b))
		}
		return b, nil
	}
	return nil, errors.New("key is neither hex nor base64")
}

// GenerateKey returns a fresh url-safe base64 key suitable for ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(key), nil
}
