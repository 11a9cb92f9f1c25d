package adaptive

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// KeySize is the only key length accepted by this package.
const KeySize = 32

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESCBC   CipherType = "aes-256-cbc"
	CipherAESGCM   CipherType = "aes-256-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

// Errors returned by ciphers.
var (
	ErrKeySize          = fmt.Errorf("adaptive: key must be exactly %d bytes", KeySize)
	ErrCiphertextShort  = errors.New("adaptive: ciphertext too short")
	ErrCiphertextFormat = errors.New("adaptive: malformed ciphertext")
)

// Cipher seals and opens byte payloads.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt returns IV || ciphertext. additionalData is authenticated by
	// AEAD ciphers and ignored by CBC.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt reverses Encrypt.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the IV/nonce size in bytes.
	NonceSize() int

	// Overhead returns the maximum number of bytes added beyond the IV
	// (authentication tag or padding).
	Overhead() int
}

// New creates a cipher of the given type. An empty type selects AES-256-CBC.
func New(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case "", CipherAESCBC:
		return NewAESCBC(key)
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", cipherType)
	}
}

// ParseType normalizes a configured cipher name.
func ParseType(name string) (CipherType, error) {
	switch CipherType(name) {
	case "", CipherAESCBC:
		return CipherAESCBC, nil
	case CipherAESGCM, "aes-gcm":
		return CipherAESGCM, nil
	case CipherChaCha20:
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("adaptive: unknown cipher type %q", name)
	}
}

func checkKey(key []byte) error {
	if len(key) != KeySize {
		return ErrKeySize
	}
	return nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("adaptive: read random: %w", err)
	}
	return b, nil
}

// aeadCipher provides the shared Seal/Open framing for AEAD ciphers.
type aeadCipher struct {
	kind CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType { return c.kind }

func (c *aeadCipher) NonceSize() int { return c.aead.NonceSize() }

func (c *aeadCipher) Overhead() int { return c.aead.Overhead() }

func (c *aeadCipher) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	nonce, err := randomBytes(c.aead.NonceSize())
	if err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (c *aeadCipher) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(ciphertext) < ns+c.aead.Overhead() {
		return nil, ErrCiphertextShort
	}
	return c.aead.Open(nil, ciphertext[:ns], ciphertext[ns:], additionalData)
}
