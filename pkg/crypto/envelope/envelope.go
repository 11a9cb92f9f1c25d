// Package envelope implements the at-rest text format for session payloads.
//
// A sealed payload is
//
//	base64( base64(IV) "::" base64(ciphertext) )
//
// The delimiter cannot occur inside standard base64, so the split is
// unambiguous. The result fits a TEXT column.
package envelope

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/pkg/crypto/adaptive"
)

// Delimiter separates the encoded IV from the encoded ciphertext.
const Delimiter = "::"

// Codec seals and opens session payloads with one store key.
// A Codec is safe for concurrent use.
type Codec struct {
	cipher adaptive.Cipher
}

// New builds a Codec. A key that is not exactly adaptive.KeySize bytes is
// rejected with domain.ErrInvalidKey.
func New(key []byte, cipherType adaptive.CipherType) (*Codec, error) {
	if len(key) != adaptive.KeySize {
		return nil, domain.ErrInvalidKey.WithDetailsf("got %d bytes, want %d", len(key), adaptive.KeySize)
	}

	c, err := adaptive.New(key, cipherType)
	if err != nil {
		return nil, domain.ErrConfiguration.WithCause(err)
	}

	return &Codec{cipher: c}, nil
}

// NewFromHex decodes a hex key and builds a Codec.
func NewFromHex(hexKey string, cipherType adaptive.CipherType) (*Codec, error) {
	key, err := DecodeKey(hexKey)
	if err != nil {
		return nil, err
	}
	return New(key, cipherType)
}

// DecodeKey decodes a hex-encoded store key and checks its length.
func DecodeKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return nil, domain.ErrInvalidKey.WithDetails("encryption_key is not valid hex")
	}
	if len(key) != adaptive.KeySize {
		return nil, domain.ErrInvalidKey.WithDetailsf("got %d bytes, want %d", len(key), adaptive.KeySize)
	}
	return key, nil
}

// GenerateKey returns a fresh random store key, hex-encoded.
func GenerateKey() (string, error) {
	key := make([]byte, adaptive.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// CipherType returns the underlying cipher type.
func (c *Codec) CipherType() adaptive.CipherType {
	return c.cipher.Type()
}

// Seal encrypts plaintext under a fresh IV and returns the text blob.
func (c *Codec) Seal(plaintext []byte) (string, error) {
	raw, err := c.cipher.Encrypt(plaintext, nil)
	if err != nil {
		return "", err
	}

	ns := c.cipher.NonceSize()
	var inner bytes.Buffer
	inner.WriteString(base64.StdEncoding.EncodeToString(raw[:ns]))
	inner.WriteString(Delimiter)
	inner.WriteString(base64.StdEncoding.EncodeToString(raw[ns:]))

	return base64.StdEncoding.EncodeToString(inner.Bytes()), nil
}

// Open reverses Seal. Every malformed input yields domain.ErrDecryption.
func (c *Codec) Open(blob string) ([]byte, error) {
	inner, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, domain.ErrDecryption.WithDetails("outer encoding").WithCause(err)
	}

	ivPart, ctPart, ok := bytes.Cut(inner, []byte(Delimiter))
	if !ok {
		return nil, domain.ErrDecryption.WithDetails("delimiter not found")
	}

	iv, err := base64.StdEncoding.DecodeString(string(ivPart))
	if err != nil {
		return nil, domain.ErrDecryption.WithDetails("iv encoding").WithCause(err)
	}
	if len(iv) != c.cipher.NonceSize() {
		return nil, domain.ErrDecryption.WithDetailsf("iv is %d bytes, want %d", len(iv), c.cipher.NonceSize())
	}

	ct, err := base64.StdEncoding.DecodeString(string(ctPart))
	if err != nil {
		return nil, domain.ErrDecryption.WithDetails("ciphertext encoding").WithCause(err)
	}

	plain, err := c.cipher.Decrypt(append(iv, ct...), nil)
	if err != nil {
		return nil, domain.ErrDecryption.WithCause(err)
	}
	return plain, nil
}
