package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
)

// AESCBC implements AES-256-CBC with PKCS#7 padding.
//
// There is no authentication tag: a flipped bit in the ciphertext usually
// decrypts to garbage instead of failing. Only bad lengths and bad padding
// are reported as errors.
type AESCBC struct {
	block cipher.Block
}

// NewAESCBC creates an AES-256-CBC cipher.
func NewAESCBC(key []byte) (*AESCBC, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return &AESCBC{block: block}, nil
}

// Type returns the cipher type.
func (c *AESCBC) Type() CipherType {
	return CipherAESCBC
}

// NonceSize returns the IV size, which equals the AES block size.
func (c *AESCBC) NonceSize() int {
	return aes.BlockSize
}

// Overhead returns the maximum padding length.
func (c *AESCBC) Overhead() int {
	return aes.BlockSize
}

// Encrypt pads plaintext and encrypts it under a fresh random IV.
func (c *AESCBC) Encrypt(plaintext, _ []byte) ([]byte, error) {
	iv, err := randomBytes(aes.BlockSize)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, aes.BlockSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

// Decrypt splits off the IV, decrypts and strips the padding.
func (c *AESCBC) Decrypt(ciphertext, _ []byte) ([]byte, error) {
	if len(ciphertext) < 2*aes.BlockSize {
		return nil, ErrCiphertextShort
	}

	iv, body := ciphertext[:aes.BlockSize], ciphertext[aes.BlockSize:]
	if len(body)%aes.BlockSize != 0 {
		return nil, ErrCiphertextFormat
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plain, body)
	return pkcs7Unpad(plain, aes.BlockSize)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrCiphertextFormat
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size {
		return nil, ErrCiphertextFormat
	}
	var bad int
	for _, p := range b[len(b)-n:] {
		bad |= subtle.ConstantTimeByteEq(p, byte(n)) ^ 1
	}
	if bad != 0 {
		return nil, ErrCiphertextFormat
	}
	return b[:len(b)-n], nil
}
