// Package adaptive provides the symmetric ciphers used to seal session
// payloads at rest.
//
// Supported Algorithms:
//
//   - AES-256-CBC: default. Random IV per call, PKCS#7 padding, no
//     authentication tag, so only gross corruption is detected.
//   - AES-256-GCM: AEAD, opt-in.
//   - ChaCha20-Poly1305: AEAD, opt-in.
//
// Every cipher takes a 32-byte key and returns IV || ciphertext from
// Encrypt, so callers can frame the output uniformly.
//
// Usage:
//
//	c, err := adaptive.New(key, adaptive.CipherAESCBC)
//	sealed, err := c.Encrypt(plaintext, nil)
//	plaintext, err := c.Decrypt(sealed, nil)
package adaptive
