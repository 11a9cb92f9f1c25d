package envelope

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/pkg/crypto/adaptive"
)

func testKey() []byte {
	key := make([]byte, adaptive.KeySize)
	for i := range key {
		key[i] = byte(i * 7)
	}
	return key
}

func newCodec(t *testing.T, ct adaptive.CipherType) *Codec {
	t.Helper()
	c, err := New(testKey(), ct)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_WrongKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		_, err := New(make([]byte, n), adaptive.CipherAESCBC)
		if !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("New(%d bytes) error = %v, want configuration error", n, err)
		}
	}
}

func TestDecodeKey(t *testing.T) {
	good := hex.EncodeToString(testKey())

	if _, err := DecodeKey(good); err != nil {
		t.Fatalf("DecodeKey(valid) error = %v", err)
	}
	if _, err := DecodeKey("  " + good + "\n"); err != nil {
		t.Fatalf("DecodeKey(padded) error = %v", err)
	}

	bad := []string{
		"",
		"zz" + good[2:],
		good[:62], // 31 bytes
		good + "00",
		"5db19e2a04d0c8b1255dea477394c146", // 16 bytes
	}
	for _, k := range bad {
		if _, err := DecodeKey(k); !errors.Is(err, domain.ErrInvalidKey) {
			t.Errorf("DecodeKey(%q) error = %v, want ErrInvalidKey", k, err)
		}
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	payloads := [][]byte{
		[]byte(`{"data":{"user_id":7}}`),
		{},
		bytes.Repeat([]byte("z"), 4096),
	}

	for _, ct := range []adaptive.CipherType{adaptive.CipherAESCBC, adaptive.CipherAESGCM, adaptive.CipherChaCha20} {
		c := newCodec(t, ct)
		for _, p := range payloads {
			blob, err := c.Seal(p)
			if err != nil {
				t.Fatalf("%s: Seal() error = %v", ct, err)
			}
			got, err := c.Open(blob)
			if err != nil {
				t.Fatalf("%s: Open() error = %v", ct, err)
			}
			if !bytes.Equal(got, p) {
				t.Errorf("%s: Open() = %q, want %q", ct, got, p)
			}
		}
	}
}

func TestSeal_Format(t *testing.T) {
	c := newCodec(t, adaptive.CipherAESCBC)

	blob, err := c.Seal([]byte("hello"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	inner, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		t.Fatalf("outer layer is not base64: %v", err)
	}
	parts := strings.Split(string(inner), Delimiter)
	if len(parts) != 2 {
		t.Fatalf("inner layer has %d parts, want 2", len(parts))
	}
	iv, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(iv) != 16 {
		t.Errorf("iv = %d bytes (err %v), want 16", len(iv), err)
	}
}

func TestSeal_NonDeterministic(t *testing.T) {
	c := newCodec(t, adaptive.CipherAESCBC)

	a, _ := c.Seal([]byte("same"))
	b, _ := c.Seal([]byte("same"))
	if a == b {
		t.Error("two Seal() calls produced identical blobs")
	}
}

func TestOpen_Malformed(t *testing.T) {
	c := newCodec(t, adaptive.CipherAESCBC)
	good, _ := c.Seal([]byte("payload"))
	inner, _ := base64.StdEncoding.DecodeString(good)
	ivPart, ctPart, _ := strings.Cut(string(inner), Delimiter)

	enc := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }
	shortIV := base64.StdEncoding.EncodeToString(make([]byte, 8))

	tests := []struct {
		name string
		blob string
	}{
		{"not base64", "!!!"},
		{"no delimiter", enc(ivPart + ctPart)},
		{"short iv", enc(shortIV + Delimiter + ctPart)},
		{"iv not base64", enc("@@" + Delimiter + ctPart)},
		{"ciphertext not base64", enc(ivPart + Delimiter + "@@")},
		{"truncated ciphertext", enc(ivPart + Delimiter + base64.StdEncoding.EncodeToString([]byte("short")))},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Open(tt.blob)
			if !errors.Is(err, domain.ErrDecryption) {
				t.Errorf("Open() error = %v, want ErrDecryption", err)
			}
		})
	}
}

func TestOpen_WrongKeyAEAD(t *testing.T) {
	a := newCodec(t, adaptive.CipherAESGCM)
	other := bytes.Repeat([]byte{1}, adaptive.KeySize)
	b, err := New(other, adaptive.CipherAESGCM)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	blob, _ := a.Seal([]byte("secret"))
	if _, err := b.Open(blob); !errors.Is(err, domain.ErrDecryption) {
		t.Errorf("Open() error = %v, want ErrDecryption", err)
	}
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	if len(a) != 2*adaptive.KeySize {
		t.Errorf("len = %d, want %d", len(a), 2*adaptive.KeySize)
	}
	if _, err := NewFromHex(a, adaptive.CipherAESCBC); err != nil {
		t.Errorf("generated key rejected: %v", err)
	}

	b, _ := GenerateKey()
	if a == b {
		t.Error("two generated keys are equal")
	}
}
