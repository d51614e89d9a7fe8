package crypto

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"strings"
	"sync"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := NewEngine()
	cases := []struct {
		encType  int
		identity int64
		text     string
	}{
		{31, 12345, "hello"},
		{31, 12345, ""},
		{2, 99, "a longer message body spanning multiple cipher blocks, with some unicode: 안녕"},
		{24, 7, strings.Repeat("x", aes.BlockSize)},
		{0, 12345, "zero enc type uses the zero salt"},
		{31, -1, "non-positive identity uses the zero salt"},
	}
	for _, tc := range cases {
		enc, err := e.Encrypt(tc.encType, tc.identity, tc.text)
		if err != nil {
			t.Fatalf("Encrypt(%d, %d): %v", tc.encType, tc.identity, err)
		}
		got, err := e.Decrypt(tc.encType, tc.identity, enc)
		if err != nil {
			t.Fatalf("Decrypt(%d, %d): %v", tc.encType, tc.identity, err)
		}
		if got != tc.text {
			t.Fatalf("round trip (%d, %d): got %q want %q", tc.encType, tc.identity, got, tc.text)
		}
	}
}

func TestDecryptEmptyInput(t *testing.T) {
	e := NewEngine()
	got, err := e.Decrypt(31, 1, "")
	if err != nil {
		t.Fatalf("Decrypt empty: %v", err)
	}
	if got != "" {
		t.Fatalf("Decrypt empty: got %q", got)
	}
}

func TestDecryptMalformedBase64(t *testing.T) {
	e := NewEngine()
	if _, err := e.Decrypt(31, 1, "not-valid-base64!!!"); err == nil {
		t.Fatal("expected error for malformed base64")
	}
}

func TestDecryptPartialBlockPassthrough(t *testing.T) {
	e := NewEngine()
	// 10 raw bytes: valid base64, not a whole cipher block.
	in := base64.StdEncoding.EncodeToString([]byte("0123456789"))
	got, err := e.Decrypt(31, 1, in)
	if err != nil {
		t.Fatalf("Decrypt partial block: %v", err)
	}
	if got != in {
		t.Fatalf("partial block should pass through unchanged: got %q want %q", got, in)
	}
}

func TestDecryptBadPaddingByte(t *testing.T) {
	e := NewEngine()
	// Decrypting garbage with the wrong key yields a padding byte outside
	// [1, 16] with overwhelming probability. Use a full block of zeros
	// encrypted under a different identity to force a mismatch.
	enc, err := e.Encrypt(31, 1, "some secret body")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	_, err = e.Decrypt(31, 987654321, enc)
	if err == nil {
		t.Skip("wrong-key decrypt happened to yield a valid padding byte")
	}
	if !strings.Contains(err.Error(), "padding") {
		t.Fatalf("expected padding error, got %v", err)
	}
}

func TestDeriveSalt(t *testing.T) {
	zero := make([]byte, 16)
	if got := DeriveSalt(0, 12345); !bytes.Equal(got, zero) {
		t.Fatalf("encType 0 should use the zero salt, got %v", got)
	}
	if got := DeriveSalt(-3, 12345); !bytes.Equal(got, zero) {
		t.Fatalf("negative encType should use the zero salt, got %v", got)
	}
	if got := DeriveSalt(31, 0); !bytes.Equal(got, zero) {
		t.Fatalf("identity 0 should use the zero salt, got %v", got)
	}

	got := DeriveSalt(31, 12345)
	if len(got) != 16 {
		t.Fatalf("salt length: got %d", len(got))
	}
	if bytes.Equal(got, zero) {
		t.Fatal("positive encType and identity must not yield the zero salt")
	}
	// Deterministic.
	if again := DeriveSalt(31, 12345); !bytes.Equal(got, again) {
		t.Fatal("salt derivation must be deterministic")
	}
	// Distinct identities get distinct salts.
	if other := DeriveSalt(31, 12346); bytes.Equal(got, other) {
		t.Fatal("distinct identities must not share a salt")
	}
}

func TestKeyMemoized(t *testing.T) {
	e := NewEngine()
	k1 := e.Key(31, 42)
	k2 := e.Key(31, 42)
	if len(k1) != 32 {
		t.Fatalf("key length: got %d", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Fatal("repeated derivation must return the same key")
	}
	if bytes.Equal(k1, e.Key(2, 42)) {
		t.Fatal("different encoding types must derive different keys")
	}
}

func TestKeyConcurrent(t *testing.T) {
	e := NewEngine()
	want := e.Key(31, 7)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := int64(1); j <= 50; j++ {
				e.Key(31, j)
			}
			if !bytes.Equal(e.Key(31, 7), want) {
				t.Error("concurrent derivation returned a different key")
			}
		}()
	}
	wg.Wait()
}
