// Package crypto implements the messenger's field encryption scheme: a
// deterministic per-identity key derivation feeding AES-CBC with a fixed,
// published IV. Fields in the wild are not uniformly ciphertext (system
// records and legacy rows carry plaintext), so decryption degrades to
// passthrough rather than failing hard wherever the input is plausibly not
// encrypted at all.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"talkbridge/pkg/logger"
)

// iv is the fixed initialization vector the messenger uses for every field.
var iv = []byte{15, 8, 1, 0, 25, 71, 37, 220, 21, 245, 23, 224, 225, 21, 12, 53}

// Engine derives and caches per-identity keys and decrypts record fields.
// Safe for concurrent use.
type Engine struct {
	cache KeyCache
}

// NewEngine returns an Engine backed by the default in-memory key cache.
func NewEngine() *Engine {
	return &Engine{cache: NewKeyCache()}
}

// NewEngineWithCache returns an Engine backed by the provided cache.
func NewEngineWithCache(cache KeyCache) *Engine {
	return &Engine{cache: cache}
}

// Key returns the 32-byte AES key for the (encoding type, identity) pair,
// deriving and memoizing it on first use.
func (e *Engine) Key(encType int, identityID int64) []byte {
	salt := DeriveSalt(encType, identityID)
	ck := string(salt)
	if k, ok := e.cache.Get(ck); ok {
		return k
	}
	k := deriveKey(kdfPassword, salt, kdfRounds, keySize)
	e.cache.Put(ck, k)
	return k
}

// Decrypt decodes and decrypts a base64 field.
//
// Contract:
//   - empty input returns empty, nil (some fields are legitimately empty);
//   - malformed base64 is an error;
//   - a ciphertext that is not a whole number of cipher blocks is treated as
//     a foreign-format field: the original input is returned unchanged and
//     the failure is logged, never propagated;
//   - a decrypted padding byte outside [1, block size] is a hard input error.
func (e *Engine) Decrypt(encType int, identityID int64, input string) (string, error) {
	if input == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	if len(raw) == 0 {
		return input, nil
	}
	if len(raw)%aes.BlockSize != 0 {
		logger.Debug("decrypt_passthrough", "reason", "partial block", "len", len(raw), "enc", encType)
		return input, nil
	}

	block, err := aes.NewCipher(e.Key(encType, identityID))
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	plain := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, raw)

	pad := int(plain[len(plain)-1])
	if pad < 1 || pad > aes.BlockSize {
		return "", fmt.Errorf("invalid padding length %d", pad)
	}
	return string(plain[:len(plain)-pad]), nil
}

// Encrypt is the inverse of Decrypt under the same derived key: PKCS#7 pad,
// AES-CBC, base64. Used by administrative updates and round-trip tests.
func (e *Engine) Encrypt(encType int, identityID int64, plaintext string) (string, error) {
	block, err := aes.NewCipher(e.Key(encType, identityID))
	if err != nil {
		return "", fmt.Errorf("init cipher: %w", err)
	}
	pad := aes.BlockSize - len(plaintext)%aes.BlockSize
	buf := make([]byte, len(plaintext)+pad)
	copy(buf, plaintext)
	for i := len(plaintext); i < len(buf); i++ {
		buf[i] = byte(pad)
	}
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(buf, buf)
	return base64.StdEncoding.EncodeToString(buf), nil
}
