package crypto

import (
	"crypto/sha1"
	"strconv"
)

const (
	saltSize     = 16
	keySize      = 32
	kdfRounds    = 2
	sha1BlockLen = 64
)

// kdfPassword is the fixed password the messenger feeds into the key
// derivation for every identity; only the salt varies.
var kdfPassword = []byte{22, 8, 9, 111, 2, 23, 43, 8, 33, 33, 10, 16, 3, 3, 7, 6}

// saltPrefixes maps an encoding type to the string constant prepended to the
// decimal identity id when deriving the per-identity salt.
var saltPrefixes = [...]string{
	"", "",
	"12", "24", "18", "30", "36", "12", "48", "7", "35", "40", "17", "23", "29",
	"isabel", "kale", "sulli", "van", "merry", "kyle", "james", "maddux", "tony",
	"hayden", "paul", "elijah", "dorothy", "sally", "bran", "extr.ursra", "veil",
}

// DeriveSalt builds the 16-byte salt for an (encoding type, identity) pair:
// the per-type prefix concatenated with the decimal identity id, truncated or
// zero-padded to 16 bytes. Encoding type 0 or a non-positive identity yields
// the all-zero legacy salt.
func DeriveSalt(encType int, identityID int64) []byte {
	salt := make([]byte, saltSize)
	if encType <= 0 || identityID <= 0 {
		return salt
	}
	prefix := ""
	if encType < len(saltPrefixes) {
		prefix = saltPrefixes[encType]
	}
	copy(salt, prefix+strconv.FormatInt(identityID, 10))
	return salt
}

// deriveKey implements the PKCS#12 key-material block derivation (RFC 7292
// appendix B.2) over SHA-1, taking the password as raw bytes the way the
// messenger does rather than as a BMPString.
func deriveKey(password, salt []byte, iterations, size int) []byte {
	diversifier := make([]byte, sha1BlockLen)
	for i := range diversifier {
		diversifier[i] = 1 // ID byte for key material
	}
	combined := append(tile(salt, sha1BlockLen), tile(password, sha1BlockLen)...)

	var key []byte
	for len(key) < size {
		h := sha1.New()
		h.Write(diversifier)
		h.Write(combined)
		block := h.Sum(nil)
		for i := 1; i < iterations; i++ {
			next := sha1.Sum(block)
			block = next[:]
		}
		key = append(key, block...)
		if len(key) >= size {
			break
		}
		expanded := tile(block, sha1BlockLen)
		for off := 0; off+sha1BlockLen <= len(combined); off += sha1BlockLen {
			addOne(combined[off:off+sha1BlockLen], expanded)
		}
	}
	return key[:size]
}

// tile repeats data to the smallest multiple of blockLen covering it.
func tile(data []byte, blockLen int) []byte {
	if len(data) == 0 {
		return nil
	}
	n := ((len(data) + blockLen - 1) / blockLen) * blockLen
	out := make([]byte, n)
	for i := range out {
		out[i] = data[i%len(data)]
	}
	return out
}

// addOne computes a = (a + b + 1) mod 2^(8*len(a)), big-endian in place.
func addOne(a, b []byte) {
	carry := 1
	for i := len(a) - 1; i >= 0; i-- {
		sum := int(a[i]) + int(b[i]) + carry
		a[i] = byte(sum)
		carry = sum >> 8
	}
}
