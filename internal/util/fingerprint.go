package util

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
)

// ShortLen is how much of a fingerprint goes into object names.
const ShortLen = 12

// Fingerprint returns a SHA-256 hex digest of arbitrary bytes.
func Fingerprint(data []byte) string {
	s := sha256.Sum256(data)
	return hex.EncodeToString(s[:])
}

// FingerprintParts hashes each part behind its length, so ("ab", "c") and
// ("a", "bc") never collide. Callers sort parts when order must not matter.
func FingerprintParts(parts ...string) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:])
		_, _ = io.WriteString(h, p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func Short(fp string) string {
	if len(fp) <= ShortLen {
		return fp
	}
	return fp[:ShortLen]
}
