package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Fingerprint(nil))
	assert.Equal(t, "e3b0c44298fc", Short(Fingerprint(nil)))
	assert.Equal(t, "abc", Short("abc"))
}

func TestFingerprintParts(t *testing.T) {
	assert.Equal(t, FingerprintParts("a", "b"), FingerprintParts("a", "b"))
	assert.NotEqual(t, FingerprintParts("ab", "c"), FingerprintParts("a", "bc"))
	assert.NotEqual(t, FingerprintParts("a", "b"), FingerprintParts("b", "a"))
	assert.NotEqual(t, FingerprintParts(), FingerprintParts(""))
	assert.Len(t, FingerprintParts("x"), 64)
}
