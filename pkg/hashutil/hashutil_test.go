package hashutil_test

import (
	"encoding/hex"
	"testing"

	"github.com/rohmanhakim/status-digest/pkg/hashutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestHashBytes_SHA256(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name:     "empty data",
			data:     []byte{},
			expected: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:     "simple string",
			data:     []byte("hello world"),
			expected: "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:     "longer text",
			data:     []byte("The quick brown fox jumps over the lazy dog"),
			expected: "d7a8fbb307d7809469ca9abcb0082e4f8d5651e46d3cdb762d02d0bf37c9e592",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := hashutil.HashBytes(tt.data, hashutil.HashAlgoSHA256)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestHashBytes_BLAKE3(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty data", data: []byte{}},
		{name: "simple string", data: []byte("hello world")},
		{name: "binary data", data: []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe, 0xfd, 0xfc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := hashutil.HashBytes(tt.data, hashutil.HashAlgoBLAKE3)
			require.NoError(t, err)

			expectedHash := blake3.Sum256(tt.data)
			assert.Equal(t, hex.EncodeToString(expectedHash[:]), result)
		})
	}
}

func TestHashBytes_UnsupportedAlgorithm(t *testing.T) {
	result, err := hashutil.HashBytes([]byte("test data"), "unsupported")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported hash algorithm")
	assert.Empty(t, result)
}

func TestDedupKey_WhitespaceInsensitive(t *testing.T) {
	a := hashutil.DedupKey("Resolved - Elevated error rates")
	b := hashutil.DedupKey("  Resolved -   Elevated\terror rates  ")
	assert.Equal(t, a, b)
}

func TestDedupKey_DistinctTexts(t *testing.T) {
	a := hashutil.DedupKey("Investigating - API latency")
	b := hashutil.DedupKey("Resolved - API latency")
	assert.NotEqual(t, a, b)
}

func TestDedupKey_PreservesLineBoundaries(t *testing.T) {
	// Multi-line blocks with different line breaks must not collapse to the
	// same key, only horizontal whitespace is normalized.
	a := hashutil.DedupKey("line one\nline two")
	b := hashutil.DedupKey("line one line two")
	assert.NotEqual(t, a, b)
}

func TestHashBytes_OutputLength(t *testing.T) {
	data := []byte("test")

	hash256, _ := hashutil.HashBytes(data, hashutil.HashAlgoSHA256)
	assert.Len(t, hash256, 64)

	hashBlake3, _ := hashutil.HashBytes(data, hashutil.HashAlgoBLAKE3)
	assert.Len(t, hashBlake3, 64)
}
