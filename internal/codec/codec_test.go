package codec

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"small text", []byte("hello appliance vault")},
		{"binary with nulls", []byte{0x00, 0x01, 0x02, 0x00, 0xff}},
		{"repetitive", bytes.Repeat([]byte("receipt"), 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(tt.data)
			require.NoError(t, err)
			assert.True(t, IsCompressed(compressed), "output must carry the magic marker")

			out, degraded := Decompress(compressed)
			assert.False(t, degraded)
			assert.Equal(t, tt.data, out)
		})
	}
}

func TestCompressLargeRandomBuffer(t *testing.T) {
	data := make([]byte, 1<<20)
	_, err := rand.Read(data)
	require.NoError(t, err)

	compressed, err := Compress(data)
	require.NoError(t, err)

	out, degraded := Decompress(compressed)
	assert.False(t, degraded)
	require.Equal(t, len(data), len(out), "decompression must restore the original byte length")
	assert.Equal(t, data, out)
}

func TestDecompressPassesThroughPlainData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"nil", nil},
		{"empty", []byte{}},
		{"single byte", []byte{0x1f}},
		{"plain text", []byte("never compressed")},
		{"jpeg header", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}},
		{"pdf header", []byte("%PDF-1.4 legacy receipt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, degraded := Decompress(tt.data)
			assert.False(t, degraded)
			assert.Equal(t, []byte(tt.data), []byte(out), "non-compressed input must come back unchanged")
		})
	}
}

func TestDecompressCorruptPayloadReturnsOriginal(t *testing.T) {
	compressed, err := Compress([]byte("0123456789"))
	require.NoError(t, err)

	// Corrupt an interior byte past the header.
	corrupt := bytes.Clone(compressed)
	corrupt[len(corrupt)/2] ^= 0xff

	out, degraded := Decompress(corrupt)
	assert.True(t, degraded)
	assert.Equal(t, corrupt, out, "corrupt payload comes back as stored, never as an error")
}

func TestDecompressTruncatedPayloadReturnsOriginal(t *testing.T) {
	compressed, err := Compress(bytes.Repeat([]byte("x"), 1000))
	require.NoError(t, err)

	truncated := compressed[:4]

	out, degraded := Decompress(truncated)
	assert.True(t, degraded)
	assert.Equal(t, truncated, out)
}

func TestIsCompressed(t *testing.T) {
	compressed, err := Compress([]byte("a"))
	require.NoError(t, err)

	assert.True(t, IsCompressed(compressed))
	assert.False(t, IsCompressed([]byte("plain")))
	assert.False(t, IsCompressed(nil))
	assert.False(t, IsCompressed([]byte{0x1f}))
}
