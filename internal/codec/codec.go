// Package codec compresses asset bytes before they are embedded in
// appliance documents and restores them on the way out. Output is
// self-describing: compressed payloads start with the gzip magic
// marker, so Decompress is safe to call on data that was stored before
// compression existed.
package codec

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Gzip member header, RFC 1952.
var magic = []byte{0x1f, 0x8b}

// Compress gzips b. It never fails on input shape; errors indicate an
// internal write failure.
func Compress(b []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		zw.Close()
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("codec: compress: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates b if it carries the gzip magic marker.
//
// Inputs without the marker are returned unchanged: records written
// before compression was introduced are stored plain, and they must
// keep round-tripping. If the marker is present but the payload does
// not inflate, the original bytes are returned with degraded=true
// instead of an error; callers serve whatever is stored and may log
// the degraded read. Nothing above this package ever sees a
// decompression failure.
func Decompress(b []byte) (data []byte, degraded bool) {
	if !IsCompressed(b) {
		return b, false
	}

	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return b, true
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return b, true
	}

	return out, false
}

// IsCompressed reports whether b starts with the gzip magic marker.
func IsCompressed(b []byte) bool {
	return len(b) >= 2 && b[0] == magic[0] && b[1] == magic[1]
}
