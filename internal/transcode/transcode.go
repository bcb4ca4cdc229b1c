// Package transcode packs prompt documents for transport over channels that
// mangle raw JSON: gzip then base64.
package transcode

import (
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

// Encode writes data to w as base64-wrapped gzip.
func Encode(w io.Writer, data []byte) error {
	b64 := base64.NewEncoder(base64.StdEncoding, w)
	gz := gzip.NewWriter(b64)
	if _, err := gz.Write(data); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	if err := b64.Close(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Decode reverses Encode.
func Decode(r io.Reader) ([]byte, error) {
	gz, err := gzip.NewReader(base64.NewDecoder(base64.StdEncoding, r))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return data, nil
}
