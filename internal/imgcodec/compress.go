package imgcodec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Deflate compresses data at the given level (1-9, per the
// compression_level configuration key). klauspost/compress/flate is a
// faster drop-in replacement for stdlib compress/flate.
func Deflate(data []byte, level int) ([]byte, error) {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("imgcodec: deflate writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("imgcodec: deflate write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("imgcodec: deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

// Inflate reverses Deflate.
func Inflate(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("imgcodec: inflate: %w", err)
	}
	return out, nil
}
