// Package imgcodec is the image-codec collaborator named in §6: encoding
// and decoding tile/frame pixel data to and from JPEG, plus the resampling
// and deflate helpers the capture pipeline needs around it. The codec
// primitive itself is stdlib image/jpeg, the only JPEG encoder anywhere in
// this module's source lineage or the rest of its dependency pack (see
// DESIGN.md for why no third-party JPEG library with tunable chroma
// subsampling was available to wire in its place).
package imgcodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// Options controls a single Encode call. Only the quality is adjustable:
// image/jpeg always writes baseline (non-progressive) output with 4:2:0
// chroma subsampling and no Huffman optimization, whatever the quality.
type Options struct {
	Quality int
}

// Codec is the image codec collaborator: encode(pixels, format, options),
// decode(bytes). This module only ever needs JPEG, so format is implicit
// in the concrete type rather than a parameter.
type Codec interface {
	// Encode takes tightly-packed RGB pixels (3 bytes/pixel, no padding)
	// and returns encoded bytes.
	Encode(rgb []byte, w, h int, opts Options) ([]byte, error)
	// Decode returns tightly-packed RGB pixels and the image extent.
	Decode(data []byte) (rgb []byte, w, h int, err error)
}

// JPEGCodec is the default Codec, backed by stdlib image/jpeg.
type JPEGCodec struct{}

func (JPEGCodec) Encode(rgb []byte, w, h int, opts Options) ([]byte, error) {
	if len(rgb) != w*h*3 {
		return nil, fmt.Errorf("imgcodec: rgb buffer size %d does not match %dx%d", len(rgb), w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = rgb[i*3+0]
		img.Pix[i*4+1] = rgb[i*3+1]
		img.Pix[i*4+2] = rgb[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}

	quality := opts.Quality
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imgcodec: jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (JPEGCodec) Decode(data []byte) ([]byte, int, int, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("imgcodec: jpeg decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rgb := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := (y*w + x) * 3
			rgb[i+0] = byte(r >> 8)
			rgb[i+1] = byte(g >> 8)
			rgb[i+2] = byte(b >> 8)
		}
	}
	return rgb, w, h, nil
}
