package imgcodec

import "testing"

func TestJPEGCodecRoundTrip(t *testing.T) {
	w, h := 8, 8
	rgb := make([]byte, w*h*3)
	for i := range rgb {
		rgb[i] = byte(i % 256)
	}

	codec := JPEGCodec{}
	encoded, err := codec.Encode(rgb, w, h, Options{Quality: 90})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, gotW, gotH, err := codec.Decode(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if gotW != w || gotH != h {
		t.Fatalf("extent mismatch: got %dx%d want %dx%d", gotW, gotH, w, h)
	}
	if len(decoded) != len(rgb) {
		t.Fatalf("decoded length mismatch: got %d want %d", len(decoded), len(rgb))
	}
}

func TestDeflateInflateRoundTrip(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}

	compressed, err := Deflate(data, 6)
	if err != nil {
		t.Fatalf("deflate failed: %v", err)
	}
	restored, err := Inflate(compressed)
	if err != nil {
		t.Fatalf("inflate failed: %v", err)
	}
	if len(restored) != len(data) {
		t.Fatalf("length mismatch: got %d want %d", len(restored), len(data))
	}
	for i := range data {
		if restored[i] != data[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, restored[i], data[i])
		}
	}
}

func TestDecimateHalves(t *testing.T) {
	w, h := 4, 4
	rgb := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		rgb[i*3] = byte(i)
	}

	out, nw, nh := Decimate(rgb, w, h, 2)
	if nw != 2 || nh != 2 {
		t.Fatalf("expected 2x2 output, got %dx%d", nw, nh)
	}
	if len(out) != nw*nh*3 {
		t.Fatalf("unexpected output length %d", len(out))
	}
}

func TestResamplePassesThroughAtFullScale(t *testing.T) {
	rgb := []byte{1, 2, 3, 4, 5, 6}
	out, w, h := Resample(rgb, 2, 1, 1.0)
	if w != 2 || h != 1 {
		t.Fatalf("expected passthrough extent 2x1, got %dx%d", w, h)
	}
	if len(out) != len(rgb) {
		t.Fatalf("expected passthrough length, got %d", len(out))
	}
}

func TestResampleShrinksOutputExtent(t *testing.T) {
	w, h := 10, 10
	rgb := make([]byte, w*h*3)
	out, nw, nh := Resample(rgb, w, h, 0.5)
	if nw >= w || nh >= h {
		t.Fatalf("expected smaller extent, got %dx%d from %dx%d", nw, nh, w, h)
	}
	if len(out) != nw*nh*3 {
		t.Fatalf("unexpected output length %d for %dx%d", len(out), nw, nh)
	}
}

func TestBGRAToRGBChannelOrder(t *testing.T) {
	bgra := []byte{10, 20, 30, 255}
	rgb := BGRAToRGB(bgra, 1, 1)
	if rgb[0] != 30 || rgb[1] != 20 || rgb[2] != 10 {
		t.Fatalf("expected channel reorder to RGB, got %v", rgb)
	}
}
