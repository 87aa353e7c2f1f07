package capture

import (
	"sync"
	"testing"

	"github.com/pauloswear/deskstream/internal/adaptive"
	"github.com/pauloswear/deskstream/internal/imgcodec"
	"github.com/pauloswear/deskstream/internal/state"
)

func newTestPipeline(t *testing.T) (*Pipeline, *syntheticCapturer, *[][]byte) {
	t.Helper()
	capturer := newSyntheticCapturer(DefaultConfig())
	cfg := state.New()
	adapt := adaptive.New()

	var mu sync.Mutex
	var sent [][]byte
	send := func(payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, payload)
		return nil
	}

	p := New(capturer, imgcodec.JPEGCodec{}, cfg, adapt, send)
	return p, capturer, &sent
}

func TestTilesEncodingEmitsOnFirstCaptureAndNoChangeWhenFrozen(t *testing.T) {
	p, capturer, _ := newTestPipeline(t)
	capturer.Freeze()

	first, err := p.encodeTiles()
	if err != nil {
		t.Fatalf("encodeTiles: %v", err)
	}
	if first == nil {
		t.Fatal("expected a payload on first capture")
	}

	second, err := p.encodeTiles()
	if err != nil {
		t.Fatalf("encodeTiles: %v", err)
	}
	want := []byte("NO_CHANGE")
	if string(second) != string(want) {
		t.Fatalf("expected NO_CHANGE on second identical capture, got %d bytes tagged %q", len(second), second[:minInt(len(second), 16)])
	}
}

func TestTilesEncodingDetectsChangeWhenUnfrozen(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	first, err := p.encodeTiles()
	if err != nil {
		t.Fatalf("encodeTiles: %v", err)
	}
	if first == nil {
		t.Fatal("expected a payload on first capture")
	}

	second, err := p.encodeTiles()
	if err != nil {
		t.Fatalf("encodeTiles: %v", err)
	}
	if string(second) == "NO_CHANGE" {
		t.Fatal("expected a tile update since the synthetic pattern advances between grabs")
	}
}

func TestEncodeNumpyProducesHeaderedPayload(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	p.cfg.Set(state.KeyScale, 0.25)
	p.cfg.Set(state.KeyFPS, float64(90))

	payload, err := p.encodeNumpy()
	if err != nil {
		t.Fatalf("encodeNumpy: %v", err)
	}
	if len(payload) < 5 {
		t.Fatalf("payload too short: %d", len(payload))
	}
	if string(payload[:5]) != "NUMPY" {
		t.Fatalf("expected NUMPY tag, got %q", payload[:5])
	}
}

func TestEncodeDeltaFallsBackWithoutPreviousFrame(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	payload, err := p.encodeDelta()
	if err != nil {
		t.Fatalf("encodeDelta: %v", err)
	}
	if payload != nil {
		t.Fatal("expected nil payload (fallback to tiled) with no previous frame cached")
	}
}

func TestDiffBoundingBoxFindsChangedRegion(t *testing.T) {
	w, h := 4, 4
	a := make([]byte, w*h*3)
	b := make([]byte, w*h*3)
	copy(b, a)
	b[(1*w+2)*3] = 0xFF // pixel (2,1) changes red channel

	x1, y1, x2, y2, any := diffBoundingBox(a, b, w, h)
	if !any {
		t.Fatal("expected a diff to be detected")
	}
	if x1 != 2 || y1 != 1 || x2 != 3 || y2 != 2 {
		t.Fatalf("unexpected bbox: (%d,%d)-(%d,%d)", x1, y1, x2, y2)
	}
}

func TestExtractTileCopiesCorrectRegion(t *testing.T) {
	w := 4
	rgb := make([]byte, w*4*3)
	for i := range rgb {
		rgb[i] = byte(i)
	}
	tile := extractTile(rgb, w, 1, 1, 2, 2)
	if len(tile) != 2*2*3 {
		t.Fatalf("unexpected tile length %d", len(tile))
	}
}
