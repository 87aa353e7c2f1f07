package render

import (
	"testing"
	"time"

	"github.com/pauloswear/deskstream/internal/imgcodec"
	"github.com/pauloswear/deskstream/internal/protocol"
)

func TestApplyTilesReconstructsCanvas(t *testing.T) {
	codec := imgcodec.JPEGCodec{}
	p := New(codec)

	tileW, tileH := 4, 4
	pixels := make([]byte, tileW*tileH*3)
	for i := range pixels {
		pixels[i] = 0x80
	}
	encoded, err := codec.Encode(pixels, tileW, tileH, imgcodec.Options{Quality: 80})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	msg := protocol.TilesUpdate{
		Quality:   80,
		FPSTarget: 60,
		Tiles: []protocol.TileUpdate{
			{X: 0, Y: 0, W: uint32(tileW), H: uint32(tileH), Data: encoded},
		},
	}

	p.Apply(msg, 60)
	rgb, w, h := p.Reconstruct()
	if w != tileW || h != tileH {
		t.Fatalf("expected extent %dx%d, got %dx%d", tileW, tileH, w, h)
	}
	if len(rgb) != tileW*tileH*3 {
		t.Fatalf("unexpected canvas length %d", len(rgb))
	}
}

func TestApplyNoChangeDoesNotAlterExtent(t *testing.T) {
	p := New(imgcodec.JPEGCodec{})
	delta, _ := p.Apply(protocol.NoChange{}, 60)
	if delta != 0 {
		t.Fatalf("expected zero feedback on first update, got %d", delta)
	}
	if _, w, h := p.Reconstruct(); w != 0 || h != 0 {
		t.Fatalf("expected NO_CHANGE to leave the extent at 0x0, got %dx%d", w, h)
	}
}

func TestFeedbackDeltaLaw(t *testing.T) {
	cases := []struct {
		fps    float64
		target int
		want   int
	}{
		{fps: 10, target: 60, want: -10},  // well below 0.8*60=48
		{fps: 70, target: 60, want: 5},    // above 1.1*60=66
		{fps: 60, target: 60, want: 0},
		{fps: 0, target: 60, want: 0},
	}
	for _, c := range cases {
		got := feedbackDelta(c.fps, c.target)
		if got != c.want {
			t.Errorf("feedbackDelta(%v, %v) = %d, want %d", c.fps, c.target, got, c.want)
		}
	}
}

func TestLetterboxToRelativeWidescreenSource(t *testing.T) {
	lb := NewLetterbox(1600, 900, 800, 800) // wider source than square display
	if lb.ContentW != 800 {
		t.Fatalf("expected full-width content, got %d", lb.ContentW)
	}
	if lb.OffsetY <= 0 {
		t.Fatalf("expected vertical letterbox bars, got offsetY=%d", lb.OffsetY)
	}

	rx, ry := lb.ToRelative(lb.OffsetX, lb.OffsetY)
	if rx != 0 || ry != 0 {
		t.Fatalf("expected top-left corner of content to map to (0,0), got (%v,%v)", rx, ry)
	}
}

func TestToSourcePixelRoundTrip(t *testing.T) {
	x, y := ToSourcePixel(0.5, 0.5, 1920, 1080)
	if x != 960 || y != 540 {
		t.Fatalf("expected (960,540), got (%d,%d)", x, y)
	}
}

func TestAllowMoveThrottles(t *testing.T) {
	c := NewInputCapture()
	base := time.Now()

	if !c.AllowMove(base) {
		t.Fatal("expected the first MoveMouse to always be allowed")
	}
	if c.AllowMove(base.Add(time.Millisecond)) {
		t.Fatal("expected a move within the throttle window to be rejected")
	}
	if !c.AllowMove(base.Add(11 * time.Millisecond)) {
		t.Fatal("expected a move past the throttle window to be allowed")
	}
}
