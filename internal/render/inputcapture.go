package render

import (
	"sync"
	"time"
)

const moveMouseThrottle = 10 * time.Millisecond

// InputCapture converts raw pointer events on the displayed surface into
// the relative (0..1) coordinates the wire protocol carries, accounting
// for aspect-ratio letterboxing, and throttles MoveMouse emission to at
// most once every 10ms (§4.4 Input capture). Button and key events are
// never throttled.
type InputCapture struct {
	mu          sync.Mutex
	lastMove    time.Time
	everEmitted bool
}

// NewInputCapture returns a ready InputCapture.
func NewInputCapture() *InputCapture {
	return &InputCapture{}
}

// Letterbox describes how a source frame of size (Sw,Sh) is fit into a
// display surface of size (Dw,Dh): the source is scaled uniformly and
// centered, producing bars of (OffsetX,OffsetY) on the shorter axis.
type Letterbox struct {
	Sw, Sh   int
	Dw, Dh   int
	OffsetX  int
	OffsetY  int
	ContentW int
	ContentH int
}

// NewLetterbox computes the letterbox geometry for fitting a source frame
// into a display surface, preserving aspect ratio.
func NewLetterbox(sw, sh, dw, dh int) Letterbox {
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return Letterbox{Sw: sw, Sh: sh, Dw: dw, Dh: dh}
	}

	srcAspect := float64(sw) / float64(sh)
	dstAspect := float64(dw) / float64(dh)

	var contentW, contentH int
	if srcAspect > dstAspect {
		contentW = dw
		contentH = int(float64(dw) / srcAspect)
	} else {
		contentH = dh
		contentW = int(float64(dh) * srcAspect)
	}

	return Letterbox{
		Sw: sw, Sh: sh, Dw: dw, Dh: dh,
		OffsetX:  (dw - contentW) / 2,
		OffsetY:  (dh - contentH) / 2,
		ContentW: contentW,
		ContentH: contentH,
	}
}

// ToRelative converts a displayed-pixel pointer position to the protocol's
// relative (0..1) coordinates, per §3's "coordinates rx,ry are relative
// (0..1) to the displayed frame". Points inside the letterbox bars clamp
// to the nearest edge.
func (l Letterbox) ToRelative(px, py int) (rx, ry float64) {
	if l.ContentW <= 0 || l.ContentH <= 0 {
		return 0, 0
	}
	x := px - l.OffsetX
	y := py - l.OffsetY
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > l.ContentW {
		x = l.ContentW
	}
	if y > l.ContentH {
		y = l.ContentH
	}
	return float64(x) / float64(l.ContentW), float64(y) / float64(l.ContentH)
}

// ToSourcePixel converts relative (0..1) coordinates back to an absolute
// source-frame pixel position — the injected position computed on the
// controllee side: round(u/Dw·Sw), round(v/Dh·Sh) (§8 Input coordinate
// round-trip).
func ToSourcePixel(rx, ry float64, sw, sh int) (x, y int) {
	x = int(rx*float64(sw) + 0.5)
	y = int(ry*float64(sh) + 0.5)
	return x, y
}

// AllowMove reports whether a MoveMouse event may be emitted now, and
// records the emission if so. The very first call always allows (§8
// scenario 4: "10 ms throttle plus one leading event").
func (c *InputCapture) AllowMove(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.everEmitted || now.Sub(c.lastMove) >= moveMouseThrottle {
		c.everEmitted = true
		c.lastMove = now
		return true
	}
	return false
}
