// Package render implements the Render Pipeline (§4.4): the controller-side
// decode dispatch, tile-cache reconstruction, observed-fps accounting, and
// the NET_FEEDBACK emission that closes the adaptive loop.
package render

import (
	"sync"
	"time"

	"github.com/pauloswear/deskstream/internal/imgcodec"
	"github.com/pauloswear/deskstream/internal/logging"
	"github.com/pauloswear/deskstream/internal/protocol"
)

var log = logging.L("render")

const fpsWindowSize = 10

type tileKey struct{ x, y int }

// Pipeline reconstructs frames from decoded payloads and tracks observed
// frame rate.
type Pipeline struct {
	codec imgcodec.Codec

	mu       sync.Mutex
	tiles    map[tileKey]tileBlock
	extentW  int
	extentH  int
	lastRecv time.Time
	fpsWindow []float64
}

type tileBlock struct {
	w, h int
	rgb  []byte
}

// New returns an empty Pipeline.
func New(codec imgcodec.Codec) *Pipeline {
	return &Pipeline{
		codec: codec,
		tiles: make(map[tileKey]tileBlock),
	}
}

// Apply decodes dispatch for one payload (§4.4 Decode dispatch), updates
// fps accounting, and returns the feedback delta to send back (NET_FEEDBACK
// law, §4.5), plus the observed fps for that delta.
func (p *Pipeline) Apply(msg protocol.Payload, fpsTarget int) (delta int, fps float64) {
	p.mu.Lock()
	now := time.Now()
	if !p.lastRecv.IsZero() {
		fps = 1.0 / now.Sub(p.lastRecv).Seconds()
		p.fpsWindow = append(p.fpsWindow, fps)
		if len(p.fpsWindow) > fpsWindowSize {
			p.fpsWindow = p.fpsWindow[len(p.fpsWindow)-fpsWindowSize:]
		}
	}
	p.lastRecv = now
	p.mu.Unlock()

	switch m := msg.(type) {
	case protocol.NoChange:
		// no-op; fps accounting already updated above.
	case protocol.NumpyUpdate:
		p.applyNumpy(m)
	case protocol.TilesUpdate:
		p.applyTiles(m)
	case protocol.DeltaUpdate:
		p.applyDelta(m)
	default:
		log.Warn("unexpected payload type in render dispatch")
	}

	return feedbackDelta(fps, fpsTarget), fps
}

// feedbackDelta implements the NET_FEEDBACK law (§4.5): fps < 0.8·target →
// -10, fps > 1.1·target → +5, else 0. fps == 0 means no prior frame to
// diff against yet, so no feedback is due.
func feedbackDelta(fps float64, fpsTarget int) int {
	if fps == 0 || fpsTarget <= 0 {
		return 0
	}
	target := float64(fpsTarget)
	switch {
	case fps < 0.8*target:
		return -10
	case fps > 1.1*target:
		return 5
	default:
		return 0
	}
}

func (p *Pipeline) applyNumpy(m protocol.NumpyUpdate) {
	data := m.Data
	if m.Compressed {
		inflated, err := imgcodec.Inflate(data)
		if err != nil {
			log.Warn("numpy inflate failed; dropping frame", "error", err)
			return
		}
		data = inflated
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.tiles = map[tileKey]tileBlock{{0, 0}: {w: int(m.Width), h: int(m.Height), rgb: data}}
	p.extentW, p.extentH = int(m.Width), int(m.Height)
}

func (p *Pipeline) applyTiles(m protocol.TilesUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range m.Tiles {
		rgb, w, h, err := p.codec.Decode(t.Data)
		if err != nil {
			log.Warn("tile decode failed; skipping tile", "error", err)
			continue
		}
		key := tileKey{x: int(t.X), y: int(t.Y)}
		p.tiles[key] = tileBlock{w: w, h: h, rgb: rgb}
		if x2 := int(t.X) + w; x2 > p.extentW {
			p.extentW = x2
		}
		if y2 := int(t.Y) + h; y2 > p.extentH {
			p.extentH = y2
		}
	}
}

func (p *Pipeline) applyDelta(m protocol.DeltaUpdate) {
	rgb, w, h, err := p.codec.Decode(m.Data)
	if err != nil {
		log.Warn("delta decode failed; dropping patch", "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// the message's x2,y2 are the sender's bbox; the decoded patch's own
	// extent governs how it blits, so only x1,y1 and w,h matter here.
	p.tiles[tileKey{x: int(m.X1), y: int(m.Y1)}] = tileBlock{w: w, h: h, rgb: rgb}
	if x2 := int(m.X1) + w; x2 > p.extentW {
		p.extentW = x2
	}
	if y2 := int(m.Y1) + h; y2 > p.extentH {
		p.extentH = y2
	}
}

// Reconstruct paints every cached tile onto a black canvas sized to the
// current inferred extent (§4.4 Tile cache).
func (p *Pipeline) Reconstruct() (rgb []byte, w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, h = p.extentW, p.extentH
	if w == 0 || h == 0 {
		return nil, 0, 0
	}

	canvas := make([]byte, w*h*3)
	for key, blk := range p.tiles {
		for row := 0; row < blk.h; row++ {
			srcOff := row * blk.w * 3
			dstY := key.y + row
			if dstY >= h {
				continue
			}
			dstOff := (dstY*w + key.x) * 3
			n := blk.w * 3
			if key.x+blk.w > w {
				n = (w - key.x) * 3
			}
			if n <= 0 {
				continue
			}
			copy(canvas[dstOff:dstOff+n], blk.rgb[srcOff:srcOff+n])
		}
	}
	return canvas, w, h
}

// FPSAverage returns the rolling-window average observed fps.
func (p *Pipeline) FPSAverage() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.fpsWindow) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range p.fpsWindow {
		sum += f
	}
	return sum / float64(len(p.fpsWindow))
}
