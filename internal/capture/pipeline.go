package capture

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pauloswear/deskstream/internal/adaptive"
	"github.com/pauloswear/deskstream/internal/imgcodec"
	"github.com/pauloswear/deskstream/internal/logging"
	"github.com/pauloswear/deskstream/internal/protocol"
	"github.com/pauloswear/deskstream/internal/state"
)

var log = logging.L("capture")

const (
	resyncInterval = 30 * time.Second
	pollInterval   = time.Millisecond
	deltaAreaLimit = 50_000
)

// Sender is the send half of the transport: enqueue a wire payload.
type Sender func(payload []byte) error

// tileKey is the controllee-side tile cache's grid coordinate.
type tileKey struct{ col, row int }

type tileEntry struct {
	fingerprint uint32
	lastSent    time.Time
}

// Pipeline drives the capture worker (§5 thread #3): a clock-paced loop
// that captures, detects changed tiles against a cache, encodes, and
// sends frame updates.
type Pipeline struct {
	capturer ScreenCapturer
	codec    imgcodec.Codec
	cfg      *state.Config
	adapt    *adaptive.Adaptation
	send     Sender

	inProgress  atomic.Bool
	lastCapture time.Time

	cacheMu   sync.Mutex
	tileCache map[tileKey]tileEntry
	prevRGB   []byte
	prevW     int
	prevH     int

	done     chan struct{}
	stopOnce sync.Once
}

// New constructs a Pipeline. cfg and adapt are explicitly passed shared
// objects (§9 — no process-wide singleton).
func New(capturer ScreenCapturer, codec imgcodec.Codec, cfg *state.Config, adapt *adaptive.Adaptation, send Sender) *Pipeline {
	return &Pipeline{
		capturer:  capturer,
		codec:     codec,
		cfg:       cfg,
		adapt:     adapt,
		send:      send,
		tileCache: make(map[tileKey]tileEntry),
		done:      make(chan struct{}),
	}
}

// Run drives the pacing loop (§4.3 Pacing) until ctx is canceled or Stop is
// called. It sleeps ~1ms between checks rather than blocking on a
// condition, since its wake is time-driven (§5 Suspension points).
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// Stop signals Run to exit on its next wake.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// OnScreenshotRequest handles a SEND_SCREENSHOT hint. Pacing stays
// clock-driven regardless (§4.3 Input request); this is a no-op placeholder
// for that documented behavior.
func (p *Pipeline) OnScreenshotRequest() {
	log.Debug("screenshot request received; pacing remains clock-driven")
}

func (p *Pipeline) tick() {
	period := time.Second / time.Duration(p.cfg.FPS())
	now := time.Now()
	if now.Sub(p.lastCapture) < period {
		return
	}

	if !p.inProgress.CompareAndSwap(false, true) {
		return // prior capture still in progress; skip this tick
	}
	defer p.inProgress.Store(false)

	p.lastCapture = now
	p.captureAndSend()
}

func (p *Pipeline) captureAndSend() {
	scale := p.cfg.Scale()
	fpsTarget := p.cfg.FPS()
	useNumpy := p.cfg.UseNumpy()

	var (
		payload []byte
		err     error
	)

	if useNumpy && scale <= 0.5 && fpsTarget >= 90 {
		payload, err = p.encodeNumpy()
	} else if p.cfg.UseDelta() {
		payload, err = p.encodeDelta()
		if err == nil && payload == nil {
			// bbox exceeded the delta threshold; fall back to tiled.
			payload, err = p.encodeTiles()
		}
	} else {
		payload, err = p.encodeTiles()
	}

	if err != nil {
		log.Warn("capture/encode failed; skipping tick", "error", err)
		return
	}
	if payload == nil {
		return
	}

	if sendErr := p.send(payload); sendErr != nil {
		log.Warn("send failed", "error", sendErr)
	}
}

func (p *Pipeline) grabRGB() (rgb []byte, w, h int, err error) {
	monitor := p.cfg.Monitor()
	monitors, err := p.capturer.Monitors()
	if err != nil {
		log.Warn("capture failed; retrying next tick", "error", err)
		return nil, 0, 0, err
	}
	if monitor < 0 || monitor >= len(monitors) {
		monitor = 0
	}

	w, h, bgra, err := p.capturer.Grab(monitor)
	if err != nil {
		log.Warn("capture failed; retrying next tick", "error", err)
		return nil, 0, 0, err
	}
	return imgcodec.BGRAToRGB(bgra, w, h), w, h, nil
}

// encodeNumpy implements §4.3's raw-pixel (`NUMPY`) encoding.
func (p *Pipeline) encodeNumpy() ([]byte, error) {
	rgb, w, h, err := p.grabRGB()
	if err != nil {
		return nil, nil // capture failure: non-fatal, retry next tick
	}

	scale := p.cfg.Scale()
	if scale < 1 {
		step := maxInt(1, int(1/scale))
		rgb, w, h = imgcodec.Decimate(rgb, w, h, step)
	}

	fpsTarget := p.cfg.FPS()
	compressed := fpsTarget <= 120
	body := rgb
	if compressed {
		body, err = imgcodec.Deflate(rgb, p.cfg.CompressionLevel())
		if err != nil {
			return nil, err
		}
	}

	msg := protocol.NumpyUpdate{
		Height:     uint32(h),
		Width:      uint32(w),
		Channels:   3,
		Compressed: compressed,
		Data:       body,
	}
	return msg.Encode(), nil
}

// encodeTiles implements §4.3's tiled (`TILES`) encoding, including the
// change-detection cache, the 30s resync bound, and the adaptive quality
// formula.
func (p *Pipeline) encodeTiles() ([]byte, error) {
	rgb, w, h, err := p.grabRGB()
	if err != nil {
		return nil, nil
	}

	scale := p.cfg.Scale()
	if scale < 1 {
		rgb, w, h = imgcodec.Resample(rgb, w, h, scale)
	}

	tileSize := p.adapt.TileSize()
	now := time.Now()

	p.cacheMu.Lock()
	p.prevRGB, p.prevW, p.prevH = rgb, w, h
	p.cacheMu.Unlock()

	type pendingTile struct {
		x, y, w, h int
		pixels     []byte
	}
	var pending []pendingTile
	totalTiles := 0

	p.cacheMu.Lock()
	for y := 0; y < h; y += tileSize {
		for x := 0; x < w; x += tileSize {
			totalTiles++
			tw := minInt(tileSize, w-x)
			th := minInt(tileSize, h-y)
			pixels := extractTile(rgb, w, x, y, tw, th)
			fp := fingerprint(pixels)

			key := tileKey{col: x / tileSize, row: y / tileSize}
			prev, ok := p.tileCache[key]
			changed := !ok || prev.fingerprint != fp
			resyncDue := ok && now.Sub(prev.lastSent) > resyncInterval

			if changed || resyncDue {
				p.tileCache[key] = tileEntry{fingerprint: fp, lastSent: now}
				pending = append(pending, pendingTile{x: x, y: y, w: tw, h: th, pixels: pixels})
			}
		}
	}
	p.cacheMu.Unlock()

	if len(pending) == 0 {
		return protocol.NoChange{}.Encode(), nil
	}

	changeRatio := float64(len(pending)) / float64(totalTiles)
	quality := adaptive.Quality(p.cfg.FPS(), changeRatio, p.adapt.Offset())

	tiles := make([]protocol.TileUpdate, 0, len(pending))
	for _, t := range pending {
		encoded, err := p.codec.Encode(t.pixels, t.w, t.h, imgcodec.Options{Quality: quality})
		if err != nil {
			log.Warn("tile encode failed; dropping tile", "error", err)
			continue
		}
		tiles = append(tiles, protocol.TileUpdate{
			X: uint32(t.x), Y: uint32(t.y), W: uint32(t.w), H: uint32(t.h), Data: encoded,
		})
	}

	msg := protocol.TilesUpdate{
		Quality:   uint32(quality),
		FPSTarget: uint32(p.cfg.FPS()),
		Tiles:     tiles,
	}
	return msg.Encode(), nil
}

// encodeDelta implements the optional DELTA path (§4.3, §12 supplement):
// bounding box of the pixel diff against the previous frame; only used
// when its area is below the threshold. Returns nil, nil when the bbox
// exceeds the threshold or there is no previous frame to diff against, so
// the caller falls back to tiled encoding.
func (p *Pipeline) encodeDelta() ([]byte, error) {
	rgb, w, h, err := p.grabRGB()
	if err != nil {
		return nil, nil
	}

	p.cacheMu.Lock()
	prevRGB, prevW, prevH := p.prevRGB, p.prevW, p.prevH
	p.prevRGB, p.prevW, p.prevH = rgb, w, h
	p.cacheMu.Unlock()

	if prevRGB == nil || prevW != w || prevH != h {
		return nil, nil
	}

	x1, y1, x2, y2, any := diffBoundingBox(prevRGB, rgb, w, h)
	if !any {
		return protocol.NoChange{}.Encode(), nil
	}

	area := (x2 - x1) * (y2 - y1)
	if area >= deltaAreaLimit {
		return nil, nil
	}

	patchW, patchH := x2-x1, y2-y1
	patch := extractTile(rgb, w, x1, y1, patchW, patchH)

	quality := adaptive.Quality(p.cfg.FPS(), float64(area)/float64(w*h), p.adapt.Offset())
	encoded, err := p.codec.Encode(patch, patchW, patchH, imgcodec.Options{Quality: quality})
	if err != nil {
		return nil, err
	}

	msg := protocol.DeltaUpdate{X1: uint32(x1), Y1: uint32(y1), X2: uint32(x2), Y2: uint32(y2), Data: encoded}
	return msg.Encode(), nil
}

func extractTile(rgb []byte, stride, x, y, w, h int) []byte {
	out := make([]byte, w*h*3)
	for row := 0; row < h; row++ {
		srcOff := ((y+row)*stride + x) * 3
		dstOff := row * w * 3
		copy(out[dstOff:dstOff+w*3], rgb[srcOff:srcOff+w*3])
	}
	return out
}

func diffBoundingBox(a, b []byte, w, h int) (x1, y1, x2, y2 int, any bool) {
	x1, y1 = w, h
	x2, y2 = 0, 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			if a[i] != b[i] || a[i+1] != b[i+1] || a[i+2] != b[i+2] {
				any = true
				if x < x1 {
					x1 = x
				}
				if y < y1 {
					y1 = y
				}
				if x+1 > x2 {
					x2 = x + 1
				}
				if y+1 > y2 {
					y2 = y + 1
				}
			}
		}
	}
	return x1, y1, x2, y2, any
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
