// Package adaptive tracks the two pieces of state the feedback loop (§4.5)
// folds into the capture pipeline: the accumulated quality feedback offset
// and the current adaptive tile size. Quality itself is computed by a pure
// function of (fps_target, change_ratio, feedback_offset), per the
// determinism the adaptive-quality testable property requires — nothing
// about it is smoothed or hysteretic, unlike the tile-size adjustment.
package adaptive

import "sync"

const (
	minTileSize     = 32
	maxTileSize     = 128
	initialTileSize = 64

	minQuality = 10
	maxQuality = 95

	minOffset = -50
	maxOffset = 50

	fpsWindowSize = 10
)

// Adaptation holds the controllee-side feedback state: the accumulated
// NET_FEEDBACK offset and the rolling window of reported controller fps
// used to adjust tile size.
type Adaptation struct {
	mu        sync.Mutex
	offset    int
	tileSize  int
	fpsWindow []float64
}

// New returns an Adaptation with the initial tile size and zero offset.
func New() *Adaptation {
	return &Adaptation{tileSize: initialTileSize}
}

// Offset returns the current accumulated feedback offset, in [-50, 50].
func (a *Adaptation) Offset() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.offset
}

// TileSize returns the current adaptive tile size, in [32, 128].
func (a *Adaptation) TileSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tileSize
}

// RecordFeedback folds one NET_FEEDBACK message into the adaptation state:
// it accumulates delta into the clamped offset, and updates the rolling fps
// window to possibly halve or double the tile size (§4.5).
func (a *Adaptation) RecordFeedback(delta int, fps float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.offset += delta
	if a.offset < minOffset {
		a.offset = minOffset
	}
	if a.offset > maxOffset {
		a.offset = maxOffset
	}

	a.fpsWindow = append(a.fpsWindow, fps)
	if len(a.fpsWindow) > fpsWindowSize {
		a.fpsWindow = a.fpsWindow[len(a.fpsWindow)-fpsWindowSize:]
	}

	avg := average(a.fpsWindow)
	switch {
	case avg < 30:
		a.tileSize = maxInt(minTileSize, a.tileSize/2)
	case avg > 50:
		a.tileSize = minInt(maxTileSize, a.tileSize*2)
	}
}

// Quality computes the adaptive encoder quality from fps_target, the
// fraction of tiles that changed this update, and the currently
// accumulated feedback offset (§4.3 step 5). It is a pure function: given
// identical inputs it always returns the same result, in [10, 95].
func Quality(fpsTarget int, changeRatio float64, feedbackOffset int) int {
	var q int
	switch {
	case fpsTarget >= 120:
		q = 20
	case fpsTarget >= 60:
		q = 35
	default:
		q = 60
	}

	switch {
	case changeRatio < 0.05:
		q += 30
		if q > maxQuality {
			q = maxQuality
		}
	case changeRatio >= 0.2:
		q -= 15
		if q < minQuality {
			q = minQuality
		}
	}

	q += feedbackOffset
	if q < minQuality {
		q = minQuality
	}
	if q > maxQuality {
		q = maxQuality
	}
	return q
}

func average(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
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
