package imgcodec

import (
	"image"

	"golang.org/x/image/draw"
)

// Resample scales tightly-packed RGB pixels by factor using a high-quality
// resampler (§4.3 step 1: "LANCZOS-class" for tiled mode). No example
// anywhere in this module's source lineage implements a true Lanczos
// filter; golang.org/x/image/draw's CatmullRom kernel is the closest
// high-quality resampler available in the dependency pack and is used here
// as a documented substitution (see DESIGN.md). factor >= 1 returns the
// input unchanged.
func Resample(rgb []byte, w, h int, factor float64) (out []byte, nw, nh int) {
	if factor >= 1 {
		return rgb, w, h
	}

	nw = maxInt(1, int(float64(w)*factor))
	nh = maxInt(1, int(float64(h)*factor))

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		src.Pix[i*4+0] = rgb[i*3+0]
		src.Pix[i*4+1] = rgb[i*3+1]
		src.Pix[i*4+2] = rgb[i*3+2]
		src.Pix[i*4+3] = 0xFF
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out = make([]byte, nw*nh*3)
	for i := 0; i < nw*nh; i++ {
		out[i*3+0] = dst.Pix[i*4+0]
		out[i*3+1] = dst.Pix[i*4+1]
		out[i*3+2] = dst.Pix[i*4+2]
	}
	return out, nw, nh
}

// Decimate performs the integer-step slicing raw (NUMPY) mode uses instead
// of a proper resampler (§4.3 step 3, §9 "Scale decimation" — this path
// must stay confined to NUMPY; tiled mode always uses Resample).
func Decimate(rgb []byte, w, h, step int) (out []byte, nw, nh int) {
	if step < 1 {
		step = 1
	}
	nw = (w + step - 1) / step
	nh = (h + step - 1) / step
	out = make([]byte, 0, nw*nh*3)
	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			i := (y*w + x) * 3
			out = append(out, rgb[i], rgb[i+1], rgb[i+2])
		}
	}
	return out, nw, nh
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
