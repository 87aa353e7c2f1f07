package imgcodec

// BGRAToRGB drops the alpha channel and reorders BGRA → RGB (§4.3 step 2,
// §4.3 NUMPY step 2): "reinterpret as height×width×4; drop alpha and
// reorder to RGB by channel permutation."
func BGRAToRGB(bgra []byte, w, h int) []byte {
	rgb := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		b := bgra[i*4+0]
		g := bgra[i*4+1]
		r := bgra[i*4+2]
		rgb[i*3+0] = r
		rgb[i*3+1] = g
		rgb[i*3+2] = b
	}
	return rgb
}
