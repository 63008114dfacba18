package gen

import "github.com/Leowly/TickTock-Tribe/internal/core"

const smoothingPasses = 3

// generateHeightField fills a w*h row-major field with uniform draws in [0,1)
// and applies three smoothing passes. Each pass replaces every interior cell
// with the mean of its four orthogonal neighbors from the previous pass;
// border cells keep their original draw. Every output value stays in [0,1].
func generateHeightField(w, h int, rng *core.RNG) []float64 {
	cur := make([]float64, w*h)
	for i := range cur {
		cur[i] = rng.Float64()
	}

	nxt := make([]float64, len(cur))
	for pass := 0; pass < smoothingPasses; pass++ {
		copy(nxt, cur)
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				nxt[y*w+x] = (cur[(y-1)*w+x] +
					cur[(y+1)*w+x] +
					cur[y*w+x-1] +
					cur[y*w+x+1]) * 0.25
			}
		}
		cur, nxt = nxt, cur
	}
	return cur
}
