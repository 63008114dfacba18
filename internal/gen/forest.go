package gen

import "github.com/Leowly/TickTock-Tribe/internal/core"

// growForest seeds forest tiles at random and grows them with a birth-only
// Moore-neighborhood automaton. Cells never revert from forest to plain, so
// the forest count is non-decreasing across iterations.
func growForest(w, h int, p ForestParams, rng *core.RNG) *core.Grid {
	grid := core.NewGrid(w, h)
	cur := grid.Cells()
	for i := range cur {
		if rng.Float64() < p.SeedProb {
			cur[i] = core.TileForest
		}
	}

	nxt := make([]core.Tile, len(cur))
	for iter := 0; iter < p.Iterations; iter++ {
		forestStep(cur, nxt, w, h, p.BirthThreshold)
		cur, nxt = nxt, cur
	}

	// The grid must end up holding the final generation regardless of how the
	// double buffers landed after the last swap.
	if &cur[0] != &grid.Cells()[0] {
		copy(grid.Cells(), cur)
	}
	return grid
}

// forestStep computes one generation into nxt, reading only cur. A plain cell
// becomes forest when its Moore neighborhood holds at least birth forest
// cells; forest cells never revert.
func forestStep(cur, nxt []core.Tile, w, h, birth int) {
	copy(nxt, cur)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if cur[y*w+x] != core.TilePlain {
				continue
			}
			count := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					// Out-of-map neighbors count as not-forest; no wraparound.
					if nx >= 0 && nx < w && ny >= 0 && ny < h && cur[ny*w+nx] == core.TileForest {
						count++
					}
				}
			}
			if count >= birth {
				nxt[y*w+x] = core.TileForest
			}
		}
	}
}
