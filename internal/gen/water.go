package gen

import (
	"math"

	"github.com/Leowly/TickTock-Tribe/internal/core"
)

// carveRivers mutates the grid in place, marking water tiles. Each source
// spawns two branches that walk outward, preferring lower terrain in the
// height field. A source landing on an existing water tile is skipped rather
// than retried, so fewer than numSources rivers may exist.
func carveRivers(grid *core.Grid, heights []float64, p WaterParams, rng *core.RNG) {
	w, h := grid.W, grid.H
	numSources := int(math.Round(float64(w*h) * p.Density))
	if numSources < 1 {
		numSources = 1
	}

	for i := 0; i < numSources; i++ {
		sx := rng.IntN(w)
		sy := rng.IntN(h)
		if grid.At(sx, sy) == core.TileWater {
			continue
		}
		grid.Set(sx, sy, core.TileWater)

		dirs := [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
		rng.Shuffle(len(dirs), func(a, b int) {
			dirs[a], dirs[b] = dirs[b], dirs[a]
		})

		// The first two shuffled directions seed two independent branches, so
		// they usually diverge from the source.
		for b := 0; b < 2; b++ {
			flowBranch(grid, heights, p, rng, sx, sy, dirs[b][0], dirs[b][1])
		}
	}
}

// flowBranch walks from (cx, cy) until the stop draw fires or every candidate
// step leaves the map. Candidates are straight, left and right of the current
// direction; reversing is never considered.
func flowBranch(grid *core.Grid, heights []float64, p WaterParams, rng *core.RNG, cx, cy, dx, dy int) {
	w := grid.W
	for {
		if rng.Float64() < p.StopProb {
			return
		}

		candidates := [3][2]int{
			{dx, dy},
			{-dy, dx},
			{dy, -dx},
		}

		bestScore := math.Inf(-1)
		bestDx, bestDy := 0, 0
		found := false
		for _, c := range candidates {
			nx, ny := cx+c[0], cy+c[1]
			if !grid.InBounds(nx, ny) {
				continue
			}
			drop := heights[cy*w+cx] - heights[ny*w+nx]
			score := 1.0 + drop*p.HeightInfluence + (rng.Float64()-0.5)*0.2
			if score > bestScore {
				bestScore = score
				bestDx, bestDy = c[0], c[1]
				found = true
			}
		}
		if !found {
			return
		}

		dx, dy = bestDx, bestDy
		cx += dx
		cy += dy
		grid.Set(cx, cy, core.TileWater)
	}
}
