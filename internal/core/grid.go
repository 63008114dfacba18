package core

// Tile classifies one cell of the world terrain. Values fit in 3 bits; 5-7 are
// structurally valid in the packed encoding but reserved.
type Tile uint8

const (
	TilePlain Tile = iota
	TileForest
	TileWater
	TileFarmUntilled
	TileFarmMature
)

// TileName returns the readable label used by the debug stats endpoint.
func TileName(t Tile) string {
	switch t {
	case TilePlain:
		return "PLAIN"
	case TileForest:
		return "FOREST"
	case TileWater:
		return "WATER"
	case TileFarmUntilled:
		return "FARM_UNTILLED"
	case TileFarmMature:
		return "FARM_MATURE"
	}
	return "RESERVED"
}

// Grid stores a 2D grid of tiles in row-major order.
type Grid struct {
	W, H int
	data []Tile
}

// NewGrid allocates a grid with the given dimensions, all cells TilePlain.
func NewGrid(w, h int) *Grid {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Grid{W: w, H: h, data: make([]Tile, w*h)}
}

// Cells exposes the backing slice so callers can read/write values directly.
func (g *Grid) Cells() []Tile { return g.data }

// Index returns the linear slice index for coordinates (x, y).
func (g *Grid) Index(x, y int) int { return y*g.W + x }

// At returns the tile at (x, y). The caller must pass in-bounds coordinates.
func (g *Grid) At(x, y int) Tile { return g.data[y*g.W+x] }

// Set writes the tile at (x, y). The caller must pass in-bounds coordinates.
func (g *Grid) Set(x, y int, t Tile) { g.data[y*g.W+x] = t }

// InBounds reports whether (x, y) lies inside the grid. Out-of-map neighbors
// are never wrapped or reflected.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.W && y >= 0 && y < g.H
}

// Count returns the number of cells holding the given tile value.
func (g *Grid) Count(t Tile) int {
	n := 0
	for _, v := range g.data {
		if v == t {
			n++
		}
	}
	return n
}
