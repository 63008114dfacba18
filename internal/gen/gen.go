// Package gen builds world maps: a cellular-automaton forest pass, a smoothed
// random height field, and a height-guided stochastic river walk, in that
// order. The packed form of the result is produced by the codec package.
package gen

import (
	"fmt"
	"math"

	"github.com/Leowly/TickTock-Tribe/internal/codec"
	"github.com/Leowly/TickTock-Tribe/internal/core"
)

// ErrInvalidConfig reports a generation parameter outside its documented
// domain. Validation happens before any buffer is allocated.
var ErrInvalidConfig = fmt.Errorf("gen: invalid config")

// Guards against buffer-size arithmetic overflow, not a gameplay limit. The
// UI-facing cap (2000x2000) is enforced by the calling layer.
const (
	maxDimension = 1 << 20
	maxCells     = 1 << 28
)

// ForestParams holds the tunables for the forest growth automaton.
type ForestParams struct {
	SeedProb       float64 `json:"seed_prob"`
	Iterations     int     `json:"iterations"`
	BirthThreshold int     `json:"birth_threshold"`
}

// WaterParams holds the tunables for river carving. TurnProb is unused by the
// height-scored walk but kept so stored configs and API payloads round-trip.
type WaterParams struct {
	Density         float64 `json:"density"`
	TurnProb        float64 `json:"turn_prob"`
	StopProb        float64 `json:"stop_prob"`
	HeightInfluence float64 `json:"height_influence"`
}

// Config fully describes one generation call.
type Config struct {
	Width  int
	Height int
	Seed   int64

	Forest ForestParams
	Water  WaterParams
}

// DefaultConfig returns the standard tuning for a mid-size map.
func DefaultConfig() Config {
	return Config{
		Width:  1000,
		Height: 1000,
		Seed:   1337,
		Forest: ForestParams{
			SeedProb:       0.28,
			Iterations:     4,
			BirthThreshold: 5,
		},
		Water: WaterParams{
			Density:         0.001,
			TurnProb:        0.1,
			StopProb:        0.05,
			HeightInfluence: 5.0,
		},
	}
}

// Validate checks every parameter domain from the generation contract.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Width > maxDimension || c.Height > maxDimension || c.Width*c.Height > maxCells {
		return fmt.Errorf("%w: dimensions %dx%d exceed the supported map size", ErrInvalidConfig, c.Width, c.Height)
	}
	if err := probability("forest.seed_prob", c.Forest.SeedProb); err != nil {
		return err
	}
	if c.Forest.Iterations < 0 {
		return fmt.Errorf("%w: forest.iterations must be non-negative, got %d", ErrInvalidConfig, c.Forest.Iterations)
	}
	if c.Forest.BirthThreshold < 0 || c.Forest.BirthThreshold > 8 {
		return fmt.Errorf("%w: forest.birth_threshold must be in 0..8, got %d", ErrInvalidConfig, c.Forest.BirthThreshold)
	}
	if err := probability("water.density", c.Water.Density); err != nil {
		return err
	}
	if err := probability("water.turn_prob", c.Water.TurnProb); err != nil {
		return err
	}
	if err := probability("water.stop_prob", c.Water.StopProb); err != nil {
		return err
	}
	if math.IsNaN(c.Water.HeightInfluence) || math.IsInf(c.Water.HeightInfluence, 0) {
		return fmt.Errorf("%w: water.height_influence must be finite", ErrInvalidConfig)
	}
	return nil
}

func probability(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalidConfig, name, v)
	}
	return nil
}

// Generate runs the full pipeline and returns the finished grid. The grid is
// owned by the caller; no internal buffer aliases it. A failure in any stage
// aborts the whole pipeline without returning a partial grid.
func Generate(cfg Config) (*core.Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := core.NewRNG(cfg.Seed)

	grid := growForest(cfg.Width, cfg.Height, cfg.Forest, rng)
	heights := generateHeightField(cfg.Width, cfg.Height, rng)
	carveRivers(grid, heights, cfg.Water, rng)
	return grid, nil
}

// GeneratePacked runs the pipeline and packs the result. The returned buffer
// has length codec.PackedLen(width*height) and is never mutated afterwards.
func GeneratePacked(cfg Config) ([]byte, error) {
	grid, err := Generate(cfg)
	if err != nil {
		return nil, err
	}
	return codec.Pack(grid.Cells()), nil
}
