package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Leowly/TickTock-Tribe/internal/codec"
	"github.com/Leowly/TickTock-Tribe/internal/core"
	"github.com/Leowly/TickTock-Tribe/internal/gen"
)

// mapgen generates one map offline and prints its tile histogram, for tuning
// generation parameters without running the server.
func main() {
	cfg := gen.DefaultConfig()
	flag.IntVar(&cfg.Width, "w", 256, "map width")
	flag.IntVar(&cfg.Height, "h", 256, "map height")
	flag.Int64Var(&cfg.Seed, "seed", 0, "RNG seed (0 = time-based)")
	flag.Float64Var(&cfg.Forest.SeedProb, "forest-seed-prob", cfg.Forest.SeedProb, "forest seeding probability")
	flag.IntVar(&cfg.Forest.Iterations, "forest-iterations", cfg.Forest.Iterations, "forest growth iterations")
	flag.IntVar(&cfg.Forest.BirthThreshold, "forest-birth", cfg.Forest.BirthThreshold, "forest birth threshold (0-8)")
	flag.Float64Var(&cfg.Water.Density, "water-density", cfg.Water.Density, "water source density")
	flag.Float64Var(&cfg.Water.StopProb, "water-stop-prob", cfg.Water.StopProb, "river stop probability per step")
	flag.Float64Var(&cfg.Water.HeightInfluence, "water-height-influence", cfg.Water.HeightInfluence, "terrain slope influence on flow")
	out := flag.String("o", "", "write the packed buffer to this file")
	flag.Parse()

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	grid, err := gen.Generate(cfg)
	if err != nil {
		log.Fatalf("[ERROR] generate: %v", err)
	}

	total := cfg.Width * cfg.Height
	fmt.Printf("map %dx%d seed=%d (%d tiles)\n", cfg.Width, cfg.Height, cfg.Seed, total)
	for t := core.TilePlain; t <= core.TileFarmMature; t++ {
		n := grid.Count(t)
		fmt.Printf("  %-14s %8d  (%5.2f%%)\n", core.TileName(t), n, 100*float64(n)/float64(total))
	}

	if *out != "" {
		packed := codec.Pack(grid.Cells())
		if err := os.WriteFile(*out, packed, 0o644); err != nil {
			log.Fatalf("[ERROR] write %s: %v", *out, err)
		}
		fmt.Printf("wrote %d packed bytes to %s\n", len(packed), *out)
	}
}
