// Package config loads the service configuration from a JSON file. A missing
// or partial file falls back to defaults so a bare checkout still runs.
package config

import (
	"encoding/json"
	"log"
	"os"

	"github.com/Leowly/TickTock-Tribe/internal/gen"
)

// World bounds the map dimensions offered to clients.
type World struct {
	DefaultWidth  int `json:"default_width"`
	DefaultHeight int `json:"default_height"`
	MaxWidth      int `json:"max_width"`
	MaxHeight     int `json:"max_height"`
}

// View carries client rendering hints. The server never interprets these; it
// only hands them to the frontend through /api/config.
type View struct {
	TileSize  int `json:"tile_size"`
	MinZoom   int `json:"min_zoom"`
	MaxZoom   int `json:"max_zoom"`
	ChunkSize int `json:"chunk_size"`
}

// Time configures the simulation tick scheduler.
type Time struct {
	TickIntervalSecs      float64 `json:"tick_interval_secs"`
	InactivityTimeoutSecs float64 `json:"inactivity_timeout_secs"`
}

// Server holds process-level settings.
type Server struct {
	Addr   string `json:"addr"`
	DBPath string `json:"db_path"`
}

// Config is the full configuration tree.
type Config struct {
	World  World            `json:"world"`
	Forest gen.ForestParams `json:"forest"`
	Water  gen.WaterParams  `json:"water"`
	View   View             `json:"view"`
	Time   Time             `json:"time"`
	Server Server           `json:"server"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := gen.DefaultConfig()
	return Config{
		World: World{
			DefaultWidth:  1000,
			DefaultHeight: 1000,
			MaxWidth:      2000,
			MaxHeight:     2000,
		},
		Forest: d.Forest,
		Water:  d.Water,
		View: View{
			TileSize:  8,
			MinZoom:   1,
			MaxZoom:   4,
			ChunkSize: 64,
		},
		Time: Time{
			TickIntervalSecs:      1.0,
			InactivityTimeoutSecs: 30.0,
		},
		Server: Server{
			Addr:   ":16151",
			DBPath: "data/worlds",
		},
	}
}

// Load reads the config file at path and overlays it on the defaults. A read
// or parse failure logs a warning and keeps the defaults, matching how the
// original service tolerated a missing config file.
func Load(path string) Config {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[WARNING] config: failed to read %s, using defaults: %v", path, err)
		return cfg
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		log.Printf("[WARNING] config: failed to parse %s, using defaults: %v", path, err)
		return Default()
	}
	return cfg
}
