// Package server exposes the map service HTTP API: map generation, listing,
// retrieval of the packed tile payload, simulation control and debug stats.
package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Leowly/TickTock-Tribe/internal/codec"
	"github.com/Leowly/TickTock-Tribe/internal/config"
	"github.com/Leowly/TickTock-Tribe/internal/core"
	"github.com/Leowly/TickTock-Tribe/internal/gen"
	"github.com/Leowly/TickTock-Tribe/internal/sim"
	"github.com/Leowly/TickTock-Tribe/internal/store"
)

// Server wires the config, the map store and the tick scheduler behind the
// HTTP API.
type Server struct {
	cfg    config.Config
	store  *store.Store
	ticker *sim.Ticker
}

// New builds a Server around its collaborators.
func New(cfg config.Config, st *store.Store, ticker *sim.Ticker) *Server {
	return &Server{cfg: cfg, store: st, ticker: ticker}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/config", s.handleConfig)
	mux.HandleFunc("GET /api/maps", s.handleListMaps)
	mux.HandleFunc("POST /api/generate_map", s.handleGenerateMap)
	mux.HandleFunc("GET /api/maps/{id}", s.handleGetMap)
	mux.HandleFunc("DELETE /api/maps/{id}", s.handleDeleteMap)
	mux.HandleFunc("POST /api/maps/{id}/start_simulation", s.handleStartSimulation)
	mux.HandleFunc("POST /api/maps/{id}/stop_simulation", s.handleStopSimulation)
	mux.HandleFunc("GET /api/maps/{id}/simulation_status", s.handleSimulationStatus)
	mux.HandleFunc("GET /api/maps/{id}/live", s.handleLive)
	mux.HandleFunc("GET /api/debug/map_stats/{id}", s.handleMapStats)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}

func mapID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"world":  s.cfg.World,
		"forest": s.cfg.Forest,
		"water":  s.cfg.Water,
		"view":   s.cfg.View,
		"time":   s.cfg.Time,
	})
}

func (s *Server) handleListMaps(w http.ResponseWriter, _ *http.Request) {
	maps, err := s.store.List()
	if err != nil {
		log.Printf("[ERROR] server: list maps: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list maps")
		return
	}
	if maps == nil {
		maps = []store.MapMeta{}
	}
	writeJSON(w, http.StatusOK, maps)
}

type worldRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type generateRequest struct {
	Name   string            `json:"name"`
	World  *worldRequest     `json:"world"`
	Forest *gen.ForestParams `json:"forest"`
	Water  *gen.WaterParams  `json:"water"`
	Seed   *int64            `json:"seed"`
}

func (s *Server) handleGenerateMap(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: %v", err)
		return
	}
	switch {
	case req.Name == "":
		writeError(w, http.StatusBadRequest, "missing required parameter: name")
		return
	case req.World == nil:
		writeError(w, http.StatusBadRequest, "missing required parameter: world")
		return
	case req.Forest == nil:
		writeError(w, http.StatusBadRequest, "missing required parameter: forest")
		return
	case req.Water == nil:
		writeError(w, http.StatusBadRequest, "missing required parameter: water")
		return
	}
	if req.World.Width > s.cfg.World.MaxWidth || req.World.Height > s.cfg.World.MaxHeight {
		writeError(w, http.StatusBadRequest, "map size %dx%d exceeds limit %dx%d",
			req.World.Width, req.World.Height, s.cfg.World.MaxWidth, s.cfg.World.MaxHeight)
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	cfg := gen.Config{
		Width:  req.World.Width,
		Height: req.World.Height,
		Seed:   seed,
		Forest: *req.Forest,
		Water:  *req.Water,
	}
	packed, err := gen.GeneratePacked(cfg)
	if err != nil {
		if errors.Is(err, gen.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, "%v", err)
			return
		}
		log.Printf("[ERROR] server: generate map: %v", err)
		writeError(w, http.StatusInternalServerError, "map generation failed")
		return
	}

	id, err := s.store.Put(req.Name, cfg.Width, cfg.Height, packed)
	if err != nil {
		log.Printf("[ERROR] server: save map: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to save new map")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"map_id":  id,
		"name":    req.Name,
	})
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	id, err := mapID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map id")
		return
	}
	meta, err := s.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "map not found")
		return
	}
	if err != nil {
		log.Printf("[ERROR] server: get map %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load map")
		return
	}
	tiles, err := s.store.GetTiles(id)
	if err != nil {
		log.Printf("[ERROR] server: get tiles %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load map tiles")
		return
	}
	s.ticker.Touch(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           id,
		"width":        meta.Width,
		"height":       meta.Height,
		"tiles_base64": base64.StdEncoding.EncodeToString(tiles),
	})
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	id, err := mapID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map id")
		return
	}
	switch err := s.store.Delete(id); {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "map not found")
	case err != nil:
		log.Printf("[ERROR] server: delete map %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to delete map")
	default:
		s.ticker.Stop(id)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

func (s *Server) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	id, err := mapID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map id")
		return
	}
	if _, err := s.store.Get(id); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "map not found")
		return
	} else if err != nil {
		log.Printf("[ERROR] server: start simulation %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load map")
		return
	}
	s.ticker.Start(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Simulation started for map %d", id),
	})
}

func (s *Server) handleStopSimulation(w http.ResponseWriter, r *http.Request) {
	id, err := mapID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map id")
		return
	}
	s.ticker.Stop(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Simulation stopped for map %d", id),
	})
}

func (s *Server) handleSimulationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := mapID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map id")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"map_id":       id,
		"is_running":   s.ticker.Running(id),
		"current_tick": s.ticker.Tick(id),
	})
}

func (s *Server) handleMapStats(w http.ResponseWriter, r *http.Request) {
	id, err := mapID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid map id")
		return
	}
	meta, err := s.store.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "map not found")
		return
	}
	if err != nil {
		log.Printf("[ERROR] server: map stats %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load map")
		return
	}
	packed, err := s.store.GetTiles(id)
	if err != nil {
		log.Printf("[ERROR] server: map stats tiles %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to load map tiles")
		return
	}
	tiles, err := codec.Unpack(packed, meta.Width*meta.Height)
	if err != nil {
		log.Printf("[ERROR] server: map stats unpack %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "stored map data is corrupt")
		return
	}

	stats := make(map[string]int, 8)
	for v := 0; v < 8; v++ {
		stats[strconv.Itoa(v)] = 0
	}
	for _, t := range tiles {
		stats[strconv.Itoa(int(t))]++
	}
	readable := make(map[string]int, 5)
	for v := core.TilePlain; v <= core.TileFarmMature; v++ {
		readable[fmt.Sprintf("%s (%d)", core.TileName(v), v)] = stats[strconv.Itoa(int(v))]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"map_id":         id,
		"width":          meta.Width,
		"height":         meta.Height,
		"total_tiles":    meta.Width * meta.Height,
		"stats":          stats,
		"readable_stats": readable,
	})
}
