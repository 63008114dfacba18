package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/Leowly/TickTock-Tribe/internal/config"
	"github.com/Leowly/TickTock-Tribe/internal/server"
	"github.com/Leowly/TickTock-Tribe/internal/sim"
	"github.com/Leowly/TickTock-Tribe/internal/store"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "LevelDB directory (overrides config)")
	flag.Parse()

	cfg := config.Load(*configPath)
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	st, err := store.Open(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("[ERROR] open store: %v", err)
	}
	defer st.Close()

	ticker := sim.New(
		sim.NoopUpdater{},
		time.Duration(cfg.Time.TickIntervalSecs*float64(time.Second)),
		time.Duration(cfg.Time.InactivityTimeoutSecs*float64(time.Second)),
	)
	defer ticker.Shutdown()

	srv := server.New(cfg, st, ticker)
	log.Printf("ticktock: listening on %s (db: %s)", cfg.Server.Addr, cfg.Server.DBPath)
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Handler()); err != nil {
		log.Fatalf("[ERROR] server: %v", err)
	}
}
