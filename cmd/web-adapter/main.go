package main

import (
	"log"
	"net/http"
	"time"

	"chublink/internal/chub"
	"chublink/internal/config"
	"chublink/internal/delivery"
	"chublink/internal/host"
	"chublink/internal/logger"
	"chublink/internal/middleware"
	"chublink/internal/settings"
)

func main() {
	cfg := config.Get()
	lg := logger.New(cfg.WebAdapter.Debug || cfg.Chub.Debug)

	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		log.Fatalf("failed to open settings store: %v", err)
	}
	defer store.Close()

	client := chub.NewClient(cfg.Chub, lg)
	intake := host.HTTPIntake{
		Client: &http.Client{Timeout: time.Duration(cfg.Host.TimeoutSec) * time.Second},
		URL:    cfg.Host.BaseURL + "/api/characters/import",
		Token:  cfg.Host.Token,
	}
	importer := host.NewImporter(cfg.Host, lg, intake, store)

	srv := &delivery.Server{Log: lg, Client: client, Importer: importer, Store: store}

	mux := http.NewServeMux()
	mux.HandleFunc("/search", srv.Search)
	mux.HandleFunc("/import", srv.Import)
	mux.HandleFunc("/imports", srv.History)
	mux.HandleFunc("/settings", srv.Settings)
	mux.HandleFunc("/health", srv.Health)
	mux.Handle("/metrics", srv.Metrics())

	handler := middleware.Chain(mux, middleware.CORS, middleware.RequestLogger(lg))

	addr := cfg.WebAdapter.Address()
	log.Printf("🌐 Web Adapter started on http://%s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("failed to start web server: %v", err)
	}
}
