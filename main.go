// streamhub aggregates live TV channels and sports matches from
// heterogeneous upstream sources into one catalog and relays their HLS
// streams through a rewriting proxy.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamhub/work/cache"
	"streamhub/work/catalog"
	"streamhub/work/client"
	"streamhub/work/config"
	"streamhub/work/database"
	"streamhub/work/fetcher"
	"streamhub/work/handlers"
	"streamhub/work/logger"
	"streamhub/work/middleware"
	"streamhub/work/relay"
	"streamhub/work/validate"
)

func main() {
	configPath := os.Getenv("STREAMHUB_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.CreateExampleConfig(configPath); err != nil {
			logger.Error("{main} Could not write example config to %s: %v", configPath, err)
			os.Exit(1)
		}
		logger.Info("{main} Wrote example config to %s, edit it and restart", configPath)
	}

	cfg := config.LoadConfig(configPath)
	logger.SetLevel(cfg.LogLevel)
	logger.Info("{main} Starting streamhub on %s (log level %s)", cfg.ListenAddr, logger.GetLevel())

	var db *database.DB
	if cfg.DatabasePath != "" {
		var err error
		db, err = database.Open(cfg.DatabasePath)
		if err != nil {
			logger.Error("{main} Database open failed: %v", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	fetchClient := client.NewFetchClient(cfg)
	relayClient := client.NewRelayClient(cfg)
	sessionCache := cache.New(cfg.SessionTTL, cfg.PlaylistCacheTTL)

	validator, err := validate.New(cfg, fetchClient)
	if err != nil {
		logger.Error("{main} Validator pool init failed: %v", err)
		os.Exit(1)
	}
	defer validator.Close()

	registry := fetcher.Build(cfg, fetchClient)
	cat := catalog.New(cfg, registry, validator, db)
	cat.WarmStart()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// First refresh runs detached so a slow upstream never delays
	// binding the listener; a warm-started snapshot serves meanwhile.
	go cat.RefreshAll(ctx)
	cat.Start(ctx)

	h := handlers.New(cfg, cat)
	streamRelay := relay.New(cfg, relayClient, sessionCache, cat)

	router := mux.NewRouter()
	router.Handle("/stream", streamRelay).Methods(http.MethodGet)
	router.HandleFunc("/update", h.HandleUpdate).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.Gzip)
	api.HandleFunc("/tv", h.HandleTV).Methods(http.MethodGet)
	api.HandleFunc("/matches", h.HandleMatches).Methods(http.MethodGet)
	api.HandleFunc("/play/{kind}/{key}", h.HandlePlay).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// No write timeout: relay responses stream for the length of a
		// playback session.
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("{main} Shutdown signal received")
	case err := <-errCh:
		logger.Error("{main} Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("{main} Graceful shutdown incomplete: %v", err)
	}
	logger.Info("{main} Stopped")
}
