package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"g2-yoyodex/internal/bootstrap"
	"g2-yoyodex/internal/config"
	"g2-yoyodex/internal/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	mode := "development"
	if cfg.App.IsProduction() {
		mode = "production"
	}
	log, err := logger.New(mode, cfg.App.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting yoyodex api", "version", cfg.App.Version, "env", cfg.App.Environment, "store", cfg.Cache.Type)

	app, err := bootstrap.Open(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize", "error", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Serve the cached catalog at once, then keep it fresh in the background
	go app.Engine.Run(ctx, cfg.Catalog.RefreshInterval)
	app.Cleanup.Start()

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "addr", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}
	if err := app.Close(); err != nil {
		log.Error("store close error", "error", err)
	}

	log.Info("server stopped")
}
