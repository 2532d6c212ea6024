/*
Package main is the entry point for the partyrelay server.

It loads configuration, initializes the global logging system, wires the
directory, history store, optional file storage, and relay hub together,
sets up the HTTP server, and handles operating system interrupt signals
(SIGINT, SIGTERM) for a graceful shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"partyrelay/internal/app/directory"
	"partyrelay/internal/app/history"
	"partyrelay/internal/app/relay"
	"partyrelay/internal/app/storage"
	"partyrelay/internal/configs"
	"partyrelay/internal/handler"
	"partyrelay/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("storage_enabled", cfg.StorageEnabled()).
		Bool("postgres_history", cfg.DatabaseDSN != "").
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Message retention: Postgres when configured, bounded memory otherwise.
	var hist history.Store
	if cfg.DatabaseDSN != "" {
		pool, err := history.NewPool(cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to initialize message retention database")
		}
		defer pool.Close()

		hist = history.NewPostgresStore(pool)
	} else {
		hist = history.NewMemoryStore(cfg.HistoryPerRoom)
	}

	// File storage backend for presigned transfers, when configured.
	var store storage.Service
	if cfg.StorageEnabled() {
		store, err = storage.NewService(storage.ServiceConfig{
			S3BucketName:      cfg.S3BucketName,
			S3Endpoint:        cfg.S3Endpoint,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize file storage backend")
		}
	}

	dir := directory.New()
	hub := relay.NewHub(dir, hist)

	router := handler.Router(&handler.AppDeps{
		Hub:       hub,
		Directory: dir,
		History:   hist,
		Storage:   store,
		Config:    cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Relay server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for the interrupt signal, then shut down with a timeout.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
