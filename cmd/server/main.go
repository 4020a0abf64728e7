package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prenatal-phenotype-server/internal/api"
	"github.com/prenatal-phenotype-server/internal/config"
	"github.com/prenatal-phenotype-server/internal/setup"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()

	// Build the evaluation engine
	app, err := setup.NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Close()

	app.Logger.WithField("addr", cfg.Server.Host).
		WithField("port", cfg.Server.Port).
		Info("Starting prenatal phenotype server")

	// Create server
	server, err := api.NewServer(configManager, app.Logger, app.Resolver, app.Registry, app.AuditStore)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	// Start server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	app.Logger.Info("Server stopped")
}
