// Package main provides the entry point for the catalog service.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/mybookshelf/catalog/internal/config"
	"github.com/mybookshelf/catalog/internal/di"
	"github.com/mybookshelf/catalog/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Bootstrap all services
	if err := di.Bootstrap(injector, cfg.App.Reindex); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap catalog: %v\n", err)
		_ = injector.Shutdown()
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down catalog gracefully...")

	// The DI container shuts services down in reverse dependency order:
	// diagnostics, coordinator, journal, search index, store.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Catalog stopped")
}
