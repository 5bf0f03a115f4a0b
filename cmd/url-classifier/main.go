package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/dataset"
	"github.com/harees/url-classifier/internal/di"
	"github.com/harees/url-classifier/internal/ports"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (searches default locations if not specified)")
	flag.Parse()

	// A missing .env file is fine
	_ = godotenv.Load()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	filters []ports.URLFilter,
	watcher *dataset.Watcher,
	cacheRepo core.CacheRepository,
	history core.HistoryRepository,
) error {
	defer logger.Sync()

	datasetCfg, err := cfg.GetDataset()
	if err != nil {
		return err
	}
	if datasetCfg.Watch {
		if err := watcher.Start(); err != nil {
			// SIGHUP still reloads
			logger.Warn("Dataset watcher unavailable", zap.Error(err))
		}
	}

	started := make([]ports.URLFilter, 0, len(filters))
	for _, f := range filters {
		if err := f.Start(); err != nil {
			logger.Error("Failed to start filter", zap.Error(err))
			stopAll(logger, started)
			return err
		}
		started = append(started, f)
	}
	logger.Info("URL classifier running", zap.Strings("filters", cfg.GetFilters()))

	// Handle reloads and graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			logger.Info("Received SIGHUP, reloading dataset")
			_ = watcher.Reload()
			continue
		}
		break
	}
	signal.Stop(sigCh)
	logger.Info("Shutting down...")

	stopAll(logger, started)
	watcher.Stop()

	// Stop the cache and history if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if stopper, ok := history.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}

func stopAll(logger *zap.Logger, filters []ports.URLFilter) {
	for _, f := range filters {
		if err := f.Stop(); err != nil {
			logger.Error("Failed to stop filter", zap.Error(err))
		}
	}
}
