package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/dataset"
	"github.com/harees/url-classifier/internal/factory"
	"github.com/harees/url-classifier/internal/logging"
	"github.com/harees/url-classifier/internal/ports"
	"github.com/harees/url-classifier/internal/utils"
	"github.com/harees/url-classifier/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container.
// An empty configPath searches the default config locations.
func BuildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.Load(configPath)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}

	// Register dataset watcher
	if err := container.Provide(func(f *factory.DatasetFactory, store *dataset.Store) (*dataset.Watcher, error) {
		return f.CreateWatcher(store)
	}); err != nil {
		return nil, err
	}

	// Register cache repository
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register action history
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryRepository, error) {
		return f.CreateHistoryRepository()
	}); err != nil {
		return nil, err
	}

	// Register URL service
	if err := container.Provide(func(
		cfg *config.Config,
		store *dataset.Store,
		allowlist core.Allowlist,
		cacheRepo core.CacheRepository,
		logger *zap.Logger,
	) (*core.URLService, error) {
		cacheCfg, err := cfg.GetCache()
		if err != nil {
			return nil, err
		}
		return core.NewURLService(store, allowlist, cacheRepo, logger, cacheCfg.Enabled, cacheCfg.TTL), nil
	}); err != nil {
		return nil, err
	}

	// Register front ends
	if err := container.Provide(func(f *factory.FilterFactory) ([]ports.URLFilter, error) {
		return f.CreateFilters()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers what both the server and the CLI need once a
// config and logger are available
func provideCommon(container *dig.Container) error {
	if err := container.Provide(factory.NewDatasetFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return err
	}

	// Register dataset store
	if err := container.Provide(func(f *factory.DatasetFactory) (*dataset.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return err
	}

	// Register allowlist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.Allowlist {
		return whitelist.NewChecker(cfg.GetAllowlist(), logger)
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}

	return nil
}
