package factory

import (
	"fmt"

	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/dataset"
	"go.uber.org/zap"
)

// DatasetFactory loads the reference dataset and builds its reload watcher
type DatasetFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDatasetFactory creates a new dataset factory
func NewDatasetFactory(cfg *config.Config, logger *zap.Logger) *DatasetFactory {
	return &DatasetFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore loads the configured dataset file. A dataset that cannot be
// loaded is a startup error.
func (f *DatasetFactory) CreateStore() (*dataset.Store, error) {
	datasetCfg, err := f.cfg.GetDataset()
	if err != nil {
		return nil, fmt.Errorf("invalid dataset configuration: %w", err)
	}

	d, err := dataset.LoadFile(datasetCfg.Path)
	if err != nil {
		return nil, err
	}

	counts := d.Counts()
	f.logger.Info("Loaded reference dataset",
		zap.String("path", datasetCfg.Path),
		zap.Int("entries", d.Len()),
		zap.Int("skipped", d.Skipped()),
		zap.Int("official", counts[core.CategoryOfficial]),
		zap.Int("suspicious", counts[core.CategorySuspicious]),
		zap.Int("malicious", counts[core.CategoryMalicious]))

	return dataset.NewStore(d), nil
}

// CreateWatcher creates a reloader for the store. It is not started.
func (f *DatasetFactory) CreateWatcher(store *dataset.Store) (*dataset.Watcher, error) {
	datasetCfg, err := f.cfg.GetDataset()
	if err != nil {
		return nil, fmt.Errorf("invalid dataset configuration: %w", err)
	}
	return dataset.NewWatcher(datasetCfg.Path, store, f.logger, datasetCfg.ReloadDebounce), nil
}
