package factory

import (
	"fmt"
	"strings"

	"github.com/harees/url-classifier/internal/adapters/filter"
	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/ports"
	"github.com/harees/url-classifier/internal/utils"
	"go.uber.org/zap"
)

// FilterFactory creates front ends based on configuration
type FilterFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	service       *core.URLService
	history       core.HistoryRepository
	textProcessor *utils.TextProcessor
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(
	cfg *config.Config,
	logger *zap.Logger,
	service *core.URLService,
	history core.HistoryRepository,
	textProcessor *utils.TextProcessor,
) *FilterFactory {
	return &FilterFactory{
		cfg:           cfg,
		logger:        logger,
		service:       service,
		history:       history,
		textProcessor: textProcessor,
	}
}

// CreateFilters creates every front end listed in server.filters
func (f *FilterFactory) CreateFilters() ([]ports.URLFilter, error) {
	names := f.cfg.GetFilters()
	if len(names) == 0 {
		return nil, fmt.Errorf("no filters configured")
	}

	filters := make([]ports.URLFilter, 0, len(names))
	for _, name := range names {
		uf, err := f.CreateFilter(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, uf)
	}
	return filters, nil
}

// CreateFilter creates a single front end by type
func (f *FilterFactory) CreateFilter(filterType string) (ports.URLFilter, error) {
	switch strings.ToLower(strings.TrimSpace(filterType)) {
	case "http":
		httpCfg, err := f.cfg.GetHTTP()
		if err != nil {
			return nil, fmt.Errorf("invalid http configuration: %w", err)
		}
		return filter.NewHTTPFilter(f.service, f.history, f.logger, f.textProcessor, httpCfg), nil
	case "smtp":
		return filter.NewSMTPFilter(f.service, f.logger, f.textProcessor, f.cfg.GetSMTP()), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

// CreateCliFilter creates the printer used by url-check. It is not a server
// front end so server.filters cannot name it.
func (f *FilterFactory) CreateCliFilter() (*filter.CliFilter, error) {
	return filter.NewCliFilter(f.service, f.logger, f.cfg.GetBool("cli.verbose"))
}
