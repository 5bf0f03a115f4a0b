package filter

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harees/url-classifier/internal/core"
	"go.uber.org/zap"
)

// CliFilter classifies URLs from the command line and prints a summary
type CliFilter struct {
	service *core.URLService
	logger  *zap.Logger
	verbose bool
	out     io.Writer
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.URLService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
		out:     os.Stdout,
	}, nil
}

// SetOutput sets where results are printed
func (f *CliFilter) SetOutput(w io.Writer) {
	f.out = w
}

// ProcessURL classifies a URL and displays the result
func (f *CliFilter) ProcessURL(ctx context.Context, rawURL string) (*core.Verdict, error) {
	f.logger.Debug("Processing url", zap.String("url", rawURL))
	fmt.Fprintf(f.out, "\n=== %s ===\n", rawURL)

	startTime := time.Now()
	verdict, err := f.service.Analyze(ctx, rawURL)
	if err != nil {
		f.logger.Error("Failed to analyze url", zap.Error(err))
		fmt.Fprintf(f.out, "Error: %v\n", err)
		return nil, err
	}
	duration := time.Since(startTime)

	fmt.Fprintf(f.out, "Status: %s\n", verdict.Status)
	fmt.Fprintf(f.out, "Score: %.2f\n", verdict.Score)
	fmt.Fprintf(f.out, "Reason: %s\n", verdict.Reason)
	if f.verbose {
		fmt.Fprintf(f.out, "Key: %s\n", core.NormalizeKey(rawURL))
		fmt.Fprintf(f.out, "Domain: %s\n", core.RegistrableDomain(rawURL))
		fmt.Fprintf(f.out, "Processing time: %v\n", duration)
	}

	return verdict, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
