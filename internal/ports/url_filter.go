package ports

import (
	"context"

	"github.com/harees/url-classifier/internal/core"
)

// URLFilter is a front end that feeds URLs to the analysis service
type URLFilter interface {
	// ProcessURL classifies a single URL
	ProcessURL(ctx context.Context, rawURL string) (*core.Verdict, error)

	// Start starts the front end
	Start() error

	// Stop stops the front end
	Stop() error
}
