package core

import (
	"context"
)

// Dataset is the read-only reference table the classifier consults
type Dataset interface {
	// Lookup returns the trust category stored under a normalized key
	Lookup(key string) (TrustCategory, bool)
}

// CacheRepository defines the interface for caching verdicts
type CacheRepository interface {
	// Get retrieves a cached entry for a key
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// HistoryRepository stores what users did after a warning was shown
type HistoryRepository interface {
	// Add appends a record
	Add(ctx context.Context, rec *ActionRecord) error

	// Recent returns up to limit records, newest first
	Recent(ctx context.Context, limit int) ([]ActionRecord, error)
}
