package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyURL is returned when the caller passes a blank URL
var ErrEmptyURL = errors.New("url is required")

// Versioned is implemented by datasets that can be swapped at runtime
type Versioned interface {
	Version() uint64
}

// Allowlist reports whether a URL's host bypasses classification
type Allowlist interface {
	IsAllowed(rawURL string) bool
}

// URLService is the core service for URL triage
type URLService struct {
	classifier   *Classifier
	dataset      Dataset
	allowlist    Allowlist
	cache        CacheRepository
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewURLService creates a new URL service
func NewURLService(
	dataset Dataset,
	allowlist Allowlist,
	cache CacheRepository,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *URLService {
	return &URLService{
		classifier:   NewClassifier(dataset),
		dataset:      dataset,
		allowlist:    allowlist,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled && cache != nil,
		cacheTTL:     cacheTTL,
	}
}

// cacheKey ties a cached verdict to the dataset generation it was computed from
func (s *URLService) cacheKey(rawURL string) string {
	var version uint64
	if v, ok := s.dataset.(Versioned); ok {
		version = v.Version()
	}
	return fmt.Sprintf("%d|%s", version, NormalizeKey(rawURL))
}

// Analyze classifies a URL
func (s *URLService) Analyze(ctx context.Context, rawURL string) (*Verdict, error) {
	rawURL = normalizeCase(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	if s.allowlist != nil && s.allowlist.IsAllowed(rawURL) {
		s.logger.Debug("Skipping classification for allowlisted host",
			zap.String("url", rawURL),
			zap.String("action", "allowlist_bypass"))

		return &Verdict{
			Status: StatusSafe,
			Color:  ColorSafe,
			Reason: "Host is allowlisted",
			Score:  1.0,
		}, nil
	}

	key := s.cacheKey(rawURL)
	if s.cacheEnabled {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Cache hit for url", zap.String("url", rawURL))
			verdict := entry.Verdict
			return &verdict, nil
		}
	}

	verdict := s.classifier.Classify(rawURL)

	fields := []zap.Field{
		zap.String("url", rawURL),
		zap.String("domain", RegistrableDomain(rawURL)),
		zap.String("status", string(verdict.Status)),
		zap.Float64("score", verdict.Score),
	}
	if verdict.Status == StatusDangerous {
		s.logger.Info("Dangerous url classified", fields...)
	} else {
		s.logger.Debug("Url classified", fields...)
	}

	if s.cacheEnabled {
		now := time.Now()
		entry := &CacheEntry{
			Key:       key,
			Verdict:   verdict,
			CachedAt:  now,
			ExpiresAt: now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return &verdict, nil
}
