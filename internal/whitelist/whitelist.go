package whitelist

import (
	"strings"

	"github.com/harees/url-classifier/internal/core"
	"go.uber.org/zap"
)

// Checker decides whether a URL's host is operator-allowlisted
type Checker struct {
	hosts  []string
	logger *zap.Logger
}

// NewChecker creates a new allowlist checker
func NewChecker(hosts []string, logger *zap.Logger) *Checker {
	// Normalize hosts (lowercase, no www.)
	normalized := make([]string, 0, len(hosts))
	for _, host := range hosts {
		host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
		if host != "" {
			normalized = append(normalized, host)
		}
	}

	if len(normalized) > 0 && logger != nil {
		logger.Info("Initialized allowlist checker", zap.Strings("hosts", normalized))
	}

	return &Checker{
		hosts:  normalized,
		logger: logger,
	}
}

// IsAllowed reports whether the URL's host, or a parent of it, is allowlisted
func (c *Checker) IsAllowed(rawURL string) bool {
	if len(c.hosts) == 0 {
		return false
	}

	host := core.Host(rawURL)
	if host == "" {
		return false
	}

	for _, allowed := range c.hosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			if c.logger != nil {
				c.logger.Debug("Host is allowlisted",
					zap.String("host", host),
					zap.String("url", rawURL))
			}
			return true
		}
	}

	return false
}
