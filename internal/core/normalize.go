package core

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

func normalizeCase(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeKey turns a URL into the key used by the reference dataset.
// Loading and lookups must both go through this function.
func NormalizeKey(rawURL string) string {
	return strings.TrimRight(normalizeCase(rawURL), "/")
}

// Host extracts the lower-cased host of a URL with any "www." prefix removed.
// Schemeless input is treated as http. Returns "" when no host can be found.
func Host(rawURL string) string {
	s := normalizeCase(rawURL)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// RegistrableDomain returns the eTLD+1 for a URL, falling back to its host
func RegistrableDomain(rawURL string) string {
	host := Host(rawURL)
	if host == "" {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}
