package core

import (
	"time"
)

// Status is the triage decision for a URL
type Status string

const (
	StatusSafe       Status = "Safe"
	StatusSuspicious Status = "Suspicious"
	StatusDangerous  Status = "Dangerous"
)

// Color is the presentation tag the extension UI keys off
type Color string

const (
	ColorSafe    Color = "safe"
	ColorWarning Color = "warning"
	ColorDanger  Color = "danger"
)

// Color returns the presentation tag for a status
func (s Status) Color() Color {
	switch s {
	case StatusSafe:
		return ColorSafe
	case StatusSuspicious:
		return ColorWarning
	default:
		return ColorDanger
	}
}

// TrustCategory classifies a known URL in the reference dataset
type TrustCategory string

const (
	CategoryOfficial   TrustCategory = "official"
	CategorySuspicious TrustCategory = "suspicious"
	CategoryMalicious  TrustCategory = "malicious"
)

// ParseTrustCategory folds a raw category value. Unrecognized values are
// kept as-is so they can be stored, but Known reports false for them.
func ParseTrustCategory(raw string) TrustCategory {
	return TrustCategory(normalizeCase(raw))
}

// Known reports whether the category takes part in scoring
func (c TrustCategory) Known() bool {
	switch c {
	case CategoryOfficial, CategorySuspicious, CategoryMalicious:
		return true
	}
	return false
}

// Verdict is the result of classifying a URL
type Verdict struct {
	Status Status  `json:"status" yaml:"status"`
	Color  Color   `json:"color" yaml:"color"`
	Reason string  `json:"reason" yaml:"reason"`
	Score  float64 `json:"score" yaml:"score"`
}

// CacheEntry is a cached verdict for a normalized URL key
type CacheEntry struct {
	Key       string
	Verdict   Verdict
	CachedAt  time.Time
	ExpiresAt time.Time
}

// Action is what the user did after seeing a warning
type Action string

const (
	ActionProceed Action = "proceed"
	ActionLeave   Action = "leave"
)

// Valid reports whether the action is one the extension sends
func (a Action) Valid() bool {
	return a == ActionProceed || a == ActionLeave
}

// ActionRecord is one entry of the user action history
type ActionRecord struct {
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	Level     string    `json:"level"`
	Score     *float64  `json:"score"`
	Reason    string    `json:"reason"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"ts"`
}
