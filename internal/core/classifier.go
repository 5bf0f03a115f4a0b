package core

import (
	"math"
	"strings"
)

const (
	neutralSafety = 0.5

	officialSafety   = 0.9
	suspiciousSafety = 0.6
	maliciousSafety  = 0.1

	dangerousKeywordPenalty  = 0.35
	suspiciousKeywordPenalty = 0.20
	atSignPenalty            = 0.25
	httpsBonus               = 0.05

	// Scores above safeAbove are Safe, scores below dangerousBelow are Dangerous
	safeAbove      = 0.8
	dangerousBelow = 0.4

	// FallbackReason is used when no dataset entry or heuristic applied
	FallbackReason = "Unknown website, caution recommended"

	reasonSeparator = " | "
)

// DangerousKeywords are matched as plain substrings of the lower-cased URL
var DangerousKeywords = []string{"malware", "phishing", "virus", "fraud", "scam"}

// SuspiciousKeywords are matched as plain substrings of the lower-cased URL
var SuspiciousKeywords = []string{"login", "verify", "account", "update", "secure", "bank", "confirm", "free"}

var categoryRules = map[TrustCategory]struct {
	safety float64
	reason string
}{
	CategoryOfficial:   {officialSafety, "Official trusted website"},
	CategorySuspicious: {suspiciousSafety, "Website listed as suspicious"},
	CategoryMalicious:  {maliciousSafety, "Known malicious website"},
}

// Classifier scores URLs against a reference dataset and lexical heuristics.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	dataset Dataset
}

// NewClassifier creates a classifier over the given dataset
func NewClassifier(dataset Dataset) *Classifier {
	return &Classifier{dataset: dataset}
}

// Classify produces a verdict for a URL. A recognized dataset entry decides
// the score on its own; otherwise keyword and structure checks accumulate
// from a neutral prior.
func (c *Classifier) Classify(rawURL string) Verdict {
	u := normalizeCase(rawURL)
	safety := neutralSafety
	var reasons []string

	matched := false
	if c.dataset != nil {
		if category, ok := c.dataset.Lookup(NormalizeKey(u)); ok && category.Known() {
			rule := categoryRules[category]
			safety = rule.safety
			reasons = append(reasons, rule.reason)
			matched = true
		}
	}

	if !matched {
		for _, kw := range DangerousKeywords {
			if strings.Contains(u, kw) {
				safety -= dangerousKeywordPenalty
				reasons = append(reasons, "Dangerous keyword detected: "+kw)
			}
		}
		for _, kw := range SuspiciousKeywords {
			if strings.Contains(u, kw) {
				safety -= suspiciousKeywordPenalty
				reasons = append(reasons, "Suspicious keyword detected: "+kw)
			}
		}
		if strings.Contains(u, "@") {
			safety -= atSignPenalty
			reasons = append(reasons, "URL contains '@' symbol")
		}
		if strings.HasPrefix(u, "https://") {
			safety += httpsBonus
			reasons = append(reasons, "Uses secure HTTPS connection")
		}
	}

	score := roundScore(clamp(safety))
	status := StatusFor(score)

	reason := FallbackReason
	if len(reasons) > 0 {
		reason = strings.Join(reasons, reasonSeparator)
	}

	return Verdict{
		Status: status,
		Color:  status.Color(),
		Reason: reason,
		Score:  score,
	}
}

// StatusFor maps a rounded safety score onto its threshold band
func StatusFor(score float64) Status {
	switch {
	case score > safeAbove:
		return StatusSafe
	case score >= dangerousBelow:
		return StatusSuspicious
	default:
		return StatusDangerous
	}
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(v, 1))
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
