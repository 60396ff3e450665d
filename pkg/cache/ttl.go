package cache

import (
	"strings"
	"time"
)

// DefaultTTL applies when no feature rule matches.
const DefaultTTL = 24 * time.Hour

// TTLPolicy resolves a feature name to an entry lifetime.
//
// Exact matches win, then the longest matching prefix, then Default.
type TTLPolicy struct {
	Exact   map[string]time.Duration
	Prefix  map[string]time.Duration
	Default time.Duration
}

// DefaultTTLPolicy returns the built-in feature TTL table. A non-positive
// defaultTTL selects DefaultTTL.
func DefaultTTLPolicy(defaultTTL time.Duration) TTLPolicy {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return TTLPolicy{
		Exact: map[string]time.Duration{
			"ticker_extraction": 30 * 24 * time.Hour,
		},
		Prefix: map[string]time.Duration{
			"sec_8k":    7 * 24 * time.Hour,
			"sec_10":    7 * 24 * time.Hour,
			"sec_":      3 * 24 * time.Hour,
			"filing_":   7 * 24 * time.Hour,
			"earnings_": 12 * time.Hour,
			"news_":     6 * time.Hour,
		},
		Default: defaultTTL,
	}
}

// TTL returns the lifetime for feature.
func (p TTLPolicy) TTL(feature string) time.Duration {
	if d, ok := p.Exact[feature]; ok {
		return d
	}

	best := ""
	for prefix := range p.Prefix {
		if strings.HasPrefix(feature, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return p.Prefix[best]
	}

	if p.Default > 0 {
		return p.Default
	}
	return DefaultTTL
}
