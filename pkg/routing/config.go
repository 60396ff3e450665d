package routing

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Weighted is one routing candidate with its selection probability.
type Weighted struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Probability float64 `yaml:"probability" json:"probability"`
}

// Config holds the static routing tables.
type Config struct {
	// Distribution maps each tier to its weighted candidates. Probabilities
	// must sum to 1 per tier. A missing tier uses MEDIUM's list.
	Distribution map[Tier][]Weighted

	// Models maps each provider to its model name.
	Models map[string]string

	// TierModels overrides Models for specific tiers.
	TierModels map[Tier]map[string]string

	// Fallbacks maps a provider to the provider tried after it fails.
	// Providers without an entry end the chain.
	Fallbacks map[string]string

	// DefaultProvider is the fallback for unknown providers (the cheapest
	// general-purpose provider).
	DefaultProvider string
}

const probabilityTolerance = 1e-6

// DefaultConfig returns the built-in three-provider routing tables.
func DefaultConfig() Config {
	return Config{
		Distribution: map[Tier][]Weighted{
			Simple: {
				{Provider: "gemini", Probability: 0.8},
				{Provider: "openai", Probability: 0.2},
			},
			Medium: {
				{Provider: "gemini", Probability: 0.5},
				{Provider: "openai", Probability: 0.4},
				{Provider: "anthropic", Probability: 0.1},
			},
			Complex: {
				{Provider: "openai", Probability: 0.5},
				{Provider: "anthropic", Probability: 0.4},
				{Provider: "gemini", Probability: 0.1},
			},
			Critical: {
				{Provider: "anthropic", Probability: 0.7},
				{Provider: "openai", Probability: 0.3},
			},
		},
		Models: map[string]string{
			"gemini":    "gemini-2.0-flash",
			"openai":    "gpt-4o-mini",
			"anthropic": "claude-3-5-haiku-latest",
		},
		TierModels: map[Tier]map[string]string{
			Complex: {
				"gemini":    "gemini-2.5-flash",
				"openai":    "gpt-4o",
				"anthropic": "claude-sonnet-4-0",
			},
			Critical: {
				"openai":    "gpt-4o",
				"anthropic": "claude-sonnet-4-0",
			},
		},
		Fallbacks: map[string]string{
			"anthropic": "openai",
			"openai":    "gemini",
		},
		DefaultProvider: "gemini",
	}
}

// Validate checks probabilities, provider references and fallback acyclicity.
func (c Config) Validate() error {
	var errs []error

	if c.DefaultProvider == "" {
		errs = append(errs, &ConfigError{Field: "default_provider", Message: "is required"})
	} else if _, ok := c.Models[c.DefaultProvider]; !ok {
		errs = append(errs, &ConfigError{Field: "default_provider", Message: fmt.Sprintf("%q has no model", c.DefaultProvider)})
	}

	if len(c.Distribution[Medium]) == 0 {
		errs = append(errs, &ConfigError{Field: "distribution.MEDIUM", Message: "is required as the default tier"})
	}

	for _, tier := range sortedTiers(c.Distribution) {
		field := "distribution." + tier.String()
		sum := 0.0
		for _, w := range c.Distribution[tier] {
			if w.Probability < 0 {
				errs = append(errs, &ConfigError{Field: field, Message: fmt.Sprintf("negative probability for %q", w.Provider)})
			}
			if _, ok := c.Models[w.Provider]; !ok {
				errs = append(errs, &ConfigError{Field: field, Message: fmt.Sprintf("provider %q has no model", w.Provider)})
			}
			sum += w.Probability
		}
		if len(c.Distribution[tier]) > 0 && math.Abs(sum-1) > probabilityTolerance {
			errs = append(errs, &ConfigError{Field: field, Message: fmt.Sprintf("probabilities sum to %.6f, want 1", sum)})
		}
	}

	for from, to := range c.Fallbacks {
		if from == to {
			errs = append(errs, &CycleError{Path: []string{from, to}})
			continue
		}
		if _, ok := c.Models[to]; !ok {
			errs = append(errs, &ConfigError{Field: "fallbacks." + from, Message: fmt.Sprintf("target %q has no model", to)})
		}
	}

	if err := checkAcyclic(c.Fallbacks); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// checkAcyclic walks the fallback chain from every provider.
func checkAcyclic(fallbacks map[string]string) error {
	starts := make([]string, 0, len(fallbacks))
	for p := range fallbacks {
		starts = append(starts, p)
	}
	sort.Strings(starts)

	for _, start := range starts {
		seen := map[string]bool{start: true}
		path := []string{start}
		cur := start
		for {
			next, ok := fallbacks[cur]
			if !ok {
				break
			}
			path = append(path, next)
			if seen[next] {
				if next == cur {
					// self-loops are reported separately
					break
				}
				return &CycleError{Path: path}
			}
			seen[next] = true
			cur = next
		}
	}
	return nil
}

// Tiers returns the tiers with a distribution, lowest first.
func (c Config) Tiers() []Tier {
	return sortedTiers(c.Distribution)
}

func sortedTiers(m map[Tier][]Weighted) []Tier {
	tiers := make([]Tier, 0, len(m))
	for t := range m {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })
	return tiers
}
