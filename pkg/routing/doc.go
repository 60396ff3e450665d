// Package routing selects a provider and model for a complexity tier.
//
// # Weighted selection
//
// Each tier maps to a list of (provider, probability) pairs. Select removes
// providers currently marked unhealthy, re-normalizes the remaining weights
// and draws against the cumulative distribution using an injected random
// source. If every candidate is unhealthy the unfiltered list is used, so
// routing never blocks.
//
// # Health
//
// MarkUnhealthy records a time-boxed exclusion. A provider with no record,
// or whose exclusion has expired, is healthy; an expired record is cleared by
// the read that observes it.
//
// # Fallback
//
// GetFallback performs exactly one hop through a static fallback table that
// is validated to be acyclic at construction. Unknown providers fall back to
// the configured default (cheapest) provider.
package routing
