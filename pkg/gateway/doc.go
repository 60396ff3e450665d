// Package gateway is the single entry point for LLM calls.
//
// A Gateway composes a provider registry, a router, a response cache and a
// cost monitor, all supplied through a Context value. Each Submit runs the
// same pipeline:
//
//	resolve tier -> cache lookup -> optional compression -> route ->
//	provider attempts (with failover) -> record -> cache store
//
// A cache hit short-circuits everything after the lookup. On a provider
// failure the provider is marked unhealthy for the configured cooldown and
// the next attempt goes to its static fallback, or to a fresh selection for
// the tier when the fallback chain ends. At most MaxRetries+1 attempts are
// made, each under its own timeout.
//
// Submit never returns an error and never panics: failures are reported in
// Response.Error with Provider, Retries and LatencyMS still populated.
// SubmitBatch runs requests concurrently and preserves input order.
// EstimateCost is a dry run that touches neither providers, cache, monitor
// nor router health.
package gateway
