// Package metrics exposes gateway activity as Prometheus metrics.
//
// # Overview
//
// Two sources feed the registry:
//
//   - Collector implements gateway.Observer. Every completed Submit updates
//     request counters, latency and token histograms, cost counters and
//     provider error counters.
//   - RegisterStats adds a pull collector that reads a gateway stats
//     snapshot on each scrape: period spend, cache state, provider health
//     and routing selections.
//
// # Usage
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true, Namespace: "llmgw"}, nil)
//	gw, _ := gateway.New(registry, router, cache, mon, opts, collector)
//	collector.RegisterStats(gw)
//	mux.Handle("/metrics", collector.Handler())
//
// # Metric Names
//
// With namespace "llmgw" and no subsystem:
//
//	llmgw_requests_total{provider,tier,status}
//	llmgw_request_duration_seconds{provider}
//	llmgw_request_tokens_total{provider,type}
//	llmgw_request_retries_total{provider}
//	llmgw_cost_usd_total{provider,feature}
//	llmgw_provider_errors_total{provider,kind}
//	llmgw_spend_usd{period}
//	llmgw_cache_entries, llmgw_cache_hit_ratio, llmgw_cache_degraded
//	llmgw_provider_unhealthy{provider}
//	llmgw_routing_selections_total{provider}
//	llmgw_gateway_enabled
//
// # Cardinality
//
// The feature label is caller-controlled. A CardinalityLimiter caps the
// number of distinct features; overflow is reported as "other".
package metrics
