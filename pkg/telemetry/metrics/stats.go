package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tickerwire/llmgateway/pkg/gateway"
)

// StatsSource provides a point-in-time gateway snapshot.
type StatsSource interface {
	GetStats() gateway.StatsReport
}

// RegisterStats adds scrape-time gauges read from src. Only the first call
// registers; later calls are ignored.
func (c *Collector) RegisterStats(src StatsSource) {
	c.statsOnce.Do(func() {
		c.registry.MustRegister(newStatsCollector(c.config, src, time.Now))
	})
}

// statsCollector converts a StatsReport into const metrics on every scrape.
type statsCollector struct {
	src StatsSource
	now func() time.Time

	enabled    *prometheus.Desc
	spend      *prometheus.Desc
	cacheSize  *prometheus.Desc
	cacheRatio *prometheus.Desc
	degraded   *prometheus.Desc
	unhealthy  *prometheus.Desc
	selections *prometheus.Desc

	transportCalls    *prometheus.Desc
	transportFailures *prometheus.Desc
	consecutiveFails  *prometheus.Desc
}

func newStatsCollector(cfg Config, src StatsSource, now func() time.Time) *statsCollector {
	name := func(n string) string {
		return prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, n)
	}
	return &statsCollector{
		src: src,
		now: now,

		enabled: prometheus.NewDesc(name("gateway_enabled"),
			"Whether the gateway accepts requests (1) or short-circuits them (0)", nil, nil),
		spend: prometheus.NewDesc(name("spend_usd"),
			"Spend in the current UTC period", []string{"period"}, nil),
		cacheSize: prometheus.NewDesc(name("cache_entries"),
			"Entries held by the in-memory cache", nil, nil),
		cacheRatio: prometheus.NewDesc(name("cache_hit_ratio"),
			"Cache hits divided by lookups", nil, nil),
		degraded: prometheus.NewDesc(name("cache_degraded"),
			"Whether the cache fell back from its external backend", nil, nil),
		unhealthy: prometheus.NewDesc(name("provider_unhealthy"),
			"Whether the provider is inside its unhealthy cooldown", []string{"provider"}, nil),
		selections: prometheus.NewDesc(name("routing_selections_total"),
			"Router selections by provider", []string{"provider"}, nil),

		transportCalls: prometheus.NewDesc(name("provider_calls_total"),
			"Outbound provider calls", []string{"provider"}, nil),
		transportFailures: prometheus.NewDesc(name("provider_call_failures_total"),
			"Outbound provider calls that failed", []string{"provider"}, nil),
		consecutiveFails: prometheus.NewDesc(name("provider_consecutive_failures"),
			"Failed outbound calls since the provider last succeeded", []string{"provider"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (s *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.enabled
	ch <- s.spend
	ch <- s.cacheSize
	ch <- s.cacheRatio
	ch <- s.degraded
	ch <- s.unhealthy
	ch <- s.selections
	ch <- s.transportCalls
	ch <- s.transportFailures
	ch <- s.consecutiveFails
}

// Collect implements prometheus.Collector.
func (s *statsCollector) Collect(ch chan<- prometheus.Metric) {
	report := s.src.GetStats()
	now := s.now()

	ch <- prometheus.MustNewConstMetric(s.enabled, prometheus.GaugeValue, boolValue(report.Enabled))
	ch <- prometheus.MustNewConstMetric(s.spend, prometheus.GaugeValue, report.Monitor.DailyCost, "day")
	ch <- prometheus.MustNewConstMetric(s.spend, prometheus.GaugeValue, report.Monitor.MonthlyCost, "month")
	ch <- prometheus.MustNewConstMetric(s.spend, prometheus.GaugeValue, report.Monitor.TotalCost, "total")

	if report.Cache != nil {
		ch <- prometheus.MustNewConstMetric(s.cacheSize, prometheus.GaugeValue, float64(report.Cache.Entries))
		ch <- prometheus.MustNewConstMetric(s.cacheRatio, prometheus.GaugeValue, report.Cache.HitRate)
		ch <- prometheus.MustNewConstMetric(s.degraded, prometheus.GaugeValue, boolValue(report.Cache.Degraded))
	}

	for _, p := range report.Providers {
		until, marked := report.Unhealthy[p]
		down := marked && until.After(now)
		ch <- prometheus.MustNewConstMetric(s.unhealthy, prometheus.GaugeValue, boolValue(down), p)
	}

	if report.Routing != nil {
		for p, n := range report.Routing.SelectionsPerProvider {
			ch <- prometheus.MustNewConstMetric(s.selections, prometheus.CounterValue, float64(n), p)
		}
	}

	for p, h := range report.ProviderHealth {
		ch <- prometheus.MustNewConstMetric(s.transportCalls, prometheus.CounterValue, float64(h.TotalRequests), p)
		ch <- prometheus.MustNewConstMetric(s.transportFailures, prometheus.CounterValue, float64(h.FailedRequests), p)
		ch <- prometheus.MustNewConstMetric(s.consecutiveFails, prometheus.GaugeValue, float64(h.ConsecutiveFailures), p)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
