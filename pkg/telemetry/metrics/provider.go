package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks provider failures and failover retries.
type ProviderMetrics struct {
	errors  *prometheus.CounterVec
	retries *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(cfg Config, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Requests that ended in error, by last provider and error kind",
			},
			[]string{"provider", "kind"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_retries_total",
				Help:      "Failover attempts, labelled by the provider that finally answered",
			},
			[]string{"provider"},
		),
	}

	registry.MustRegister(pm.errors, pm.retries)
	return pm
}

// RecordError counts a failed request.
func (pm *ProviderMetrics) RecordError(provider, kind string) {
	pm.errors.WithLabelValues(provider, kind).Inc()
}

// RecordRetries adds n failover attempts.
func (pm *ProviderMetrics) RecordRetries(provider string, n int) {
	pm.retries.WithLabelValues(provider).Add(float64(n))
}
