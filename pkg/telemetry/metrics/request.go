package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks gateway request volume, latency and tokens.
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	tokensPerReq    *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics.
func NewRequestMetrics(cfg Config, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of gateway requests by outcome",
			},
			[]string{"provider", "tier", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end gateway request duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"provider"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_tokens_total",
				Help:      "Total number of tokens processed",
			},
			[]string{"provider", "type"},
		),

		tokensPerReq: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_tokens",
				Help:      "Tokens per request",
				Buckets:   cfg.TokenBuckets,
			},
			[]string{"type"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.tokensTotal,
		rm.tokensPerReq,
	)

	return rm
}

// RecordRequest counts one request and observes its latency.
func (rm *RequestMetrics) RecordRequest(provider, tier, status string, latencyMS int64) {
	rm.requestsTotal.WithLabelValues(provider, tier, status).Inc()
	rm.requestDuration.WithLabelValues(provider).Observe(float64(latencyMS) / 1000)
}

// RecordTokens adds input and output token counts.
func (rm *RequestMetrics) RecordTokens(provider string, in, out int) {
	if in > 0 {
		rm.tokensTotal.WithLabelValues(provider, "input").Add(float64(in))
		rm.tokensPerReq.WithLabelValues("input").Observe(float64(in))
	}
	if out > 0 {
		rm.tokensTotal.WithLabelValues(provider, "output").Add(float64(out))
		rm.tokensPerReq.WithLabelValues("output").Observe(float64(out))
	}
}
