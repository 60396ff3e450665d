package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CostMetrics tracks spend in USD.
type CostMetrics struct {
	costTotal *prometheus.CounterVec
}

// NewCostMetrics creates and registers cost metrics.
func NewCostMetrics(cfg Config, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_usd_total",
				Help:      "Total provider spend in USD",
			},
			[]string{"provider", "feature"},
		),
	}

	registry.MustRegister(cm.costTotal)
	return cm
}

// RecordCost adds cost to the provider and feature counter.
func (cm *CostMetrics) RecordCost(provider, feature string, cost float64) {
	if cost <= 0 {
		return
	}
	cm.costTotal.WithLabelValues(provider, feature).Add(cost)
}
