package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tickerwire/llmgateway/pkg/gateway"
)

// ErrNoProviders is returned when the gateway has no adapters at all.
var ErrNoProviders = errors.New("no providers registered")

// StatsSource provides a gateway snapshot.
type StatsSource interface {
	GetStats() gateway.StatsReport
}

// ProvidersCheck fails when every registered provider is in cooldown.
func ProvidersCheck(src StatsSource, now func() time.Time) CheckFunc {
	if now == nil {
		now = time.Now
	}
	return func(context.Context) error {
		report := src.GetStats()
		if len(report.Providers) == 0 {
			return ErrNoProviders
		}

		t := now()
		var down []string
		for _, p := range report.Providers {
			if until, ok := report.Unhealthy[p]; ok && until.After(t) {
				down = append(down, p)
			}
		}
		if len(down) == len(report.Providers) {
			return fmt.Errorf("all providers unhealthy: %s", strings.Join(down, ", "))
		}
		return nil
	}
}

// DegradedReporter is implemented by the response cache.
type DegradedReporter interface {
	Degraded() bool
}

// CacheCheck fails while the cache runs on its in-memory fallback.
func CacheCheck(c DegradedReporter) CheckFunc {
	return func(context.Context) error {
		if c.Degraded() {
			return errors.New("cache backend unavailable, serving from memory")
		}
		return nil
	}
}

// Pinger is implemented by the usage ledger.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck adapts a Pinger.
func PingCheck(p Pinger) CheckFunc {
	return p.Ping
}
