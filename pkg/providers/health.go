package providers

import (
	"sync"
	"time"
)

// HealthCounter accumulates ProviderHealth for one adapter. The zero value is
// ready to use and it is safe for concurrent use.
type HealthCounter struct {
	mu     sync.RWMutex
	health ProviderHealth
}

// Record counts one outbound call. A nil err is a success.
func (h *HealthCounter) Record(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.health.TotalRequests++
	if err == nil {
		h.health.ConsecutiveFailures = 0
		h.health.LastError = ""
		h.health.LastSuccess = time.Now()
		return
	}
	h.health.FailedRequests++
	h.health.ConsecutiveFailures++
	h.health.LastError = err.Error()
}

// Snapshot returns the current counters.
func (h *HealthCounter) Snapshot() ProviderHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.health
}
