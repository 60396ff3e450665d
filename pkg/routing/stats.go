package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// RoutingStats is a point-in-time copy of routing counters.
type RoutingStats struct {
	// TotalSelections is the number of successful Select calls.
	TotalSelections int64 `json:"total_selections"`

	// SelectionsPerProvider counts selections by provider.
	SelectionsPerProvider map[string]int64 `json:"selections_per_provider"`

	// HealthFilteredCount counts selections where at least one candidate was excluded.
	HealthFilteredCount int64 `json:"health_filtered_count"`

	// UnfilteredCount counts selections that fell back to the unfiltered list.
	UnfilteredCount int64 `json:"unfiltered_count"`

	// MarkedUnhealthy counts MarkUnhealthy calls.
	MarkedUnhealthy int64 `json:"marked_unhealthy"`

	// Fallbacks counts GetFallback hops taken.
	Fallbacks int64 `json:"fallbacks"`

	// Errors counts failed selections.
	Errors int64 `json:"errors"`

	// LastResetTime is when the counters were last reset.
	LastResetTime time.Time `json:"last_reset_time"`
}

// AtomicRoutingStats implements thread-safe routing statistics using atomic operations.
type AtomicRoutingStats struct {
	totalSelections     atomic.Int64
	selectionsPerProv   sync.Map // map[string]*atomic.Int64
	healthFilteredCount atomic.Int64
	unfilteredCount     atomic.Int64
	markedUnhealthy     atomic.Int64
	fallbacks           atomic.Int64
	errors              atomic.Int64

	mu            sync.RWMutex
	lastResetTime time.Time
}

// NewAtomicRoutingStats creates a new atomic routing statistics tracker.
func NewAtomicRoutingStats() *AtomicRoutingStats {
	return &AtomicRoutingStats{lastResetTime: time.Now()}
}

// IncrementTotal increments the selection counter.
func (s *AtomicRoutingStats) IncrementTotal() { s.totalSelections.Add(1) }

// IncrementProvider increments the counter for a specific provider.
func (s *AtomicRoutingStats) IncrementProvider(providerName string) {
	val, _ := s.selectionsPerProv.LoadOrStore(providerName, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)
}

// IncrementHealthFiltered increments the health filtered counter.
func (s *AtomicRoutingStats) IncrementHealthFiltered() { s.healthFilteredCount.Add(1) }

// IncrementUnfiltered increments the all-unhealthy fallback counter.
func (s *AtomicRoutingStats) IncrementUnfiltered() { s.unfilteredCount.Add(1) }

// IncrementMarkedUnhealthy increments the health exclusion counter.
func (s *AtomicRoutingStats) IncrementMarkedUnhealthy() { s.markedUnhealthy.Add(1) }

// IncrementFallback increments the fallback hop counter.
func (s *AtomicRoutingStats) IncrementFallback() { s.fallbacks.Add(1) }

// IncrementErrors increments the error counter.
func (s *AtomicRoutingStats) IncrementErrors() { s.errors.Add(1) }

// Snapshot returns a point-in-time snapshot of the statistics.
func (s *AtomicRoutingStats) Snapshot() *RoutingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perProvider := make(map[string]int64)
	s.selectionsPerProv.Range(func(key, value any) bool {
		perProvider[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	return &RoutingStats{
		TotalSelections:       s.totalSelections.Load(),
		SelectionsPerProvider: perProvider,
		HealthFilteredCount:   s.healthFilteredCount.Load(),
		UnfilteredCount:       s.unfilteredCount.Load(),
		MarkedUnhealthy:       s.markedUnhealthy.Load(),
		Fallbacks:             s.fallbacks.Load(),
		Errors:                s.errors.Load(),
		LastResetTime:         s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicRoutingStats) Reset() {
	s.totalSelections.Store(0)
	s.healthFilteredCount.Store(0)
	s.unfilteredCount.Store(0)
	s.markedUnhealthy.Store(0)
	s.fallbacks.Store(0)
	s.errors.Store(0)

	s.selectionsPerProv.Range(func(key, _ any) bool {
		s.selectionsPerProv.Delete(key)
		return true
	})

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
