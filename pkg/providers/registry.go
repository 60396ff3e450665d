package providers

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry maps provider identifiers to constructed adapters.
// Adapters are resolved once and reused for the registry's lifetime.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its Name. A previously registered adapter
// with the same name is closed and replaced.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.adapters[a.Name()]; ok {
		slog.Warn("replacing existing provider", "name", a.Name())
		if err := existing.Close(); err != nil {
			slog.Error("error closing provider", "name", a.Name(), "error", err)
		}
	}
	r.adapters[a.Name()] = a
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return a, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health returns transport counters for every adapter that reports them.
func (r *Registry) Health() map[string]ProviderHealth {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]ProviderHealth)
	for name, a := range r.adapters {
		if hr, ok := a.(HealthReporter); ok {
			out[name] = hr.GetHealth()
		}
	}
	return out
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// Close closes every adapter and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, a := range r.adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	r.adapters = make(map[string]Adapter)
	return errors.Join(errs...)
}
