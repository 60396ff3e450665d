package routing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoCandidates is returned when neither the tier nor MEDIUM has candidates.
	ErrNoCandidates = errors.New("no routing candidates configured")

	// ErrFallbackCycle is returned when the fallback table contains a cycle.
	ErrFallbackCycle = errors.New("fallback table contains a cycle")

	// ErrInvalidConfig is the base error for routing configuration problems.
	ErrInvalidConfig = errors.New("invalid routing configuration")
)

// ConfigError describes one routing configuration problem.
type ConfigError struct {
	// Field is the configuration path (e.g., "distribution.MEDIUM").
	Field string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("routing config %s: %s", e.Field, e.Message)
}

// Is matches ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// CycleError reports the provider path that revisits a provider.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("fallback cycle: %s", strings.Join(e.Path, " -> "))
}

// Is matches ErrFallbackCycle and ErrInvalidConfig.
func (e *CycleError) Is(target error) bool {
	return target == ErrFallbackCycle || target == ErrInvalidConfig
}
