package gateway

import (
	"fmt"
	"time"
)

// Options are the gateway's runtime tunables. They can be swapped while
// serving with Gateway.Reload.
type Options struct {
	Enabled      bool `json:"enabled"`
	CacheEnabled bool `json:"cache_enabled"`

	CompressionEnabled   bool    `json:"compression_enabled"`
	TargetRatio          float64 `json:"target_ratio"`
	CompressionThreshold int     `json:"compression_threshold"`

	// ComplexityThreshold is the prompt length, in characters, at which an
	// undetected prompt is routed as MEDIUM instead of SIMPLE.
	ComplexityThreshold int `json:"complexity_threshold"`

	DefaultTimeout    time.Duration `json:"default_timeout"`
	DefaultMaxTokens  int           `json:"default_max_tokens"`
	MaxRetries        int           `json:"max_retries"`
	UnhealthyCooldown time.Duration `json:"unhealthy_cooldown"`
	BatchConcurrency  int           `json:"batch_concurrency"`
}

// DefaultOptions returns the stock tunables.
func DefaultOptions() Options {
	return Options{
		Enabled:              true,
		CacheEnabled:         true,
		CompressionEnabled:   false,
		TargetRatio:          DefaultTargetRatio,
		CompressionThreshold: DefaultCompressionThreshold,
		ComplexityThreshold:  DefaultComplexityThreshold,
		DefaultTimeout:       30 * time.Second,
		DefaultMaxTokens:     1024,
		MaxRetries:           2,
		UnhealthyCooldown:    60 * time.Second,
		BatchConcurrency:     8,
	}
}

// withDefaults fills zero numeric fields. Boolean switches are left alone.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetRatio <= 0 {
		o.TargetRatio = d.TargetRatio
	}
	if o.CompressionThreshold <= 0 {
		o.CompressionThreshold = d.CompressionThreshold
	}
	if o.ComplexityThreshold <= 0 {
		o.ComplexityThreshold = d.ComplexityThreshold
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = d.DefaultTimeout
	}
	if o.DefaultMaxTokens <= 0 {
		o.DefaultMaxTokens = d.DefaultMaxTokens
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.UnhealthyCooldown <= 0 {
		o.UnhealthyCooldown = d.UnhealthyCooldown
	}
	if o.BatchConcurrency <= 0 {
		o.BatchConcurrency = d.BatchConcurrency
	}
	return o
}

// Validate rejects values withDefaults cannot repair.
func (o Options) Validate() error {
	if o.TargetRatio > 1 {
		return fmt.Errorf("target_ratio must be in (0, 1], got %v", o.TargetRatio)
	}
	return nil
}
