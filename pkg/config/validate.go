package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"tickerwire/llmgateway/pkg/routing"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "gateway.target_ratio").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// HasField reports whether any error concerns field.
func (e ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the entire configuration. All validation errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateGateway(&cfg.Gateway)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateRouting(cfg)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateMonitor(&cfg.Monitor)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateMaintenance(&cfg.Maintenance)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateGateway(cfg *GatewayConfig) []FieldError {
	var errs []FieldError

	if cfg.TargetRatio <= 0 || cfg.TargetRatio > 1 {
		errs = append(errs, FieldError{Field: "gateway.target_ratio", Message: "must be in (0, 1]"})
	}
	if cfg.CompressionThreshold < 0 {
		errs = append(errs, FieldError{Field: "gateway.compression_threshold", Message: "must not be negative"})
	}
	if cfg.ComplexityThreshold < 0 {
		errs = append(errs, FieldError{Field: "gateway.complexity_threshold", Message: "must not be negative"})
	}
	if cfg.DefaultTimeoutSeconds <= 0 {
		errs = append(errs, FieldError{Field: "gateway.default_timeout_seconds", Message: "must be positive"})
	}
	if cfg.DefaultMaxTokens <= 0 {
		errs = append(errs, FieldError{Field: "gateway.default_max_tokens", Message: "must be positive"})
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		errs = append(errs, FieldError{Field: "gateway.max_retries", Message: "must be between 0 and 10"})
	}
	if cfg.UnhealthyCooldown < 0 {
		errs = append(errs, FieldError{Field: "gateway.unhealthy_cooldown", Message: "must not be negative"})
	}
	if cfg.BatchConcurrency <= 0 {
		errs = append(errs, FieldError{Field: "gateway.batch_concurrency", Message: "must be positive"})
	}

	return errs
}

var providerTypes = map[string]bool{"openai": true, "anthropic": true, "gemini": true}

func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	for name, p := range providers {
		prefix := "providers." + name
		if p.Type != "" && !providerTypes[p.Type] {
			errs = append(errs, FieldError{Field: prefix + ".type", Message: fmt.Sprintf("unsupported type %q (supported: openai, anthropic, gemini)", p.Type)})
		}
		if p.BaseURL != "" {
			if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{Field: prefix + ".base_url", Message: "must be an absolute URL"})
			}
		}
		if p.Timeout < 0 {
			errs = append(errs, FieldError{Field: prefix + ".timeout", Message: "must not be negative"})
		}
		if p.MaxRetries < 0 {
			errs = append(errs, FieldError{Field: prefix + ".max_retries", Message: "must not be negative"})
		}
		if p.RequestsPerSecond < 0 {
			errs = append(errs, FieldError{Field: prefix + ".requests_per_second", Message: "must not be negative"})
		}
		if p.Burst < 0 {
			errs = append(errs, FieldError{Field: prefix + ".burst", Message: "must not be negative"})
		}
	}

	return errs
}

func validateRouting(cfg *Config) []FieldError {
	var errs []FieldError

	rc, err := cfg.RoutingTables()
	if err != nil {
		return []FieldError{{Field: "routing", Message: err.Error()}}
	}

	if err := rc.Validate(); err != nil {
		for _, e := range unjoin(err) {
			var ce *routing.ConfigError
			if errors.As(e, &ce) {
				errs = append(errs, FieldError{Field: "routing." + ce.Field, Message: ce.Message})
				continue
			}
			errs = append(errs, FieldError{Field: "routing.fallbacks", Message: e.Error()})
		}
	}

	for _, tier := range routing.Tiers {
		for _, w := range rc.Distribution[tier] {
			if _, ok := cfg.Providers[w.Provider]; !ok {
				errs = append(errs, FieldError{
					Field:   "routing.distribution." + tier.String(),
					Message: fmt.Sprintf("provider %q is not configured", w.Provider),
				})
			}
		}
	}

	return errs
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

var cacheBackends = map[string]bool{"memory": true, "redis": true, "sqlite": true}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if !cacheBackends[cfg.Backend] {
		errs = append(errs, FieldError{Field: "cache.backend", Message: fmt.Sprintf("unsupported backend %q (supported: memory, redis, sqlite)", cfg.Backend)})
	}
	if cfg.TTLSeconds <= 0 {
		errs = append(errs, FieldError{Field: "cache.ttl_seconds", Message: "must be positive"})
	}
	if cfg.MaxEntries <= 0 {
		errs = append(errs, FieldError{Field: "cache.max_entries", Message: "must be positive"})
	}
	if cfg.Backend == "redis" && cfg.Redis.Address == "" {
		errs = append(errs, FieldError{Field: "cache.redis.address", Message: "is required for the redis backend"})
	}
	if cfg.Redis.DB < 0 {
		errs = append(errs, FieldError{Field: "cache.redis.db", Message: "must not be negative"})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{Field: "cache.sqlite.path", Message: "is required for the sqlite backend"})
	}

	return errs
}

func validateMonitor(cfg *MonitorConfig) []FieldError {
	var errs []FieldError

	if cfg.DailyCostAlert < 0 {
		errs = append(errs, FieldError{Field: "monitor.daily_cost_alert", Message: "must not be negative"})
	}
	if cfg.MonthlyCostAlert < 0 {
		errs = append(errs, FieldError{Field: "monitor.monthly_cost_alert", Message: "must not be negative"})
	}
	if cfg.MonthlyCostHardLimit < 0 {
		errs = append(errs, FieldError{Field: "monitor.monthly_cost_hard_limit", Message: "must not be negative"})
	}
	if cfg.MonthlyCostHardLimit > 0 && cfg.MonthlyCostAlert > cfg.MonthlyCostHardLimit {
		errs = append(errs, FieldError{Field: "monitor.monthly_cost_hard_limit", Message: "must not be below monthly_cost_alert"})
	}

	return errs
}

func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Path == "" {
		errs = append(errs, FieldError{Field: "ledger.path", Message: "is required when the ledger is enabled"})
	}
	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "ledger.retention_days", Message: "must not be negative"})
	}

	return errs
}

func validateMaintenance(cfg *MaintenanceConfig) []FieldError {
	var errs []FieldError

	schedules := []struct {
		field string
		spec  string
	}{
		{"maintenance.cache_schedule", cfg.CacheSchedule},
		{"maintenance.ledger_schedule", cfg.LedgerSchedule},
		{"maintenance.snapshot_schedule", cfg.SnapshotSchedule},
		{"maintenance.rollover_schedule", cfg.RolloverSchedule},
	}
	for _, s := range schedules {
		if s.spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(s.spec); err != nil {
			errs = append(errs, FieldError{Field: s.field, Message: fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: fmt.Sprintf("must be host:port: %v", err)})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "must not be negative"})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "must be positive"})
	}
	if cfg.MaxBatchSize <= 0 {
		errs = append(errs, FieldError{Field: "server.max_batch_size", Message: "must be positive"})
	}

	return errs
}

var (
	logLevels   = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	logFormats  = map[string]bool{"json": true, "text": true, "console": true}
	samplerKind = map[string]bool{"always": true, "never": true, "ratio": true}
)

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !logLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}
	if !logFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}
	if !samplerKind[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sampler", Message: fmt.Sprintf("unknown sampler %q", cfg.Tracing.Sampler)})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be in [0, 1]"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "is required when tracing is enabled"})
	}

	return errs
}
