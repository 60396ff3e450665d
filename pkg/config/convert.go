package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"tickerwire/llmgateway/pkg/cache"
	"tickerwire/llmgateway/pkg/gateway"
	"tickerwire/llmgateway/pkg/monitor"
	"tickerwire/llmgateway/pkg/providers"
	"tickerwire/llmgateway/pkg/routing"
	"tickerwire/llmgateway/pkg/scheduler"
	"tickerwire/llmgateway/pkg/server"
	"tickerwire/llmgateway/pkg/telemetry/logging"
	"tickerwire/llmgateway/pkg/telemetry/metrics"
	"tickerwire/llmgateway/pkg/telemetry/tracing"
)

// GatewayOptions returns the hot-reloadable gateway tunables.
func (c *Config) GatewayOptions() gateway.Options {
	g := c.Gateway
	return gateway.Options{
		Enabled:              g.Enabled,
		CacheEnabled:         c.Cache.Enabled,
		CompressionEnabled:   g.PromptCompressionEnabled,
		TargetRatio:          g.TargetRatio,
		CompressionThreshold: g.CompressionThreshold,
		ComplexityThreshold:  g.ComplexityThreshold,
		DefaultTimeout:       time.Duration(g.DefaultTimeoutSeconds) * time.Second,
		DefaultMaxTokens:     g.DefaultMaxTokens,
		MaxRetries:           g.MaxRetries,
		UnhealthyCooldown:    g.UnhealthyCooldown,
		BatchConcurrency:     g.BatchConcurrency,
	}
}

// Thresholds returns the monitor alert thresholds.
func (c *Config) Thresholds() monitor.Thresholds {
	return monitor.Thresholds{
		DailyCostAlert:       c.Monitor.DailyCostAlert,
		MonthlyCostAlert:     c.Monitor.MonthlyCostAlert,
		MonthlyCostHardLimit: c.Monitor.MonthlyCostHardLimit,
	}
}

// RoutingTables converts the routing section, parsing tier names.
func (c *Config) RoutingTables() (routing.Config, error) {
	rc := routing.Config{
		Distribution:    make(map[routing.Tier][]routing.Weighted, len(c.Routing.Distribution)),
		Models:          c.Routing.Models,
		Fallbacks:       c.Routing.Fallbacks,
		DefaultProvider: c.Routing.DefaultProvider,
	}
	for name, ws := range c.Routing.Distribution {
		tier, err := routing.ParseTier(name)
		if err != nil {
			return routing.Config{}, fmt.Errorf("distribution: %w", err)
		}
		rc.Distribution[tier] = ws
	}
	if len(c.Routing.TierModels) > 0 {
		rc.TierModels = make(map[routing.Tier]map[string]string, len(c.Routing.TierModels))
		for name, models := range c.Routing.TierModels {
			tier, err := routing.ParseTier(name)
			if err != nil {
				return routing.Config{}, fmt.Errorf("tier_models: %w", err)
			}
			rc.TierModels[tier] = models
		}
	}
	return rc, nil
}

// RouterOptions returns router construction options derived from the
// routing section.
func (c *Config) RouterOptions() []routing.Option {
	if c.Routing.Seed == 0 {
		return nil
	}
	return []routing.Option{routing.WithSeed(c.Routing.Seed)}
}

// ProviderConfigs returns adapter configurations sorted by name. A literal
// api_key wins over api_key_env.
func (c *Config) ProviderConfigs() []providers.ProviderConfig {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]providers.ProviderConfig, 0, len(names))
	for _, name := range names {
		p := c.Providers[name]
		key := p.APIKey
		if key == "" && p.APIKeyEnv != "" {
			key = os.Getenv(p.APIKeyEnv)
		}
		out = append(out, providers.ProviderConfig{
			Name:              name,
			Type:              p.Type,
			BaseURL:           p.BaseURL,
			APIKey:            key,
			Timeout:           p.Timeout,
			MaxRetries:        p.MaxRetries,
			RequestsPerSecond: p.RequestsPerSecond,
			Burst:             p.Burst,
			DefaultModel:      p.DefaultModel,
			Pricing:           p.Pricing,
		})
	}
	return out
}

// CacheTTLPolicy returns the feature TTL table with the configured default.
func (c *Config) CacheTTLPolicy() cache.TTLPolicy {
	return cache.DefaultTTLPolicy(time.Duration(c.Cache.TTLSeconds) * time.Second)
}

// RedisPassword resolves the redis password, preferring password_env.
func (c *Config) RedisPassword() string {
	if env := c.Cache.Redis.PasswordEnv; env != "" {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return c.Cache.Redis.Password
}

// SchedulerConfig returns the maintenance schedules.
func (c *Config) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		CacheSchedule:    c.Maintenance.CacheSchedule,
		LedgerSchedule:   c.Maintenance.LedgerSchedule,
		LedgerRetention:  time.Duration(c.Ledger.RetentionDays) * 24 * time.Hour,
		SnapshotSchedule: c.Maintenance.SnapshotSchedule,
		RolloverSchedule: c.Maintenance.RolloverSchedule,
	}
}

// ServerConfig returns the HTTP listener settings.
func (c *Config) ServerConfig() server.Config {
	s := c.Server
	return server.Config{
		ListenAddress:   s.ListenAddress,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		IdleTimeout:     s.IdleTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
		MaxBodyBytes:    s.MaxBodyBytes,
		MaxBatchSize:    s.MaxBatchSize,
		MetricsPath:     c.Telemetry.Metrics.Path,
	}
}

// LoggingConfig returns the logger configuration.
func (c *Config) LoggingConfig() logging.Config {
	l := c.Telemetry.Logging
	return logging.Config{
		Level:         l.Level,
		Format:        l.Format,
		AddSource:     l.AddSource,
		RedactSecrets: l.RedactSecrets,
	}
}

// MetricsConfig returns the Prometheus collector configuration.
func (c *Config) MetricsConfig() metrics.Config {
	m := c.Telemetry.Metrics
	return metrics.Config{
		Enabled:   m.Enabled,
		Namespace: m.Namespace,
	}
}

// TracingConfig returns the tracer configuration.
func (c *Config) TracingConfig(serviceVersion string) tracing.Config {
	t := c.Telemetry.Tracing
	return tracing.Config{
		Enabled:        t.Enabled,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		Sampler:        t.Sampler,
		SampleRatio:    t.SampleRatio,
		ServiceName:    t.ServiceName,
		ServiceVersion: serviceVersion,
	}
}
