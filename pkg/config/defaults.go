package config

import (
	"time"

	"tickerwire/llmgateway/pkg/routing"
)

// Default values for configuration fields.
const (
	// Gateway defaults
	DefaultGatewayEnabled       = true
	DefaultTargetRatio          = 0.6
	DefaultCompressionThreshold = 4000
	DefaultComplexityThreshold  = 2000
	DefaultTimeoutSeconds       = 30
	DefaultMaxTokens            = 1024
	DefaultMaxRetries           = 2
	DefaultUnhealthyCooldown    = 60 * time.Second
	DefaultBatchConcurrency     = 8

	// Provider defaults
	DefaultProviderTimeout = 60 * time.Second
	DefaultProviderBurst   = 1

	// Cache defaults
	DefaultCacheEnabled     = true
	DefaultCacheBackend     = "memory"
	DefaultCacheTTLSeconds  = 86400
	DefaultCacheMaxEntries  = 10000
	DefaultRedisAddress     = "localhost:6379"
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultCacheSQLitePath  = "data/cache.db"
	DefaultCacheSQLiteBusy  = 5 * time.Second

	// Monitor defaults
	DefaultDailyCostAlert       = 5.0
	DefaultMonthlyCostAlert     = 100.0
	DefaultMonthlyCostHardLimit = 150.0

	// Ledger and maintenance defaults
	DefaultLedgerPath          = "data/usage.db"
	DefaultLedgerRetentionDays = 90
	DefaultMaintenanceEnabled  = true
	DefaultCacheSchedule       = "*/10 * * * *"
	DefaultLedgerSchedule      = "0 3 * * *"
	DefaultSnapshotSchedule    = "0 * * * *"
	DefaultRolloverSchedule    = "0 0 * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 120 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(4 << 20)
	DefaultMaxBatchSize    = 100

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultRedactSecrets      = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "llmgw"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingSampler     = "always"
	DefaultTracingServiceName = "llmgateway"
)

// Default returns a configuration with every field at its default.
func Default() *Config {
	cfg := baseConfig()
	ApplyDefaults(cfg)
	return cfg
}

// baseConfig holds the defaults that ApplyDefaults cannot infer from a zero
// value: booleans that default to true and counts where zero is meaningful.
// Files are decoded on top of it so an explicit false or 0 survives.
func baseConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Enabled:    DefaultGatewayEnabled,
			MaxRetries: DefaultMaxRetries,
		},
		Cache: CacheConfig{
			Enabled: DefaultCacheEnabled,
		},
		Monitor: MonitorConfig{
			DailyCostAlert:       DefaultDailyCostAlert,
			MonthlyCostAlert:     DefaultMonthlyCostAlert,
			MonthlyCostHardLimit: DefaultMonthlyCostHardLimit,
		},
		Ledger: LedgerConfig{
			RetentionDays: DefaultLedgerRetentionDays,
		},
		Maintenance: MaintenanceConfig{
			Enabled:          DefaultMaintenanceEnabled,
			CacheSchedule:    DefaultCacheSchedule,
			LedgerSchedule:   DefaultLedgerSchedule,
			SnapshotSchedule: DefaultSnapshotSchedule,
			RolloverSchedule: DefaultRolloverSchedule,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactSecrets: DefaultRedactSecrets},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
}

// ApplyDefaults sets defaults for fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Gateway defaults
	if cfg.Gateway.TargetRatio == 0 {
		cfg.Gateway.TargetRatio = DefaultTargetRatio
	}
	if cfg.Gateway.CompressionThreshold == 0 {
		cfg.Gateway.CompressionThreshold = DefaultCompressionThreshold
	}
	if cfg.Gateway.ComplexityThreshold == 0 {
		cfg.Gateway.ComplexityThreshold = DefaultComplexityThreshold
	}
	if cfg.Gateway.DefaultTimeoutSeconds == 0 {
		cfg.Gateway.DefaultTimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.Gateway.DefaultMaxTokens == 0 {
		cfg.Gateway.DefaultMaxTokens = DefaultMaxTokens
	}
	if cfg.Gateway.UnhealthyCooldown == 0 {
		cfg.Gateway.UnhealthyCooldown = DefaultUnhealthyCooldown
	}
	if cfg.Gateway.BatchConcurrency == 0 {
		cfg.Gateway.BatchConcurrency = DefaultBatchConcurrency
	}

	// Provider defaults - the three built-in backends when none are listed
	if len(cfg.Providers) == 0 {
		cfg.Providers = map[string]ProviderConfig{
			"gemini":    {Type: "gemini", APIKeyEnv: "GEMINI_API_KEY"},
			"openai":    {Type: "openai", APIKeyEnv: "OPENAI_API_KEY"},
			"anthropic": {Type: "anthropic", APIKeyEnv: "ANTHROPIC_API_KEY"},
		}
	}
	for name, p := range cfg.Providers {
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.Burst == 0 {
			p.Burst = DefaultProviderBurst
		}
		if p.APIKey == "" && p.APIKeyEnv == "" {
			p.APIKeyEnv = envName(name) + "_API_KEY"
		}
		cfg.Providers[name] = p
	}

	// Routing defaults - the built-in tables, only when none are given
	applyRoutingDefaults(&cfg.Routing)

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = DefaultCacheTTLSeconds
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.Redis.Address == "" {
		cfg.Cache.Redis.Address = DefaultRedisAddress
	}
	if cfg.Cache.Redis.DialTimeout == 0 {
		cfg.Cache.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Cache.SQLite.Path == "" {
		cfg.Cache.SQLite.Path = DefaultCacheSQLitePath
	}
	if cfg.Cache.SQLite.BusyTimeout == 0 {
		cfg.Cache.SQLite.BusyTimeout = DefaultCacheSQLiteBusy
	}

	// Ledger defaults
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = DefaultLedgerPath
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.MaxBatchSize == 0 {
		cfg.Server.MaxBatchSize = DefaultMaxBatchSize
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

func applyRoutingDefaults(rc *RoutingConfig) {
	def := routing.DefaultConfig()

	if len(rc.Distribution) == 0 {
		rc.Distribution = make(map[string][]routing.Weighted, len(def.Distribution))
		for tier, ws := range def.Distribution {
			rc.Distribution[tier.String()] = append([]routing.Weighted(nil), ws...)
		}
		if len(rc.TierModels) == 0 {
			rc.TierModels = make(map[string]map[string]string, len(def.TierModels))
			for tier, models := range def.TierModels {
				copied := make(map[string]string, len(models))
				for k, v := range models {
					copied[k] = v
				}
				rc.TierModels[tier.String()] = copied
			}
		}
		if len(rc.Fallbacks) == 0 {
			rc.Fallbacks = make(map[string]string, len(def.Fallbacks))
			for k, v := range def.Fallbacks {
				rc.Fallbacks[k] = v
			}
		}
	}
	if len(rc.Models) == 0 {
		rc.Models = make(map[string]string, len(def.Models))
		for k, v := range def.Models {
			rc.Models[k] = v
		}
	}
	if rc.DefaultProvider == "" {
		rc.DefaultProvider = def.DefaultProvider
	}
}
