package config

import (
	"time"

	"tickerwire/llmgateway/pkg/providers"
	"tickerwire/llmgateway/pkg/routing"
)

// Config is the root configuration structure for the gateway.
type Config struct {
	// Gateway contains the request pipeline tunables. All of them can be
	// hot-reloaded.
	Gateway GatewayConfig `yaml:"gateway"`

	// Providers configures LLM backends. Keys are provider names as used in
	// the routing tables.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Routing contains the per-tier weighted distributions, model names and
	// fallback table.
	Routing RoutingConfig `yaml:"routing"`

	// Cache selects the response cache backend and its lifetimes.
	Cache CacheConfig `yaml:"cache"`

	// Monitor contains the budget alert thresholds in USD.
	Monitor MonitorConfig `yaml:"monitor"`

	// Ledger configures the durable SQLite usage ledger.
	Ledger LedgerConfig `yaml:"ledger"`

	// Maintenance contains cron schedules for background jobs.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Server contains the HTTP listener configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GatewayConfig contains the request pipeline tunables.
type GatewayConfig struct {
	// Enabled turns the whole gateway on or off. A disabled gateway answers
	// every request with an error and never calls a provider.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// PromptCompressionEnabled shortens prompts longer than
	// CompressionThreshold characters.
	// Default: false
	PromptCompressionEnabled bool `yaml:"prompt_compression_enabled"`

	// TargetRatio is the fraction of the original length compression aims for.
	// Default: 0.6
	TargetRatio float64 `yaml:"target_ratio"`

	// CompressionThreshold is the prompt length, in characters, above which
	// compression applies.
	// Default: 4000
	CompressionThreshold int `yaml:"compression_threshold"`

	// ComplexityThreshold is the prompt length at which keyword-free prompts
	// count as MEDIUM.
	// Default: 2000
	ComplexityThreshold int `yaml:"complexity_threshold"`

	// DefaultTimeoutSeconds bounds each provider attempt.
	// Default: 30
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds"`

	// DefaultMaxTokens is the output budget when a request sets none.
	// Default: 1024
	DefaultMaxTokens int `yaml:"default_max_tokens"`

	// MaxRetries is the number of failover attempts after the first call.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// UnhealthyCooldown is how long a failed provider is excluded.
	// Default: 60s
	UnhealthyCooldown time.Duration `yaml:"unhealthy_cooldown"`

	// BatchConcurrency bounds in-flight requests per batch.
	// Default: 8
	BatchConcurrency int `yaml:"batch_concurrency"`
}

// ProviderConfig configures one LLM backend.
type ProviderConfig struct {
	// Type selects the adapter ("openai", "anthropic", "gemini"). Empty
	// infers it from the provider name.
	Type string `yaml:"type"`

	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is the literal credential. Prefer APIKeyEnv.
	APIKey string `yaml:"api_key"`

	// APIKeyEnv names the environment variable holding the credential.
	APIKeyEnv string `yaml:"api_key_env"`

	// Timeout is the HTTP client ceiling; per-attempt deadlines come from
	// the gateway.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of transport-level retries. The gateway fails
	// over on its own, so this is normally zero.
	// Default: 0
	MaxRetries int `yaml:"max_retries"`

	// RequestsPerSecond limits outbound calls. Zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the limiter burst size.
	// Default: 1
	Burst int `yaml:"burst"`

	// DefaultModel prices unknown models.
	DefaultModel string `yaml:"default_model"`

	// Pricing maps model names or prefixes to per-1K token prices. Empty
	// uses the adapter's built-in table.
	Pricing map[string]providers.ModelPricing `yaml:"pricing"`
}

// RoutingConfig contains the routing tables. Tier keys are tier names
// ("SIMPLE", "MEDIUM", "COMPLEX", "CRITICAL"), case-insensitive.
type RoutingConfig struct {
	// Distribution maps each tier to its weighted candidates.
	Distribution map[string][]routing.Weighted `yaml:"distribution"`

	// Models maps each provider to its model name.
	Models map[string]string `yaml:"models"`

	// TierModels overrides Models for specific tiers.
	TierModels map[string]map[string]string `yaml:"tier_models"`

	// Fallbacks maps a provider to the provider tried after it fails.
	Fallbacks map[string]string `yaml:"fallbacks"`

	// DefaultProvider is the fallback for unknown providers.
	DefaultProvider string `yaml:"default_provider"`

	// Seed fixes the selection random source. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	// Enabled turns response caching on or off.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the external store: "memory", "redis" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// TTLSeconds is the lifetime for features without a specific rule.
	// Default: 86400
	TTLSeconds int `yaml:"ttl_seconds"`

	// MaxEntries bounds the in-memory map.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`

	Redis  RedisConfig       `yaml:"redis"`
	SQLite CacheSQLiteConfig `yaml:"sqlite"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	// Address is host:port.
	// Default: "localhost:6379"
	Address string `yaml:"address"`

	Password    string `yaml:"password"`
	PasswordEnv string `yaml:"password_env"`
	DB          int    `yaml:"db"`

	// DialTimeout bounds connection setup.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// CacheSQLiteConfig configures the sqlite cache backend.
type CacheSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/cache.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long writers wait for the lock.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// MonitorConfig contains budget alert thresholds in USD. Zero disables an
// alert.
type MonitorConfig struct {
	// Default: 5.0
	DailyCostAlert float64 `yaml:"daily_cost_alert"`

	// Default: 100.0
	MonthlyCostAlert float64 `yaml:"monthly_cost_alert"`

	// MonthlyCostHardLimit raises a critical alert. Requests are not
	// blocked.
	// Default: 150.0
	MonthlyCostHardLimit float64 `yaml:"monthly_cost_hard_limit"`
}

// LedgerConfig configures the durable usage ledger.
type LedgerConfig struct {
	// Enabled records every response to SQLite.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the database file path.
	// Default: "data/usage.db"
	Path string `yaml:"path"`

	// RetentionDays is how long records are kept. Zero keeps them forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`
}

// MaintenanceConfig contains cron schedules (five-field, UTC). An empty
// schedule disables that job.
type MaintenanceConfig struct {
	// Enabled runs the scheduler at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Default: "*/10 * * * *"
	CacheSchedule string `yaml:"cache_schedule"`

	// Default: "0 3 * * *"
	LedgerSchedule string `yaml:"ledger_schedule"`

	// Default: "0 * * * *"
	SnapshotSchedule string `yaml:"snapshot_schedule"`

	// Default: "0 0 * * *"
	RolloverSchedule string `yaml:"rollover_schedule"`
}

// ServerConfig contains the HTTP listener configuration.
type ServerConfig struct {
	// ListenAddress is host:port.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout must cover the slowest request including failover.
	// Default: 120s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies.
	// Default: 4194304 (4MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// MaxBatchSize caps the number of requests in one batch call.
	// Default: 100
	MaxBatchSize int `yaml:"max_batch_size"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in records.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys in log output.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the scrape endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "llmgw"
	Namespace string `yaml:"namespace"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP/gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	Insecure bool `yaml:"insecure"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio applies when Sampler is "ratio".
	SampleRatio float64 `yaml:"sample_ratio"`

	// Default: "llmgateway"
	ServiceName string `yaml:"service_name"`
}
