package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "LLMGW_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := baseConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. An empty path starts from Default.
// Environment variables always take precedence over file-based
// configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies LLMGW_SECTION_FIELD variables. Values that fail
// to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Gateway overrides
	envBool("GATEWAY_ENABLED", &cfg.Gateway.Enabled)
	envBool("GATEWAY_PROMPT_COMPRESSION_ENABLED", &cfg.Gateway.PromptCompressionEnabled)
	envFloat("GATEWAY_TARGET_RATIO", &cfg.Gateway.TargetRatio)
	envInt("GATEWAY_DEFAULT_TIMEOUT_SECONDS", &cfg.Gateway.DefaultTimeoutSeconds)
	envInt("GATEWAY_MAX_RETRIES", &cfg.Gateway.MaxRetries)
	envDuration("GATEWAY_UNHEALTHY_COOLDOWN", &cfg.Gateway.UnhealthyCooldown)
	envInt("GATEWAY_BATCH_CONCURRENCY", &cfg.Gateway.BatchConcurrency)

	// Provider overrides
	for name, p := range cfg.Providers {
		prefix := "PROVIDERS_" + envName(name) + "_"
		envString(prefix+"API_KEY", &p.APIKey)
		envString(prefix+"BASE_URL", &p.BaseURL)
		envDuration(prefix+"TIMEOUT", &p.Timeout)
		cfg.Providers[name] = p
	}

	// Cache overrides
	envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	envString("CACHE_BACKEND", &cfg.Cache.Backend)
	envInt("CACHE_TTL_SECONDS", &cfg.Cache.TTLSeconds)
	envString("CACHE_REDIS_ADDRESS", &cfg.Cache.Redis.Address)
	envString("CACHE_REDIS_PASSWORD", &cfg.Cache.Redis.Password)
	envString("CACHE_SQLITE_PATH", &cfg.Cache.SQLite.Path)

	// Monitor overrides
	envFloat("MONITOR_DAILY_COST_ALERT", &cfg.Monitor.DailyCostAlert)
	envFloat("MONITOR_MONTHLY_COST_ALERT", &cfg.Monitor.MonthlyCostAlert)
	envFloat("MONITOR_MONTHLY_COST_HARD_LIMIT", &cfg.Monitor.MonthlyCostHardLimit)

	// Ledger overrides
	envBool("LEDGER_ENABLED", &cfg.Ledger.Enabled)
	envString("LEDGER_PATH", &cfg.Ledger.Path)
	envInt("LEDGER_RETENTION_DAYS", &cfg.Ledger.RetentionDays)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

// envName turns a provider name into its environment variable segment.
func envName(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(name))
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
