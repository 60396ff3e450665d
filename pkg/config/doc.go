// Package config provides configuration management for the LLM gateway.
//
// This package handles loading, validating, and converting configuration
// from YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("llmgateway.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("llmgateway.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention LLMGW_SECTION_FIELD.
// For example:
//
//   - LLMGW_GATEWAY_ENABLED overrides gateway.enabled
//   - LLMGW_CACHE_BACKEND overrides cache.backend
//   - LLMGW_PROVIDERS_OPENAI_API_KEY overrides providers.openai.api_key
//
// Provider keys are normally read from the variable named by a provider's
// api_key_env field rather than written into the file.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides
// earlier):
//
//  1. Default values (Default)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher observes the configuration file and hands every successfully
// re-validated Config to a callback. Only runtime tunables (gateway options
// and monitor thresholds) are expected to change that way; providers,
// routing tables and backends are fixed for the life of the process.
package config
