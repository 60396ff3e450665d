package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tickerwire/llmgateway/pkg/cache"
	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/config"
	"tickerwire/llmgateway/pkg/gateway"
	"tickerwire/llmgateway/pkg/ledger"
	"tickerwire/llmgateway/pkg/monitor"
	"tickerwire/llmgateway/pkg/providerfactory"
	"tickerwire/llmgateway/pkg/routing"
	"tickerwire/llmgateway/pkg/telemetry/logging"
	"tickerwire/llmgateway/pkg/telemetry/metrics"
	"tickerwire/llmgateway/pkg/telemetry/tracing"
)

// app is the assembled gateway and the components commands reach past it
// for.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracer  *tracing.Tracer
	monitor *monitor.Monitor
	ledger  *ledger.Store
	metrics *metrics.Collector
	gateway *gateway.Gateway
}

// appOptions selects the optional components a command needs.
type appOptions struct {
	// ledger opens the usage ledger when the config enables it.
	ledger bool
	// metrics builds the Prometheus collector when the config enables it.
	metrics bool
}

// loadConfig reads --config (or the defaults) with LLMGW_* overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	return logger, nil
}

// newApp builds every component from cfg. On error, anything already opened
// is closed.
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (a *app, err error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.WithoutCancel(ctx))
			a = nil
		}
	}()

	a.tracer, err = tracing.New(cfg.TracingConfig(Version))
	if err != nil {
		return a, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	registry, err := providerfactory.BuildRegistry(cfg.ProviderConfigs())
	if err != nil {
		return a, fmt.Errorf("failed to build providers: %w", err)
	}

	tables, err := cfg.RoutingTables()
	if err != nil {
		_ = registry.Close()
		return a, cli.NewConfigError("routing", err.Error())
	}
	router, err := routing.New(tables, append(cfg.RouterOptions(), routing.WithLogger(logger))...)
	if err != nil {
		_ = registry.Close()
		return a, cli.NewConfigError("routing", err.Error())
	}

	external, err := openCacheBackend(cfg)
	if err != nil {
		_ = registry.Close()
		return a, fmt.Errorf("failed to open %s cache backend: %w", cfg.Cache.Backend, err)
	}
	responseCache := cache.New(ctx, cache.Config{
		TTL:         cfg.CacheTTLPolicy(),
		MaxEntries:  cfg.Cache.MaxEntries,
		BackendName: cfg.Cache.Backend,
		Logger:      logger,
	}, external)

	a.monitor = monitor.New(cfg.Thresholds(),
		monitor.WithLogger(logger),
		monitor.WithAlertSink(monitor.LogSink{Logger: logger}),
	)

	var observers []gateway.Observer
	if opts.ledger && cfg.Ledger.Enabled {
		if err = ensureDir(cfg.Ledger.Path); err != nil {
			_ = registry.Close()
			_ = responseCache.Close()
			return a, err
		}
		a.ledger, err = ledger.Open(ledger.Config{Path: cfg.Ledger.Path, Logger: logger})
		if err != nil {
			_ = registry.Close()
			_ = responseCache.Close()
			return a, fmt.Errorf("failed to open usage ledger: %w", err)
		}
		observers = append(observers, a.ledger)
	}
	if opts.metrics && cfg.Telemetry.Metrics.Enabled {
		a.metrics = metrics.NewCollector(cfg.MetricsConfig(), nil)
		a.metrics.RegisterRuntime()
		observers = append(observers, a.metrics)
	}

	gwOpts := cfg.GatewayOptions()
	a.gateway, err = gateway.New(&gateway.Context{
		Registry:  registry,
		Router:    router,
		Cache:     responseCache,
		Monitor:   a.monitor,
		Observers: observers,
		Tracer:    a.tracer.Tracer(),
		Logger:    logger,
		Options:   &gwOpts,
	})
	if err != nil {
		_ = registry.Close()
		_ = responseCache.Close()
		return a, err
	}
	if a.metrics != nil {
		a.metrics.RegisterStats(a.gateway)
	}

	logger.Debug("gateway assembled",
		"providers", registry.Names(),
		"cache_backend", cfg.Cache.Backend,
		"ledger", a.ledger != nil,
		"metrics", a.metrics != nil,
		"tracing", a.tracer.Enabled(),
	)
	return a, nil
}

// openCacheBackend returns the configured external store. The memory backend
// is the cache's built-in map, so it has no external store.
func openCacheBackend(cfg *config.Config) (cache.Backend, error) {
	switch cfg.Cache.Backend {
	case "redis":
		b, err := cache.NewRedisBackend(cache.RedisConfig{
			Addr:        cfg.Cache.Redis.Address,
			Password:    cfg.RedisPassword(),
			DB:          cfg.Cache.Redis.DB,
			DialTimeout: cfg.Cache.Redis.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	case "sqlite":
		if err := ensureDir(cfg.Cache.SQLite.Path); err != nil {
			return nil, err
		}
		b, err := cache.NewSQLiteBackendWithConfig(cache.SQLiteBackendConfig{
			DBPath:      cfg.Cache.SQLite.Path,
			BusyTimeout: cfg.Cache.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, nil
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	return nil
}

// Close releases components in reverse order of construction.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.gateway != nil {
		errs = append(errs, a.gateway.Close())
	}
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
