package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"tickerwire/llmgateway/pkg/cli"
	"tickerwire/llmgateway/pkg/config"
	"tickerwire/llmgateway/pkg/scheduler"
	"tickerwire/llmgateway/pkg/server"
	"tickerwire/llmgateway/pkg/telemetry/health"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	noWatch       bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	Long: `Start the HTTP gateway with the specified configuration.

The server exposes /v1/submit, /v1/batch, /v1/estimate, /v1/stats and
/v1/usage, plus health probes and Prometheus metrics. Maintenance jobs run on
their cron schedules. When --config names a file, edits to it are applied
without a restart (gateway options and budget thresholds only).

Examples:
  # Start with built-in defaults
  llmgateway serve

  # Start with a config file
  llmgateway serve --config /etc/llmgateway/llmgateway.yaml

  # Override listen address
  llmgateway serve --listen 0.0.0.0:8080

  # Validate config without starting the server
  llmgateway serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.noWatch, "no-watch", false, "do not reload the config file on change")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx := cli.SetupSignalHandler()

	a, err := newApp(ctx, cfg, appOptions{ledger: true, metrics: true})
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(shutdownCtx); err != nil {
			a.logger.Warn("shutdown incomplete", "error", err)
		}
	}()
	logger := a.logger

	if cfg.Maintenance.Enabled {
		targets := scheduler.Targets{Cache: a.gateway.Cache(), Monitor: a.monitor}
		if a.ledger != nil {
			targets.Ledger = a.ledger
		}
		sched := scheduler.New(cfg.SchedulerConfig(), targets, logger)
		if err := sched.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer sched.Stop()
	}

	if cfgFile != "" && !serveFlags.noWatch {
		watcher, err := config.NewWatcher(cfgFile, 0, logger)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		go func() {
			err := watcher.Watch(ctx, func(next *config.Config) {
				if err := a.gateway.Reload(next.GatewayOptions()); err != nil {
					logger.Warn("config reload rejected", "error", err)
					return
				}
				a.monitor.SetThresholds(next.Thresholds())
				logger.Info("config reloaded",
					"enabled", next.Gateway.Enabled,
					"cache_enabled", next.Cache.Enabled,
					"max_retries", next.Gateway.MaxRetries,
				)
			})
			if err != nil {
				logger.Warn("config watcher stopped", "error", err)
			}
		}()
	}

	checker := health.New(0)
	checker.RegisterCheck("providers", health.ProvidersCheck(a.gateway, nil))
	checker.RegisterCheck("cache", health.CacheCheck(a.gateway.Cache()))
	if a.ledger != nil {
		checker.RegisterCheck("ledger", health.PingCheck(a.ledger))
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithHealth(checker),
		server.WithVersion(Version, GitCommit, BuildDate),
	}
	if a.metrics != nil && cfg.Telemetry.Metrics.Path != "" {
		opts = append(opts, server.WithMetrics(a.metrics.Handler()))
	}
	if a.ledger != nil {
		opts = append(opts, server.WithUsage(a.ledger))
	}

	srv := server.New(cfg.ServerConfig(), a.gateway, opts...)

	logger.Info("starting llmgateway",
		"version", Version,
		"listen", cfg.Server.ListenAddress,
		"providers", a.gateway.GetStats().Providers,
		"cache_backend", cfg.Cache.Backend,
	)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	logger.Info("llmgateway stopped")
	return nil
}
