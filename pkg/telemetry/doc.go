// Package telemetry groups the gateway's observability packages.
//
// # Components
//
//   - logging: slog setup, request-scoped attributes and secret redaction
//   - metrics: Prometheus collector fed by gateway responses and a
//     scrape-time view of gateway stats
//   - tracing: OpenTelemetry spans for requests and provider attempts
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.New(cfg.LoggingConfig())
//	collector := metrics.NewCollector(cfg.MetricsConfig(), nil)
//	tracer, err := tracing.New(cfg.TracingConfig(version))
//	defer tracer.Shutdown(context.Background())
//
//	gw, err := gateway.New(&gateway.Context{
//		Observers: []gateway.Observer{collector},
//		Tracer:    tracer.Tracer(),
//		Logger:    logger,
//		// ...
//	})
//	collector.RegisterStats(gw)
package telemetry
