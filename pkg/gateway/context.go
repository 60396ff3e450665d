package gateway

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"tickerwire/llmgateway/pkg/cache"
	"tickerwire/llmgateway/pkg/monitor"
	"tickerwire/llmgateway/pkg/providers"
	"tickerwire/llmgateway/pkg/routing"
)

// Context carries the gateway's collaborators. Registry and Router are
// required; everything else has a default.
type Context struct {
	Registry *providers.Registry
	Router   *routing.Router

	// Cache is optional. Nil disables caching.
	Cache *cache.Cache

	// Monitor defaults to a monitor with DefaultThresholds.
	Monitor *monitor.Monitor

	Observers []Observer

	// Tracer defaults to a noop tracer.
	Tracer trace.Tracer

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// Options defaults to DefaultOptions when nil. A non-nil value is used
	// as given: zero numeric fields are filled from DefaultOptions, but the
	// Enabled and CacheEnabled switches are not, so build partial options
	// from DefaultOptions.
	Options *Options
}
