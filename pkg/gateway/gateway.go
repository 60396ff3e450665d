package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"tickerwire/llmgateway/pkg/cache"
	"tickerwire/llmgateway/pkg/monitor"
	"tickerwire/llmgateway/pkg/providers"
	"tickerwire/llmgateway/pkg/routing"
	"tickerwire/llmgateway/pkg/telemetry/logging"
	"tickerwire/llmgateway/pkg/telemetry/tracing"
)

// Gateway orchestrates cached, routed, failover-protected LLM calls.
//
// It is safe for concurrent use.
type Gateway struct {
	registry  *providers.Registry
	router    *routing.Router
	cache     *cache.Cache
	monitor   *monitor.Monitor
	observers []Observer
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time

	options atomic.Pointer[Options]
}

// New builds a Gateway from gc.
func New(gc *Context) (*Gateway, error) {
	if gc == nil {
		return nil, fmt.Errorf("%w: nil context", ErrInvalidContext)
	}
	if gc.Registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrInvalidContext)
	}
	if gc.Router == nil {
		return nil, fmt.Errorf("%w: router is required", ErrInvalidContext)
	}
	opts := DefaultOptions()
	if gc.Options != nil {
		opts = *gc.Options
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContext, err)
	}

	g := &Gateway{
		registry:  gc.Registry,
		router:    gc.Router,
		cache:     gc.Cache,
		monitor:   gc.Monitor,
		observers: gc.Observers,
		tracer:    gc.Tracer,
		logger:    gc.Logger,
		now:       gc.Now,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With("component", "gateway")
	if g.monitor == nil {
		g.monitor = monitor.New(monitor.DefaultThresholds(), monitor.WithLogger(g.logger))
	}
	if g.tracer == nil {
		g.tracer = noop.NewTracerProvider().Tracer("gateway")
	}
	if g.now == nil {
		g.now = time.Now
	}

	opts = opts.withDefaults()
	g.options.Store(&opts)

	for _, p := range routedProviders(gc.Router.Config()) {
		if _, err := gc.Registry.Get(p); err != nil {
			g.logger.Warn("routed provider has no adapter; attempts on it will fail over", "provider", p)
		}
	}

	return g, nil
}

func routedProviders(cfg routing.Config) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tier := range routing.Tiers {
		for _, w := range cfg.Distribution[tier] {
			if !seen[w.Provider] {
				seen[w.Provider] = true
				out = append(out, w.Provider)
			}
		}
	}
	return out
}

// Options returns the active tunables.
func (g *Gateway) Options() Options {
	return *g.options.Load()
}

// Reload atomically replaces the tunables. In-flight requests keep the
// options they started with.
func (g *Gateway) Reload(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	opts = opts.withDefaults()
	g.options.Store(&opts)
	g.logger.Info("options reloaded",
		"enabled", opts.Enabled,
		"cache_enabled", opts.CacheEnabled,
		"compression_enabled", opts.CompressionEnabled,
		"max_retries", opts.MaxRetries,
	)
	return nil
}

// Monitor returns the gateway's cost monitor.
func (g *Gateway) Monitor() *monitor.Monitor { return g.monitor }

// Cache returns the gateway's cache, or nil.
func (g *Gateway) Cache() *cache.Cache { return g.cache }

// Submit runs req through the pipeline. It always returns a Response.
func (g *Gateway) Submit(ctx context.Context, req Request) (resp Response) {
	start := g.now()
	requestID := logging.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = logging.WithRequestID(ctx, requestID)
	}

	defer func() {
		if r := recover(); r != nil {
			err := &PanicError{Value: r}
			g.logger.ErrorContext(ctx, "submit panicked", "error", err)
			resp = Response{
				Error:     err.Error(),
				ErrorKind: "internal",
				RequestID: requestID,
				LatencyMS: g.since(start),
			}
		}
		g.notify(ctx, req, resp)
	}()

	return g.submit(ctx, req, requestID, start, g.Options())
}

func (g *Gateway) submit(ctx context.Context, req Request, requestID string, start time.Time, opts Options) Response {
	feature := req.Feature
	if feature == "" {
		feature = DefaultFeature
	}
	ctx = logging.WithFeature(ctx, feature)

	tier := g.resolveTier(req, opts)
	ctx, span := g.tracer.Start(ctx, "gateway.submit",
		trace.WithAttributes(tracing.RequestAttributes(requestID, feature, tier.String())...))
	defer span.End()

	resp := Response{RequestID: requestID, Tier: tier.String()}

	if !opts.Enabled {
		resp.Error = ErrDisabled.Error()
		resp.ErrorKind = "disabled"
		resp.LatencyMS = g.since(start)
		tracing.SetError(span, ErrDisabled)
		return resp
	}
	if req.Prompt == "" {
		resp.Error = ErrEmptyPrompt.Error()
		resp.ErrorKind = "invalid_request"
		resp.LatencyMS = g.since(start)
		g.monitor.Record(monitor.Outcome{Feature: feature, Failed: true})
		tracing.SetError(span, ErrEmptyPrompt)
		return resp
	}

	useCache := g.cache != nil && opts.CacheEnabled && optIn(req.CacheEnabled)
	if useCache {
		resp.CacheKey = cache.Key(req.Prompt, feature)
		var hit Response
		if g.cache.GetJSON(ctx, req.Prompt, feature, &hit) {
			hit.Cached = true
			hit.CostUSD = 0
			hit.Retries = 0
			hit.Error, hit.ErrorKind = "", ""
			hit.RequestID = requestID
			hit.CacheKey = resp.CacheKey
			hit.Tier = tier.String()
			hit.LatencyMS = g.since(start)

			g.monitor.Record(monitor.Outcome{
				Provider:  hit.Provider,
				Model:     hit.Model,
				Feature:   feature,
				Cached:    true,
				TokensIn:  hit.TokensIn,
				TokensOut: hit.TokensOut,
				Latency:   g.now().Sub(start),
			})
			span.SetAttributes(tracing.AttrCached.Bool(true))
			g.logger.DebugContext(ctx, "cache hit", "cache_key", hit.CacheKey)
			return hit
		}
	}

	prompt := req.Prompt
	if opts.CompressionEnabled && optIn(req.CompressionEnabled) {
		if compressed, changed := Compress(prompt, opts.TargetRatio, opts.CompressionThreshold); changed {
			g.logger.DebugContext(ctx, "prompt compressed", "from_chars", len(prompt), "to_chars", len(compressed))
			prompt = compressed
			resp.Compressed = true
		}
	}
	span.SetAttributes(tracing.AttrCompressed.Bool(resp.Compressed))

	sel, err := g.router.Select(tier)
	if err != nil {
		resp.Error = err.Error()
		resp.ErrorKind = "routing"
		resp.LatencyMS = g.since(start)
		g.monitor.Record(monitor.Outcome{Feature: feature, Failed: true, Latency: g.now().Sub(start)})
		tracing.SetError(span, err)
		return resp
	}

	maxRetries := opts.MaxRetries
	if req.MaxRetries != nil {
		maxRetries = max(*req.MaxRetries, 0)
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = opts.DefaultTimeout
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = opts.DefaultMaxTokens
	}
	qreq := providers.QueryRequest{
		Prompt:       prompt,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    maxTokens,
		Temperature:  req.Temperature,
		Timeout:      timeout,
		ParseJSON:    req.OutputFormat == FormatJSON,
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			next, ok := g.router.GetFallback(sel.Provider, tier)
			if !ok {
				next, err = g.router.Select(tier)
				if err != nil {
					lastErr = errors.Join(lastErr, err)
					break
				}
			}
			g.logger.InfoContext(ctx, "failing over",
				"from", sel.Provider, "to", next.Provider, "attempt", attempt+1)
			sel = next
		}

		attempts++
		result, err := g.attempt(ctx, sel, qreq, attempt+1)
		if err == nil {
			resp.Text = result.Text
			resp.Parsed = result.Parsed
			resp.Provider = sel.Provider
			resp.Model = sel.Model
			resp.TokensIn = result.TokensIn
			resp.TokensOut = result.TokensOut
			resp.CostUSD = result.CostUSD
			resp.Confidence = result.Confidence
			resp.SafetyBlocked = result.SafetyBlocked
			resp.Retries = attempt
			resp.LatencyMS = g.since(start)

			g.monitor.Record(monitor.Outcome{
				Provider:  sel.Provider,
				Model:     sel.Model,
				Feature:   feature,
				TokensIn:  result.TokensIn,
				TokensOut: result.TokensOut,
				CostUSD:   result.CostUSD,
				Latency:   g.now().Sub(start),
			})
			if useCache && result.Text != "" && !result.SafetyBlocked {
				g.cache.SetJSON(ctx, req.Prompt, feature, resp)
			}

			span.SetAttributes(tracing.AttrProvider.String(sel.Provider), tracing.AttrRetries.Int(attempt))
			span.SetAttributes(tracing.UsageAttributes(result.TokensIn, result.TokensOut, result.CostUSD)...)
			tracing.SetError(span, nil)
			return resp
		}

		lastErr = err
		g.router.MarkUnhealthy(sel.Provider, opts.UnhealthyCooldown)
		g.logger.WarnContext(ctx, "provider attempt failed",
			"provider", sel.Provider,
			"model", sel.Model,
			"attempt", attempt+1,
			"error_kind", providers.Classify(err),
			"error", err,
		)

		if ctx.Err() != nil {
			break
		}
	}

	final := fmt.Errorf("%w after %d attempt(s): %w", ErrRetriesExhausted, attempts, lastErr)
	resp.Error = final.Error()
	resp.ErrorKind = providers.Classify(lastErr)
	resp.Provider = sel.Provider
	resp.Model = sel.Model
	resp.Retries = max(attempts-1, 0)
	resp.LatencyMS = g.since(start)

	g.monitor.Record(monitor.Outcome{
		Provider: sel.Provider,
		Model:    sel.Model,
		Feature:  feature,
		Failed:   true,
		Latency:  g.now().Sub(start),
	})
	span.SetAttributes(
		tracing.AttrProvider.String(sel.Provider),
		tracing.AttrRetries.Int(resp.Retries),
		tracing.AttrErrorKind.String(resp.ErrorKind),
	)
	tracing.SetError(span, final)
	g.logger.ErrorContext(ctx, "request failed", "attempts", attempts, "error", final)
	return resp
}

// attempt makes one provider call under its own timeout.
func (g *Gateway) attempt(ctx context.Context, sel routing.Selection, qreq providers.QueryRequest, n int) (*providers.QueryResult, error) {
	ctx = logging.WithProvider(ctx, sel.Provider)
	ctx, span := g.tracer.Start(ctx, "gateway.attempt",
		trace.WithAttributes(tracing.AttemptAttributes(sel.Provider, sel.Model, n)...))
	defer span.End()

	adapter, err := g.registry.Get(sel.Provider)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	actx, cancel := providers.WithAttemptTimeout(ctx, qreq.Timeout)
	defer cancel()

	qreq.Model = sel.Model
	result, err := safeQuery(actx, adapter, &qreq)
	if err != nil && actx.Err() != nil && !errors.Is(err, providers.ErrTransient) {
		err = providers.ContextError(actx, sel.Provider, qreq.Timeout)
	}
	if err == nil && result == nil {
		err = &providers.ProviderError{Provider: sel.Provider, Message: "adapter returned no result"}
	}

	if err == nil {
		span.SetAttributes(attribute.Bool("llmgw.safety_blocked", result.SafetyBlocked))
	}
	tracing.SetError(span, err)
	return result, err
}

func safeQuery(ctx context.Context, a providers.Adapter, req *providers.QueryRequest) (result *providers.QueryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &providers.ProviderError{Provider: a.Name(), Message: "adapter panicked", Cause: &PanicError{Value: r}}
		}
	}()
	return a.Query(ctx, req)
}

func (g *Gateway) resolveTier(req Request, opts Options) routing.Tier {
	if req.Tier != nil {
		return *req.Tier
	}
	return DetectComplexity(req.Prompt, opts.ComplexityThreshold)
}

func (g *Gateway) since(start time.Time) int64 {
	return g.now().Sub(start).Milliseconds()
}

func optIn(flag *bool) bool {
	return flag == nil || *flag
}

// SubmitBatch submits reqs concurrently, at most BatchConcurrency at a time.
// The i-th response answers the i-th request; one failure never affects
// another slot.
func (g *Gateway) SubmitBatch(ctx context.Context, reqs []Request) []Response {
	out := make([]Response, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	sem := make(chan struct{}, g.Options().BatchConcurrency)
	var wg sync.WaitGroup
	for i := range reqs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			out[i] = g.Submit(ctx, reqs[i])
		}(i)
	}
	wg.Wait()
	return out
}

// Estimate resolves tier, provider and model the way Submit would and prices
// the call from the character heuristic and the request's output budget. It
// does not call providers, read or write the cache, record to the monitor
// or change router health.
func (g *Gateway) Estimate(req Request) (Estimate, error) {
	opts := g.Options()
	tier := g.resolveTier(req, opts)

	feature := req.Feature
	if feature == "" {
		feature = DefaultFeature
	}
	sel, err := g.router.Peek(tier, feature+"\x00"+req.Prompt)
	if err != nil {
		return Estimate{}, err
	}
	adapter, err := g.registry.Get(sel.Provider)
	if err != nil {
		return Estimate{}, err
	}

	prompt := req.Prompt
	if opts.CompressionEnabled && optIn(req.CompressionEnabled) {
		prompt, _ = Compress(prompt, opts.TargetRatio, opts.CompressionThreshold)
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = opts.DefaultMaxTokens
	}
	tokensIn := providers.EstimateInputTokens(req.SystemPrompt, prompt)

	return Estimate{
		Tier:      tier.String(),
		Provider:  sel.Provider,
		Model:     sel.Model,
		TokensIn:  tokensIn,
		TokensOut: maxTokens,
		CostUSD:   adapter.EstimateCost(sel.Model, tokensIn, maxTokens),
	}, nil
}

// EstimateCost returns Estimate's cost, or 0 when no provider can be
// resolved.
func (g *Gateway) EstimateCost(req Request) float64 {
	est, err := g.Estimate(req)
	if err != nil {
		g.logger.Debug("estimate failed", "error", err)
		return 0
	}
	return est.CostUSD
}

// GetStats returns a snapshot of monitor, cache and routing state.
func (g *Gateway) GetStats() StatsReport {
	opts := g.Options()
	report := StatsReport{
		Enabled:   opts.Enabled,
		Monitor:   g.monitor.Stats(),
		Routing:   g.router.Stats(),
		Unhealthy: g.router.UnhealthyProviders(),
		Providers: g.registry.Names(),
		Options:   opts,

		ProviderHealth: g.registry.Health(),
	}
	if g.cache != nil {
		s := g.cache.Stats()
		report.Cache = &s
	}
	return report
}

// Close releases provider adapters and the cache.
func (g *Gateway) Close() error {
	var errs []error
	errs = append(errs, g.registry.Close())
	if g.cache != nil {
		errs = append(errs, g.cache.Close())
	}
	return errors.Join(errs...)
}
