package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tickerwire/llmgateway/internal/providertest"
	"tickerwire/llmgateway/pkg/cache"
	"tickerwire/llmgateway/pkg/monitor"
	"tickerwire/llmgateway/pkg/providers"
	"tickerwire/llmgateway/pkg/routing"
)

// testRoutingConfig routes every tier to a single provider so selections are
// deterministic: SIMPLE and MEDIUM to alpha, COMPLEX to beta, CRITICAL to
// gamma, with fallbacks alpha -> beta -> gamma.
func testRoutingConfig() routing.Config {
	return routing.Config{
		Distribution: map[routing.Tier][]routing.Weighted{
			routing.Simple:   {{Provider: "alpha", Probability: 1}},
			routing.Medium:   {{Provider: "alpha", Probability: 1}},
			routing.Complex:  {{Provider: "beta", Probability: 1}},
			routing.Critical: {{Provider: "gamma", Probability: 1}},
		},
		Models: map[string]string{
			"alpha": "alpha-model",
			"beta":  "beta-model",
			"gamma": "gamma-model",
		},
		Fallbacks: map[string]string{
			"alpha": "beta",
			"beta":  "gamma",
		},
		DefaultProvider: "alpha",
	}
}

type harness struct {
	gw       *Gateway
	router   *routing.Router
	cache    *cache.Cache
	monitor  *monitor.Monitor
	adapters map[string]*providertest.MockAdapter
}

func newHarness(t *testing.T, opts Options, observers ...Observer) *harness {
	t.Helper()

	router, err := routing.New(testRoutingConfig(), routing.WithSeed(1))
	if err != nil {
		t.Fatalf("routing.New() error = %v", err)
	}

	registry := providers.NewRegistry()
	adapters := make(map[string]*providertest.MockAdapter)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		a := providertest.NewMockAdapter(name)
		adapters[name] = a
		registry.Register(a)
	}

	c := cache.New(context.Background(), cache.Config{}, nil)
	m := monitor.New(monitor.Thresholds{})

	gw, err := New(&Context{
		Registry:  registry,
		Router:    router,
		Cache:     c,
		Monitor:   m,
		Observers: observers,
		Options:   &opts,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &harness{gw: gw, router: router, cache: c, monitor: m, adapters: adapters}
}

func (h *harness) totalCalls() int {
	n := 0
	for _, a := range h.adapters {
		n += a.Calls()
	}
	return n
}

func TestNew_RequiresRegistryAndRouter(t *testing.T) {
	router, _ := routing.New(testRoutingConfig())
	tests := []struct {
		name string
		gc   *Context
	}{
		{"nil context", nil},
		{"missing registry", &Context{Router: router}},
		{"missing router", &Context{Registry: providers.NewRegistry()}},
		{"bad ratio", &Context{Registry: providers.NewRegistry(), Router: router, Options: &Options{Enabled: true, TargetRatio: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.gc)
			if !errors.Is(err, ErrInvalidContext) {
				t.Errorf("New() error = %v, want ErrInvalidContext", err)
			}
		})
	}
}

func TestNew_NilOptionsUseDefaults(t *testing.T) {
	router, _ := routing.New(testRoutingConfig())
	gw, err := New(&Context{Registry: providers.NewRegistry(), Router: router})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := gw.Options(); got != DefaultOptions() {
		t.Errorf("Options() = %+v, want defaults", got)
	}
}

func TestNew_PartialOptionsFillNumericDefaults(t *testing.T) {
	h := newHarness(t, Options{Enabled: true, MaxRetries: 3})
	got := h.gw.Options()
	if !got.Enabled || got.MaxRetries != 3 {
		t.Errorf("Enabled=%v MaxRetries=%d, want true/3", got.Enabled, got.MaxRetries)
	}
	d := DefaultOptions()
	if got.DefaultTimeout != d.DefaultTimeout || got.BatchConcurrency != d.BatchConcurrency {
		t.Errorf("numeric defaults not filled: %+v", got)
	}
	if got.CacheEnabled {
		t.Error("CacheEnabled = true, want the switch taken as given")
	}
}

func TestSubmit_Success(t *testing.T) {
	h := newHarness(t, DefaultOptions())

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello world", Feature: "news_x", OutputFormat: FormatJSON})

	if !resp.OK() {
		t.Fatalf("Submit() error = %s", resp.Error)
	}
	if resp.Provider != "alpha" || resp.Model != "alpha-model" {
		t.Errorf("served by %s/%s, want alpha/alpha-model", resp.Provider, resp.Model)
	}
	if resp.Tier != "SIMPLE" {
		t.Errorf("Tier = %s, want SIMPLE", resp.Tier)
	}
	if resp.Cached || resp.Retries != 0 {
		t.Errorf("Cached=%v Retries=%d, want false/0", resp.Cached, resp.Retries)
	}
	if resp.TokensIn != 3 || resp.TokensOut != 8 {
		t.Errorf("tokens = %d/%d, want 3/8", resp.TokensIn, resp.TokensOut)
	}
	if want := h.adapters["alpha"].EstimateCost("alpha-model", 3, 8); resp.CostUSD != want {
		t.Errorf("CostUSD = %v, want %v", resp.CostUSD, want)
	}
	parsed, ok := resp.Parsed.(map[string]any)
	if !ok || parsed["answer"] != "ok" {
		t.Errorf("Parsed = %#v, want answer=ok", resp.Parsed)
	}
	if resp.Confidence == nil || *resp.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", resp.Confidence)
	}
	if resp.RequestID == "" || resp.CacheKey == "" {
		t.Errorf("RequestID=%q CacheKey=%q, want both set", resp.RequestID, resp.CacheKey)
	}

	s := h.monitor.Stats()
	if s.TotalRequests != 1 || s.TotalCost != resp.CostUSD {
		t.Errorf("monitor = %d requests, %v cost", s.TotalRequests, s.TotalCost)
	}
}

func TestSubmit_CacheHitNeverDoubleCounts(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	ctx := context.Background()
	req := Request{Prompt: "Summarize filing 0000320193-24-000001", Feature: "sec_8k"}

	first := h.gw.Submit(ctx, req)
	if !first.OK() || first.Cached {
		t.Fatalf("first Submit() = %+v", first)
	}

	req.Prompt = "summarize   FILING 0000320193-24-000777"
	second := h.gw.Submit(ctx, req)
	if !second.Cached {
		t.Fatal("second Submit() should be a cache hit")
	}
	if second.Text != first.Text || second.Provider != first.Provider {
		t.Errorf("cached response differs: %+v vs %+v", second, first)
	}
	if second.CostUSD != 0 {
		t.Errorf("cached CostUSD = %v, want 0", second.CostUSD)
	}
	if second.RequestID == first.RequestID {
		t.Error("cache hit should carry its own request ID")
	}
	if h.totalCalls() != 1 {
		t.Errorf("provider calls = %d, want 1", h.totalCalls())
	}

	s := h.monitor.Stats()
	if s.TotalCost != first.CostUSD {
		t.Errorf("TotalCost = %v, want %v (cost counted once)", s.TotalCost, first.CostUSD)
	}
	if s.CacheHits != 1 || s.CacheMisses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", s.CacheHits, s.CacheMisses)
	}
	if s.ByProvider["alpha"].Requests != 1 {
		t.Errorf("ByProvider[alpha].Requests = %d, want 1", s.ByProvider["alpha"].Requests)
	}
}

func TestSubmit_PanickingAlertSinkDoesNotFailRequest(t *testing.T) {
	router, err := routing.New(testRoutingConfig(), routing.WithSeed(1))
	if err != nil {
		t.Fatalf("routing.New() error = %v", err)
	}
	registry := providers.NewRegistry()
	alpha := providertest.NewMockAdapter("alpha")
	registry.Register(alpha)

	c := cache.New(context.Background(), cache.Config{}, nil)
	m := monitor.New(monitor.Thresholds{DailyCostAlert: 1e-9},
		monitor.WithAlertSink(monitor.AlertSinkFunc(func(monitor.Alert) { panic("sink down") })))
	gw, err := New(&Context{Registry: registry, Router: router, Cache: c, Monitor: m})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	req := Request{Prompt: "hello world", Feature: "alerts"}
	resp := gw.Submit(context.Background(), req)
	if !resp.OK() || resp.Text == "" {
		t.Fatalf("Submit() = %+v, want success", resp)
	}
	if again := gw.Submit(context.Background(), req); !again.Cached {
		t.Error("response was not cached after the alert sink panicked")
	}
	if n := alpha.Calls(); n != 1 {
		t.Errorf("provider calls = %d, want 1", n)
	}
}

func TestSubmit_CacheOptOut(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	ctx := context.Background()
	off := false
	req := Request{Prompt: "same prompt", CacheEnabled: &off}

	h.gw.Submit(ctx, req)
	resp := h.gw.Submit(ctx, req)
	if resp.Cached || resp.CacheKey != "" {
		t.Errorf("opted-out request used cache: %+v", resp)
	}
	if h.totalCalls() != 2 {
		t.Errorf("provider calls = %d, want 2", h.totalCalls())
	}
}

func TestSubmit_SafetyBlockedNotCached(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.adapters["alpha"].SetSafetyBlocked(true)
	ctx := context.Background()

	resp := h.gw.Submit(ctx, Request{Prompt: "blocked prompt"})
	if !resp.OK() {
		t.Fatalf("safety block should not be an error: %s", resp.Error)
	}
	if !resp.SafetyBlocked || resp.Text != "" || resp.CostUSD != 0 {
		t.Errorf("response = %+v, want empty safety-blocked result", resp)
	}

	h.gw.Submit(ctx, Request{Prompt: "blocked prompt"})
	if h.adapters["alpha"].Calls() != 2 {
		t.Errorf("alpha calls = %d, want 2 (blocked results are not cached)", h.adapters["alpha"].Calls())
	}
}

func TestSubmit_FailoverMarksUnhealthy(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.adapters["alpha"].SetFail(true)

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello"})

	if !resp.OK() {
		t.Fatalf("Submit() error = %s", resp.Error)
	}
	if resp.Provider != "beta" || resp.Retries != 1 {
		t.Errorf("served by %s after %d retries, want beta after 1", resp.Provider, resp.Retries)
	}
	if h.router.IsHealthy("alpha") {
		t.Error("alpha should be marked unhealthy")
	}

	s := h.monitor.Stats()
	if s.Errors != 0 || s.ByProvider["beta"].Requests != 1 {
		t.Errorf("monitor = %+v", s)
	}
}

func TestSubmit_NeverThrowsWhenRetriesExhausted(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	for _, a := range h.adapters {
		a.SetFail(true)
	}

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello"})

	if resp.OK() {
		t.Fatal("Submit() succeeded, want failure")
	}
	if !strings.Contains(resp.Error, ErrRetriesExhausted.Error()) {
		t.Errorf("Error = %q, want it to mention exhausted retries", resp.Error)
	}
	if resp.Text != "" {
		t.Errorf("Text = %q, want empty", resp.Text)
	}
	if resp.Retries != 2 {
		t.Errorf("Retries = %d, want 2", resp.Retries)
	}
	if resp.Provider != "gamma" {
		t.Errorf("Provider = %s, want gamma (last attempt)", resp.Provider)
	}
	if resp.ErrorKind != "transient" {
		t.Errorf("ErrorKind = %s, want transient", resp.ErrorKind)
	}
	if resp.LatencyMS < 0 {
		t.Errorf("LatencyMS = %d", resp.LatencyMS)
	}
	if h.totalCalls() != 3 {
		t.Errorf("provider calls = %d, want 3", h.totalCalls())
	}

	s := h.monitor.Stats()
	if s.Errors != 1 || s.TotalCost != 0 {
		t.Errorf("monitor errors=%d cost=%v, want 1/0", s.Errors, s.TotalCost)
	}
	if _, ok := h.cache.Get(context.Background(), "hello", DefaultFeature); ok {
		t.Error("failed response must not be cached")
	}
}

func TestSubmit_ChainEndReselects(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	for _, a := range h.adapters {
		a.SetFail(true)
	}
	retries := 4

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello", MaxRetries: &retries})

	if resp.Retries != 4 {
		t.Errorf("Retries = %d, want 4", resp.Retries)
	}
	// alpha -> beta -> gamma -> (chain end, reselect SIMPLE) alpha -> beta
	want := map[string]int{"alpha": 2, "beta": 2, "gamma": 1}
	for name, n := range want {
		if got := h.adapters[name].Calls(); got != n {
			t.Errorf("%s calls = %d, want %d", name, got, n)
		}
	}
}

func TestSubmit_ZeroRetries(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.adapters["alpha"].SetFail(true)
	zero := 0

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello", MaxRetries: &zero})
	if resp.OK() || resp.Retries != 0 || h.totalCalls() != 1 {
		t.Errorf("resp=%+v calls=%d, want one failed attempt", resp, h.totalCalls())
	}
}

func TestSubmit_TimeoutFailsOver(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.adapters["alpha"].SetDelay(2 * time.Second)

	start := time.Now()
	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello", Timeout: 30 * time.Millisecond})
	elapsed := time.Since(start)

	if !resp.OK() || resp.Provider != "beta" {
		t.Fatalf("resp = %+v, want beta to serve after alpha times out", resp)
	}
	if elapsed > time.Second {
		t.Errorf("Submit took %v; the timed-out attempt was not aborted", elapsed)
	}
}

func TestSubmit_TimeoutKind(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	for _, a := range h.adapters {
		a.SetDelay(time.Second)
	}
	zero := 0

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello", Timeout: 20 * time.Millisecond, MaxRetries: &zero})
	if resp.ErrorKind != "timeout" {
		t.Errorf("ErrorKind = %q, want timeout (error: %s)", resp.ErrorKind, resp.Error)
	}
}

func TestSubmit_AdapterPanicFailsOver(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.adapters["alpha"].SetPanic(true)

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello"})
	if !resp.OK() || resp.Provider != "beta" {
		t.Errorf("resp = %+v, want beta after alpha panic", resp)
	}
}

func TestSubmit_MissingAdapterFailsOver(t *testing.T) {
	router, _ := routing.New(testRoutingConfig())
	registry := providers.NewRegistry()
	beta := providertest.NewMockAdapter("beta")
	registry.Register(beta)

	gw, err := New(&Context{Registry: registry, Router: router})
	if err != nil {
		t.Fatal(err)
	}
	resp := gw.Submit(context.Background(), Request{Prompt: "hello"})
	if !resp.OK() || resp.Provider != "beta" {
		t.Errorf("resp = %+v, want beta", resp)
	}
}

func TestSubmit_Disabled(t *testing.T) {
	opts := DefaultOptions()
	opts.Enabled = false
	h := newHarness(t, opts)

	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello"})
	if resp.Error != ErrDisabled.Error() {
		t.Errorf("Error = %q, want %q", resp.Error, ErrDisabled.Error())
	}
	if h.totalCalls() != 0 {
		t.Errorf("provider calls = %d, want 0", h.totalCalls())
	}

	opts.Enabled = true
	if err := h.gw.Reload(opts); err != nil {
		t.Fatal(err)
	}
	if resp := h.gw.Submit(context.Background(), Request{Prompt: "hello"}); !resp.OK() {
		t.Errorf("after re-enable Error = %s", resp.Error)
	}
}

func TestSubmit_EmptyPrompt(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	resp := h.gw.Submit(context.Background(), Request{})
	if resp.Error != ErrEmptyPrompt.Error() || h.totalCalls() != 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSubmit_ExplicitTierAndDetection(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	ctx := context.Background()
	critical := routing.Critical

	if resp := h.gw.Submit(ctx, Request{Prompt: "plain", Tier: &critical}); resp.Provider != "gamma" {
		t.Errorf("explicit CRITICAL served by %s, want gamma", resp.Provider)
	}
	if resp := h.gw.Submit(ctx, Request{Prompt: "Analyze the quarter"}); resp.Provider != "beta" || resp.Tier != "COMPLEX" {
		t.Errorf("detected tier %s served by %s, want COMPLEX/beta", resp.Tier, resp.Provider)
	}
}

func TestSubmit_Compression(t *testing.T) {
	opts := DefaultOptions()
	opts.CompressionEnabled = true
	h := newHarness(t, opts)
	h.adapters["alpha"].SetEcho(true)

	long := "Return JSON.\n" + strings.Repeat("filler text line\n", 400)
	resp := h.gw.Submit(context.Background(), Request{Prompt: long, Tier: ptr(routing.Medium)})
	if !resp.Compressed {
		t.Fatal("long prompt should be compressed")
	}
	if len(resp.Text) >= len(long) {
		t.Errorf("provider saw %d chars, want fewer than %d", len(resp.Text), len(long))
	}
	if !strings.HasPrefix(resp.Text, "Return JSON.") {
		t.Error("compression dropped the leading instruction")
	}
	if _, ok := h.cache.Get(context.Background(), long, DefaultFeature); !ok {
		t.Error("cache entry should be keyed by the original prompt")
	}
}

type recordingObserver struct {
	mu    sync.Mutex
	resps []Response
}

func (o *recordingObserver) ObserveResponse(_ context.Context, _ Request, resp Response) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resps = append(o.resps, resp)
	return nil
}

func TestSubmit_Observers(t *testing.T) {
	rec := &recordingObserver{}
	failing := ObserverFunc(func(context.Context, Request, Response) error { return errors.New("sink down") })
	panicking := ObserverFunc(func(context.Context, Request, Response) error { panic("observer bug") })

	h := newHarness(t, DefaultOptions(), failing, panicking, rec)
	resp := h.gw.Submit(context.Background(), Request{Prompt: "hello"})

	if !resp.OK() {
		t.Fatalf("observer failures leaked into response: %s", resp.Error)
	}
	if len(rec.resps) != 1 || rec.resps[0].RequestID != resp.RequestID {
		t.Errorf("observer saw %d responses", len(rec.resps))
	}
}

func TestSubmitBatch_OrderAndIsolation(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	for _, a := range h.adapters {
		a.SetEcho(true)
		a.FailWhenPromptContains("POISON")
	}

	reqs := []Request{
		{Prompt: "request one"},
		{Prompt: "request two"},
		{Prompt: "request three POISON"},
		{Prompt: "request four"},
		{Prompt: "request five"},
	}
	resps := h.gw.SubmitBatch(context.Background(), reqs)

	if len(resps) != len(reqs) {
		t.Fatalf("got %d responses, want %d", len(resps), len(reqs))
	}
	for i, resp := range resps {
		if i == 2 {
			if resp.OK() {
				t.Error("request #3 should fail")
			}
			continue
		}
		if !resp.OK() {
			t.Errorf("request #%d failed: %s", i+1, resp.Error)
		}
		if resp.Text != reqs[i].Prompt {
			t.Errorf("response #%d text = %q, want %q", i+1, resp.Text, reqs[i].Prompt)
		}
	}
}

func TestSubmitBatch_Empty(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	if got := h.gw.SubmitBatch(context.Background(), nil); len(got) != 0 {
		t.Errorf("SubmitBatch(nil) = %d responses", len(got))
	}
}

func TestEstimateCost_DryRunParity(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	req := Request{Prompt: strings.Repeat("x", 4000), MaxTokens: 1000}

	est, err := h.gw.Estimate(req)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	if est.Tier != "MEDIUM" || est.Provider != "alpha" || est.TokensIn != 1000 || est.TokensOut != 1000 {
		t.Errorf("Estimate() = %+v", est)
	}
	// 1000 in at $1/1K plus 1000 out at $2/1K
	if got := h.gw.EstimateCost(req); got != 3.0 {
		t.Errorf("EstimateCost() = %v, want 3.0", got)
	}

	if h.totalCalls() != 0 {
		t.Errorf("provider calls = %d, want 0", h.totalCalls())
	}
	if s := h.monitor.Stats(); s.TotalRequests != 0 {
		t.Errorf("monitor recorded %d requests", s.TotalRequests)
	}
	if s := h.cache.Stats(); s.Hits+s.Misses+s.Sets != 0 {
		t.Errorf("cache touched: %+v", s)
	}
	if s := h.router.Stats(); s.TotalSelections != 0 {
		t.Errorf("router selections = %d, want 0", s.TotalSelections)
	}

	resp := h.gw.Submit(context.Background(), req)
	if resp.Provider != est.Provider || resp.Model != est.Model || resp.TokensIn != est.TokensIn {
		t.Errorf("Submit() served %s/%s with %d tokens in, estimate said %s/%s/%d",
			resp.Provider, resp.Model, resp.TokensIn, est.Provider, est.Model, est.TokensIn)
	}
}

func TestEstimateCost_NoHealthMutation(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.router.MarkUnhealthy("alpha", time.Hour)

	est, err := h.gw.Estimate(Request{Prompt: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if est.Provider != "alpha" {
		// alpha is the only SIMPLE candidate, so the unfiltered list is used
		t.Errorf("Provider = %s, want alpha", est.Provider)
	}
	if h.router.IsHealthy("alpha") {
		t.Error("Estimate() cleared an unhealthy mark")
	}
}

func TestGetStats(t *testing.T) {
	h := newHarness(t, DefaultOptions())
	h.adapters["alpha"].SetFail(true)
	h.gw.Submit(context.Background(), Request{Prompt: "hello"})

	s := h.gw.GetStats()
	if !s.Enabled || s.Cache == nil || s.Routing == nil {
		t.Fatalf("GetStats() = %+v", s)
	}
	if s.Monitor.TotalRequests != 1 {
		t.Errorf("Monitor.TotalRequests = %d, want 1", s.Monitor.TotalRequests)
	}
	if _, ok := s.Unhealthy["alpha"]; !ok {
		t.Error("alpha should be listed as unhealthy")
	}
	if len(s.Providers) != 3 {
		t.Errorf("Providers = %v", s.Providers)
	}
	if s.Routing.Fallbacks != 1 {
		t.Errorf("Routing.Fallbacks = %d, want 1", s.Routing.Fallbacks)
	}
}

func ptr[T any](v T) *T { return &v }
