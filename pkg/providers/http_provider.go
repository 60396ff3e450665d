package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// HTTPProvider is the base implementation for HTTP-based provider adapters.
// It provides connection pooling, an optional outbound rate limiter,
// deadline-aware error mapping, and request counters.
//
// Concrete adapters embed this struct and implement Query on top of
// DoJSONRequest.
type HTTPProvider struct {
	// config contains the provider configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// limiter throttles outbound calls when RequestsPerSecond is set
	limiter *rate.Limiter

	// pricing prices this provider's models
	pricing *Pricing

	logger *slog.Logger

	health HealthCounter
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	p := &HTTPProvider{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		limiter: NewLimiter(config.RequestsPerSecond, config.Burst),
		pricing: NewPricing(config.Pricing, config.DefaultModel),
		logger:  slog.Default().With("component", "provider", "provider", config.Name),
	}

	return p
}

// NewLimiter returns a token-bucket limiter, or nil when rps is not positive.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Name returns the provider's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// GetConfig returns the provider's configuration.
func (p *HTTPProvider) GetConfig() ProviderConfig {
	return p.config
}

// Pricing returns the provider's pricing table.
func (p *HTTPProvider) Pricing() *Pricing {
	return p.pricing
}

// Logger returns the provider-scoped logger.
func (p *HTTPProvider) Logger() *slog.Logger {
	return p.logger
}

// EstimateCost prices the token counts using the provider's pricing table.
func (p *HTTPProvider) EstimateCost(model string, tokensIn, tokensOut int) float64 {
	return p.pricing.Cost(model, tokensIn, tokensOut)
}

// RequireAPIKey returns a *ConfigError when no API key is configured.
func (p *HTTPProvider) RequireAPIKey() error {
	if p.config.APIKey == "" {
		return &ConfigError{
			Provider: p.config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}
	return nil
}

// GetHealth returns the request counters.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	return p.health.Snapshot()
}

func (p *HTTPProvider) recordRequest(err error) {
	p.health.Record(err)
}

// WithAttemptTimeout derives the per-call context. A zero timeout keeps ctx.
func WithAttemptTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// ContextError maps a done context to a *TimeoutError, or returns nil.
func ContextError(ctx context.Context, provider string, timeout time.Duration) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Provider: provider, Timeout: timeout, Cause: err}
	}
	return &ProviderError{Provider: provider, Message: "request cancelled", Cause: err}
}

// DoRequest performs an HTTP request, retrying network errors and 5xx
// responses up to MaxRetries with exponential backoff. The context deadline
// aborts the in-flight call.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &RateLimitError{Provider: p.config.Name, Message: err.Error()}
		}
	}

	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 250 * time.Millisecond
			p.logger.Debug("retrying request",
				"attempt", attempt,
				"max_retries", p.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ContextError(ctx, p.config.Name, timeout)
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := p.client.Do(req)
		if err != nil {
			if ctxErr := ContextError(ctx, p.config.Name, timeout); ctxErr != nil {
				p.recordRequest(ctxErr)
				return nil, ctxErr
			}

			lastErr = &ProviderError{Provider: p.config.Name, Message: "request failed", Cause: err}
			p.recordRequest(lastErr)
			p.logger.Warn("request failed", "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			p.recordRequest(nil)
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			err := &AuthError{Provider: p.config.Name, Message: string(errorBody)}
			p.recordRequest(err)
			return nil, err

		case http.StatusTooManyRequests:
			err := &RateLimitError{
				Provider:   p.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(errorBody),
			}
			p.recordRequest(err)
			return nil, err

		case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
			err := &ProviderError{
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			p.recordRequest(err)
			return nil, err

		default:
			lastErr = &ProviderError{
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			p.recordRequest(lastErr)
			p.logger.Warn("request returned error status",
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	return nil, lastErr
}

// DoJSONRequest performs a JSON request and decodes the response.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody any, respBody any, headers map[string]string) error {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	resp, err := p.DoRequest(ctx, method, url, bodyBytes, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	responseBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ContextError(ctx, p.config.Name, 0); ctxErr != nil {
			return ctxErr
		}
		return &ProviderError{
			Provider: p.config.Name,
			Message:  "failed to read response",
			Cause:    err,
		}
	}

	if respBody != nil && len(responseBytes) > 0 {
		if err := json.Unmarshal(responseBytes, respBody); err != nil {
			return &ProviderError{
				Provider: p.config.Name,
				Message:  "malformed response body",
				Cause: &ParseError{
					Provider:    p.config.Name,
					RawResponse: string(responseBytes),
					Cause:       err,
				},
			}
		}
	}

	return nil
}

// Close closes idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	p.logger.Debug("provider closed")
	return nil
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
