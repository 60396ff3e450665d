package providers

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrTransient matches failures that are expected to clear on their own
// (timeouts, rate limiting, 5xx responses, network errors).
var ErrTransient = errors.New("transient provider failure")

// ErrProviderNotFound is returned by Registry.Get for unknown names.
var ErrProviderNotFound = errors.New("provider not found")

// ProviderError represents a general provider error.
// It includes the provider name, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is reports network failures, 408 and 5xx responses as transient.
func (e *ProviderError) Is(target error) bool {
	if target != ErrTransient {
		return false
	}
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode >= http.StatusInternalServerError
}

// AuthError represents an authentication failure.
// This occurs when the provider rejects the API key (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the provider.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// Is matches ErrTransient.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrTransient
}

// TimeoutError represents a request timeout.
// This occurs when a call exceeds its per-attempt deadline.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the deadline that was exceeded
	Timeout time.Duration

	// Cause is the context error
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Unwrap returns the context error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Is matches ErrTransient.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTransient
}

// ParseError represents a response parsing failure.
// Structured-output parse failures are logged, never returned from Query.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ConfigError represents a provider configuration error.
// It is returned from the first Query of a provider missing a required setting.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// IsTransient reports whether err is expected to clear on retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Classify returns a short, low-cardinality label for err suitable for logs
// and metric labels.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var (
		cfgErr   *ConfigError
		authErr  *AuthError
		rlErr    *RateLimitError
		toErr    *TimeoutError
		parseErr *ParseError
	)

	switch {
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rlErr):
		return "rate_limit"
	case errors.As(err, &toErr):
		return "timeout"
	case errors.As(err, &parseErr):
		return "parse"
	case IsTransient(err):
		return "transient"
	default:
		return "provider"
	}
}
