package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &ProviderError{Provider: "p", StatusCode: 503}, true},
		{"network error", &ProviderError{Provider: "p"}, true},
		{"bad request", &ProviderError{Provider: "p", StatusCode: 400}, false},
		{"rate limit", &RateLimitError{Provider: "p"}, true},
		{"timeout", &TimeoutError{Provider: "p", Timeout: time.Second}, true},
		{"wrapped timeout", fmt.Errorf("attempt 2: %w", &TimeoutError{Provider: "p"}), true},
		{"auth", &AuthError{Provider: "p"}, false},
		{"config", &ConfigError{Provider: "p", Field: "api_key"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&ConfigError{}, "config"},
		{&AuthError{}, "auth"},
		{&RateLimitError{}, "rate_limit"},
		{&TimeoutError{}, "timeout"},
		{&ProviderError{StatusCode: 502}, "transient"},
		{&ProviderError{StatusCode: 400}, "provider"},
		{errors.New("boom"), "provider"},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestContextError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	<-ctx.Done()

	err := ContextError(ctx, "p", time.Millisecond)
	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("TimeoutError should unwrap to context.DeadlineExceeded")
	}

	if ContextError(context.Background(), "p", 0) != nil {
		t.Error("live context should not produce an error")
	}
}
