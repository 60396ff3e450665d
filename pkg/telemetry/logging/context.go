package logging

import "context"

type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// FeatureKey is the context key for the caller's feature namespace.
	FeatureKey contextKey = "feature"

	// ProviderKey is the context key for provider names.
	ProviderKey contextKey = "provider"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithFeature adds a feature name to the context.
func WithFeature(ctx context.Context, feature string) context.Context {
	return context.WithValue(ctx, FeatureKey, feature)
}

// GetFeature retrieves the feature name from the context.
func GetFeature(ctx context.Context) string {
	if feature, ok := ctx.Value(FeatureKey).(string); ok {
		return feature
	}
	return ""
}

// WithProvider adds a provider name to the context.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// GetProvider retrieves the provider name from the context.
func GetProvider(ctx context.Context) string {
	if provider, ok := ctx.Value(ProviderKey).(string); ok {
		return provider
	}
	return ""
}

// contextAttrs returns the non-empty context fields as key/value pairs.
func contextAttrs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	var args []any
	if v := GetRequestID(ctx); v != "" {
		args = append(args, string(RequestIDKey), v)
	}
	if v := GetFeature(ctx); v != "" {
		args = append(args, string(FeatureKey), v)
	}
	if v := GetProvider(ctx); v != "" {
		args = append(args, string(ProviderKey), v)
	}
	return args
}
