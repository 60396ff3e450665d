// Package tracing configures OpenTelemetry tracing for the gateway.
//
// When disabled, New returns a Tracer backed by the noop provider so callers
// can create spans unconditionally. When enabled, spans are exported over
// OTLP/gRPC in batches.
//
//	tracer, err := tracing.New(tracing.Config{
//	    Enabled:  true,
//	    Endpoint: "localhost:4317",
//	    Insecure: true,
//	    Sampler:  tracing.SamplerRatio,
//	    SampleRatio: 0.1,
//	})
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// The gateway opens one span per Submit and a child span per provider
// attempt. Attribute keys are defined in attributes.go.
package tracing
