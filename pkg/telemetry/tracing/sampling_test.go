package tracing

import (
	"testing"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{"default", "", 0, false},
		{"always", SamplerAlways, 0, false},
		{"never", SamplerNever, 0, false},
		{"ratio 50%", SamplerRatio, 0.5, false},
		{"ratio 100%", SamplerRatio, 1.0, false},
		{"ratio negative", SamplerRatio, -0.1, true},
		{"ratio above one", SamplerRatio, 1.5, true},
		{"unknown strategy", "sometimes", 0.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && sampler == nil {
				t.Error("createSampler() returned nil sampler")
			}
		})
	}
}
