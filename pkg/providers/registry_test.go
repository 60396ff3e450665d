package providers

import (
	"context"
	"errors"
	"testing"
)

type stubAdapter struct {
	name   string
	closed bool
}

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Query(context.Context, *QueryRequest) (*QueryResult, error) {
	return &QueryResult{}, nil
}
func (s *stubAdapter) EstimateCost(string, int, int) float64 { return 0 }
func (s *stubAdapter) Close() error                          { s.closed = true; return nil }

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	first := &stubAdapter{name: "openai"}
	reg.Register(first)
	reg.Register(&stubAdapter{name: "gemini"})

	if got := reg.Names(); len(got) != 2 || got[0] != "gemini" || got[1] != "openai" {
		t.Errorf("Names() = %v", got)
	}

	if _, err := reg.Get("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("expected ErrProviderNotFound, got %v", err)
	}

	replacement := &stubAdapter{name: "openai"}
	reg.Register(replacement)
	if !first.closed {
		t.Error("replaced adapter should be closed")
	}
	got, err := reg.Get("openai")
	if err != nil || got != replacement {
		t.Errorf("Get() = %v, %v", got, err)
	}

	if err := reg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() after Close = %d", reg.Len())
	}
}

type countingAdapter struct {
	stubAdapter
	health HealthCounter
}

func (c *countingAdapter) GetHealth() ProviderHealth { return c.health.Snapshot() }

func TestRegistry_Health(t *testing.T) {
	reg := NewRegistry()
	counted := &countingAdapter{stubAdapter: stubAdapter{name: "openai"}}
	reg.Register(counted)
	reg.Register(&stubAdapter{name: "gemini"})

	counted.health.Record(nil)
	counted.health.Record(errors.New("502 bad gateway"))
	counted.health.Record(errors.New("502 bad gateway"))

	health := reg.Health()
	if _, ok := health["gemini"]; ok {
		t.Error("adapter without counters should be absent")
	}
	h, ok := health["openai"]
	if !ok {
		t.Fatal("openai counters missing")
	}
	if h.TotalRequests != 3 || h.FailedRequests != 2 || h.ConsecutiveFailures != 2 {
		t.Errorf("counters = %+v", h)
	}
	if h.LastError != "502 bad gateway" || h.LastSuccess.IsZero() {
		t.Errorf("LastError = %q, LastSuccess = %v", h.LastError, h.LastSuccess)
	}

	counted.health.Record(nil)
	if h := reg.Health()["openai"]; h.ConsecutiveFailures != 0 || h.LastError != "" {
		t.Errorf("success should reset failure streak: %+v", h)
	}
}
