package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"tickerwire/llmgateway/pkg/gateway"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func openTestStore(t *testing.T, clock *fakeClock) *Store {
	t.Helper()
	s, err := Open(Config{
		Path: filepath.Join(t.TempDir(), "usage.db"),
		Now:  clock.Now,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_ObserveAndRollup(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)}
	s := openTestStore(t, clock)
	ctx := context.Background()

	observe := func(req gateway.Request, resp gateway.Response) {
		t.Helper()
		if err := s.ObserveResponse(ctx, req, resp); err != nil {
			t.Fatalf("ObserveResponse() error = %v", err)
		}
	}

	observe(gateway.Request{Feature: "news_x"}, gateway.Response{RequestID: "r1", Provider: "gemini", TokensIn: 100, TokensOut: 50, CostUSD: 0.25})
	observe(gateway.Request{Feature: "news_x"}, gateway.Response{RequestID: "r2", Provider: "gemini", Cached: true, TokensIn: 100, TokensOut: 50})
	observe(gateway.Request{}, gateway.Response{RequestID: "r3", Provider: "openai", Error: "boom", ErrorKind: "transient"})
	observe(gateway.Request{}, gateway.Response{RequestID: "r4", Error: "gateway is disabled", ErrorKind: "disabled"})

	clock.t = clock.t.Add(time.Hour) // 2026-03-11
	observe(gateway.Request{Feature: "sec_8k"}, gateway.Response{RequestID: "r5", Provider: "gemini", TokensIn: 10, TokensOut: 10, CostUSD: 0.5})

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("Count() = %d, want 4 (disabled responses are skipped)", n)
	}

	got, err := s.Daily(ctx, Filter{})
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}
	want := []DailyUsage{
		{Day: "2026-03-11", Provider: "gemini", Requests: 1, TokensIn: 10, TokensOut: 10, CostUSD: 0.5},
		{Day: "2026-03-10", Provider: "gemini", Requests: 2, CacheHits: 1, TokensIn: 200, TokensOut: 100, CostUSD: 0.25},
		{Day: "2026-03-10", Provider: "openai", Requests: 1, Errors: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Daily() = %+v, want %d rows", got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStore_DailyFilter(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := openTestStore(t, clock)
	ctx := context.Background()

	for day := 0; day < 5; day++ {
		feature := "news_x"
		if day%2 == 1 {
			feature = "sec_8k"
		}
		rec := Record{Feature: feature, Provider: "gemini", CostUSD: 1, RecordedAt: clock.t.AddDate(0, 0, day)}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"all", Filter{}, 5},
		{"since", Filter{Since: clock.t.AddDate(0, 0, 3)}, 2},
		{"until", Filter{Until: clock.t.AddDate(0, 0, 1)}, 2},
		{"range", Filter{Since: clock.t.AddDate(0, 0, 1), Until: clock.t.AddDate(0, 0, 3)}, 3},
		{"feature", Filter{Feature: "sec_8k"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.Daily(ctx, tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(rows) != tt.want {
				t.Errorf("Daily() returned %d rows, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestStore_Prune(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	s := openTestStore(t, clock)
	ctx := context.Background()

	for _, age := range []int{1, 10, 40, 100} {
		rec := Record{Feature: "f", RecordedAt: clock.t.AddDate(0, 0, -age)}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := s.Prune(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, want 2", deleted)
	}
	if n, _ := s.Count(ctx); n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}

	if deleted, _ := s.Prune(ctx, 0); deleted != 0 {
		t.Errorf("Prune(0) deleted %d, want 0", deleted)
	}
}

func TestStore_Closed(t *testing.T) {
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "usage.db")})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Append(context.Background(), Record{Feature: "f"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}
}

func TestStore_ReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.db")
	s, err := Open(Config{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Append(context.Background(), Record{Feature: "f", RequestID: "r1"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(Config{Path: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if n, _ := s.Count(context.Background()); n != 1 {
		t.Errorf("Count() after reopen = %d, want 1", n)
	}
}

func TestFromResponse(t *testing.T) {
	rec := FromResponse(gateway.Request{}, gateway.Response{RequestID: "r", Provider: "p", Retries: 2, Error: "x"})
	if rec.Feature != gateway.DefaultFeature || !rec.Failed || rec.Retries != 2 {
		t.Errorf("FromResponse() = %+v", rec)
	}
}
