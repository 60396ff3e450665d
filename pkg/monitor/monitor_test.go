package monitor

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingSink struct {
	mu     sync.Mutex
	alerts []Alert
}

func (s *recordingSink) Notify(a Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

func (s *recordingSink) kinds() []AlertKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AlertKind, len(s.alerts))
	for i, a := range s.alerts {
		out[i] = a.Kind
	}
	return out
}

func TestMonitor_NoDoubleCostOnCacheHit(t *testing.T) {
	m := New(Thresholds{})

	m.Record(Outcome{Provider: "openai", Model: "gpt-4o-mini", Feature: "news", TokensIn: 100, TokensOut: 50, CostUSD: 0.01, Latency: 200 * time.Millisecond})
	m.Record(Outcome{Provider: "openai", Model: "gpt-4o-mini", Feature: "news", Cached: true, TokensIn: 100, TokensOut: 50, CostUSD: 0.01, Latency: 2 * time.Millisecond})

	s := m.Stats()
	if s.TotalCost != 0.01 {
		t.Errorf("TotalCost = %v, want 0.01", s.TotalCost)
	}
	if s.DailyCost != 0.01 || s.MonthlyCost != 0.01 {
		t.Errorf("period costs = %v/%v, want 0.01", s.DailyCost, s.MonthlyCost)
	}
	if s.TotalRequests != 2 || s.CacheHits != 1 || s.CacheMisses != 1 {
		t.Errorf("counts = %+v", s)
	}
	if s.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", s.HitRate)
	}
	if got := s.ByProvider["openai"]; got.Requests != 1 || got.CostUSD != 0.01 {
		t.Errorf("ByProvider[openai] = %+v, want one request at 0.01", got)
	}
	if got := s.ByFeature["news"].Requests; got != 1 {
		t.Errorf("ByFeature[news].Requests = %d, want 1", got)
	}
	if s.TotalTokensIn != 200 {
		t.Errorf("TotalTokensIn = %d, want 200", s.TotalTokensIn)
	}
	if s.AvgLatencyMS != 101 {
		t.Errorf("AvgLatencyMS = %v, want 101", s.AvgLatencyMS)
	}
}

func TestMonitor_ErrorsAndBreakdowns(t *testing.T) {
	m := New(Thresholds{})

	m.Record(Outcome{Provider: "gemini", Model: "gemini-2.0-flash", Feature: "sec_8k", Failed: true})
	m.Record(Outcome{Provider: "gemini", Model: "gemini-2.0-flash", Feature: "sec_8k", CostUSD: 0.002})
	m.Record(Outcome{Feature: "sec_8k", Failed: true})

	s := m.Stats()
	if s.Errors != 2 {
		t.Errorf("Errors = %d, want 2", s.Errors)
	}
	if s.ErrorRate != 2.0/3.0 {
		t.Errorf("ErrorRate = %v, want 2/3", s.ErrorRate)
	}
	if got := s.ByProvider["gemini"]; got.Requests != 2 || got.Errors != 1 {
		t.Errorf("ByProvider[gemini] = %+v", got)
	}
	if got := s.ByProvider["unknown"].Requests; got != 1 {
		t.Errorf("ByProvider[unknown].Requests = %d, want 1", got)
	}

	// Snapshot maps are copies.
	s.ByProvider["gemini"] = Breakdown{}
	if m.Stats().ByProvider["gemini"].Requests != 2 {
		t.Error("mutating a snapshot changed the ledger")
	}
}

func TestMonitor_AlertsFireOncePerPeriod(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
	sink := &recordingSink{}
	m := New(Thresholds{DailyCostAlert: 1.0, MonthlyCostAlert: 3.0, MonthlyCostHardLimit: 4.0},
		WithClock(clock.Now), WithAlertSink(sink))

	m.Record(Outcome{CostUSD: 0.5})
	m.Record(Outcome{CostUSD: 0.5}) // daily reaches 1.0
	m.Record(Outcome{CostUSD: 0.5}) // no repeat
	if got := sink.kinds(); len(got) != 1 || got[0] != KindDaily {
		t.Fatalf("alerts = %v, want [daily]", got)
	}

	clock.Set(time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC))
	m.Record(Outcome{CostUSD: 1.5}) // daily again, monthly reaches 3.0
	got := sink.kinds()
	if len(got) != 3 || got[1] != KindDaily || got[2] != KindMonthly {
		t.Fatalf("alerts = %v, want [daily daily monthly]", got)
	}

	m.Record(Outcome{CostUSD: 1.0}) // monthly 4.0 hits hard limit
	got = sink.kinds()
	if len(got) != 4 || got[3] != KindHardLimit {
		t.Fatalf("alerts = %v, want hard_limit last", got)
	}
	if sink.alerts[3].Level != LevelCritical {
		t.Errorf("hard limit level = %s, want critical", sink.alerts[3].Level)
	}

	// Hard limit is alert-only: recording continues and no repeat fires.
	m.Record(Outcome{CostUSD: 5.0})
	if n := len(sink.kinds()); n != 4 {
		t.Errorf("alert count = %d, want 4", n)
	}
	if s := m.Stats(); s.TotalRequests != 6 {
		t.Errorf("TotalRequests = %d, want 6", s.TotalRequests)
	}
}

func TestMonitor_PanickingSinkIsContained(t *testing.T) {
	sink := &recordingSink{}
	panicky := AlertSinkFunc(func(Alert) { panic("sink down") })
	m := New(Thresholds{DailyCostAlert: 1e-6},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAlertSink(panicky), WithAlertSink(sink))

	m.Record(Outcome{Provider: "openai", CostUSD: 0.017})

	if got := sink.kinds(); len(got) != 1 || got[0] != KindDaily {
		t.Errorf("later sink alerts = %v, want [daily]", got)
	}
	s := m.Stats()
	if s.TotalRequests != 1 || math.Abs(s.TotalCost-0.017) > 1e-12 {
		t.Errorf("stats = %d requests $%v, want 1 request $0.017", s.TotalRequests, s.TotalCost)
	}
}

func TestMonitor_CacheHitsNeverAlert(t *testing.T) {
	sink := &recordingSink{}
	m := New(Thresholds{DailyCostAlert: 0.01}, WithAlertSink(sink))

	m.Record(Outcome{Cached: true, CostUSD: 1.0})
	if len(sink.kinds()) != 0 {
		t.Error("cache hit raised a budget alert")
	}
}

func TestMonitor_Rollover(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)}
	sink := &recordingSink{}
	m := New(Thresholds{DailyCostAlert: 1.0, MonthlyCostAlert: 2.0}, WithClock(clock.Now), WithAlertSink(sink))

	m.Record(Outcome{CostUSD: 2.5})
	s := m.Stats()
	if !s.DailyAlertSent || !s.MonthlyAlertSent {
		t.Fatalf("alert flags = %v/%v, want both set", s.DailyAlertSent, s.MonthlyAlertSent)
	}

	// Same day: nothing resets.
	clock.Set(time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC))
	m.Rollover()
	if s := m.Stats(); s.DailyCost != 2.5 || s.Day != "2025-01-31" {
		t.Errorf("same-day rollover changed state: %+v", s)
	}

	// New UTC date on the 1st: daily and monthly reset.
	clock.Set(time.Date(2025, 2, 1, 0, 0, 1, 0, time.UTC))
	m.Record(Outcome{CostUSD: 0.1})
	s = m.Stats()
	if s.DailyCost != 0.1 || s.MonthlyCost != 0.1 {
		t.Errorf("after month rollover daily/monthly = %v/%v, want 0.1/0.1", s.DailyCost, s.MonthlyCost)
	}
	if s.DailyAlertSent || s.MonthlyAlertSent {
		t.Error("alert flags should reset on rollover")
	}
	if math.Abs(s.TotalCost-2.6) > 1e-9 {
		t.Errorf("TotalCost = %v, want 2.6", s.TotalCost)
	}
	if s.Day != "2025-02-01" || s.Month != "2025-02" {
		t.Errorf("period = %s/%s", s.Day, s.Month)
	}

	// Mid-month date change: only daily resets.
	clock.Set(time.Date(2025, 2, 2, 8, 0, 0, 0, time.UTC))
	m.Rollover()
	s = m.Stats()
	if s.DailyCost != 0 || s.MonthlyCost != 0.1 {
		t.Errorf("mid-month rollover daily/monthly = %v/%v, want 0/0.1", s.DailyCost, s.MonthlyCost)
	}
}

func TestMonitor_RolloverUsesUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	clock := &fakeClock{now: time.Date(2025, 3, 10, 20, 0, 0, 0, est)} // 2025-03-11 01:00 UTC
	m := New(Thresholds{}, WithClock(clock.Now))

	if s := m.Stats(); s.Day != "2025-03-11" {
		t.Errorf("Day = %s, want UTC date 2025-03-11", s.Day)
	}
}

func TestMonitor_ConcurrentRecord(t *testing.T) {
	m := New(Thresholds{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				m.Record(Outcome{Provider: "p", Cached: j%2 == 0, TokensIn: 1})
				_ = m.Stats()
			}
		}(i)
	}
	wg.Wait()

	s := m.Stats()
	if s.TotalRequests != 1000 || s.CacheHits != 500 || s.TotalTokensIn != 1000 {
		t.Errorf("stats = %+v", s)
	}
}
