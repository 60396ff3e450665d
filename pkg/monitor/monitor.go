package monitor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Monitor is the gateway's cost ledger.
type Monitor struct {
	mu sync.Mutex

	thresholds Thresholds
	sinks      []AlertSink
	now        func() time.Time
	logger     *slog.Logger

	totalRequests int64
	cacheHits     int64
	cacheMisses   int64
	errors        int64
	tokensIn      int64
	tokensOut     int64
	latencySum    time.Duration
	totalCost     float64
	dailyCost     float64
	monthlyCost   float64
	byProvider    map[string]*Breakdown
	byFeature     map[string]*Breakdown
	byModel       map[string]*Breakdown
	dailySent     bool
	monthlySent   bool
	hardLimitSent bool
	periodDay     string
	periodMonth   string
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock overrides the clock used for period rollover.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithAlertSink adds a sink that receives budget alerts. Without any sink,
// alerts are logged.
func WithAlertSink(sink AlertSink) Option {
	return func(m *Monitor) { m.sinks = append(m.sinks, sink) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// New creates a Monitor with the given thresholds.
func New(thresholds Thresholds, opts ...Option) *Monitor {
	m := &Monitor{
		thresholds: thresholds,
		now:        time.Now,
		logger:     slog.Default(),
		byProvider: make(map[string]*Breakdown),
		byFeature:  make(map[string]*Breakdown),
		byModel:    make(map[string]*Breakdown),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "monitor")
	if len(m.sinks) == 0 {
		m.sinks = []AlertSink{LogSink{Logger: m.logger}}
	}

	now := m.now().UTC()
	m.periodDay = now.Format(dayLayout)
	m.periodMonth = now.Format(monthLayout)
	return m
}

// Record adds one completed request to the ledger.
func (m *Monitor) Record(o Outcome) {
	m.mu.Lock()
	now := m.now().UTC()
	m.rolloverLocked(now)

	m.totalRequests++
	if o.Cached {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
	if o.Failed {
		m.errors++
	}
	m.tokensIn += int64(o.TokensIn)
	m.tokensOut += int64(o.TokensOut)
	m.latencySum += o.Latency

	var alerts []Alert
	if !o.Cached {
		m.totalCost += o.CostUSD
		m.dailyCost += o.CostUSD
		m.monthlyCost += o.CostUSD

		addTo(m.byProvider, o.Provider, o)
		addTo(m.byFeature, o.Feature, o)
		addTo(m.byModel, o.Model, o)

		alerts = m.checkThresholdsLocked(now)
	}
	m.mu.Unlock()

	m.emit(alerts)
}

func addTo(breakdowns map[string]*Breakdown, key string, o Outcome) {
	if key == "" {
		key = "unknown"
	}
	b, ok := breakdowns[key]
	if !ok {
		b = &Breakdown{}
		breakdowns[key] = b
	}
	b.Requests++
	b.TokensIn += int64(o.TokensIn)
	b.TokensOut += int64(o.TokensOut)
	b.CostUSD += o.CostUSD
	if o.Failed {
		b.Errors++
	}
}

func (m *Monitor) checkThresholdsLocked(now time.Time) []Alert {
	var alerts []Alert

	if t := m.thresholds.DailyCostAlert; t > 0 && !m.dailySent && m.dailyCost >= t {
		m.dailySent = true
		alerts = append(alerts, Alert{Level: LevelWarning, Kind: KindDaily, Cost: m.dailyCost, Threshold: t, At: now})
	}
	if t := m.thresholds.MonthlyCostAlert; t > 0 && !m.monthlySent && m.monthlyCost >= t {
		m.monthlySent = true
		alerts = append(alerts, Alert{Level: LevelWarning, Kind: KindMonthly, Cost: m.monthlyCost, Threshold: t, At: now})
	}
	if t := m.thresholds.MonthlyCostHardLimit; t > 0 && !m.hardLimitSent && m.monthlyCost >= t {
		m.hardLimitSent = true
		alerts = append(alerts, Alert{Level: LevelCritical, Kind: KindHardLimit, Cost: m.monthlyCost, Threshold: t, At: now})
	}
	return alerts
}

func (m *Monitor) emit(alerts []Alert) {
	for _, a := range alerts {
		for _, sink := range m.sinks {
			m.notify(sink, a)
		}
	}
}

// notify delivers a to sink. A panicking sink is logged and skipped.
func (m *Monitor) notify(sink AlertSink, a Alert) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("alert sink failed",
				"sink", fmt.Sprintf("%T", sink), "alert", a.Kind, "panic", r)
		}
	}()
	sink.Notify(a)
}

// rolloverLocked resets period counters when now falls on a new UTC date or
// month.
func (m *Monitor) rolloverLocked(now time.Time) {
	day := now.Format(dayLayout)
	if day == m.periodDay {
		return
	}

	m.logger.Info("daily rollover", "previous_day", m.periodDay, "daily_cost_usd", m.dailyCost)
	m.periodDay = day
	m.dailyCost = 0
	m.dailySent = false

	month := now.Format(monthLayout)
	if month != m.periodMonth {
		m.logger.Info("monthly rollover", "previous_month", m.periodMonth, "monthly_cost_usd", m.monthlyCost)
		m.periodMonth = month
		m.monthlyCost = 0
		m.monthlySent = false
		m.hardLimitSent = false
	}
}

// Rollover applies any pending period reset without recording a request.
func (m *Monitor) Rollover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolloverLocked(m.now().UTC())
}

// SetThresholds replaces the alert thresholds. Alert flags already set for
// the current period are kept.
func (m *Monitor) SetThresholds(t Thresholds) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = t
}

// Thresholds returns the current alert thresholds.
func (m *Monitor) Thresholds() Thresholds {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.thresholds
}

// Stats returns a snapshot of the ledger. It does not apply rollover.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		TotalRequests:      m.totalRequests,
		CacheHits:          m.cacheHits,
		CacheMisses:        m.cacheMisses,
		Errors:             m.errors,
		TotalTokensIn:      m.tokensIn,
		TotalTokensOut:     m.tokensOut,
		TotalCost:          m.totalCost,
		DailyCost:          m.dailyCost,
		MonthlyCost:        m.monthlyCost,
		ByProvider:         copyBreakdowns(m.byProvider),
		ByFeature:          copyBreakdowns(m.byFeature),
		ByModel:            copyBreakdowns(m.byModel),
		DailyAlertSent:     m.dailySent,
		MonthlyAlertSent:   m.monthlySent,
		HardLimitAlertSent: m.hardLimitSent,
		Day:                m.periodDay,
		Month:              m.periodMonth,
	}
	if m.totalRequests > 0 {
		total := float64(m.totalRequests)
		s.HitRate = float64(m.cacheHits) / total
		s.ErrorRate = float64(m.errors) / total
		s.AvgLatencyMS = float64(m.latencySum.Milliseconds()) / total
	}
	return s
}

func copyBreakdowns(src map[string]*Breakdown) map[string]Breakdown {
	out := make(map[string]Breakdown, len(src))
	for k, v := range src {
		out[k] = *v
	}
	return out
}
