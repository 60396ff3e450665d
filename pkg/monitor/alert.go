package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// AlertLevel is the severity of a budget alert.
type AlertLevel string

const (
	LevelWarning  AlertLevel = "warning"
	LevelCritical AlertLevel = "critical"
)

// AlertKind identifies which threshold was crossed.
type AlertKind string

const (
	KindDaily     AlertKind = "daily"
	KindMonthly   AlertKind = "monthly"
	KindHardLimit AlertKind = "hard_limit"
)

// Alert is emitted when a cost threshold is reached.
type Alert struct {
	Level     AlertLevel `json:"level"`
	Kind      AlertKind  `json:"kind"`
	Cost      float64    `json:"cost_usd"`
	Threshold float64    `json:"threshold_usd"`
	At        time.Time  `json:"at"`
}

func (a Alert) String() string {
	return fmt.Sprintf("%s %s budget alert: $%.4f >= $%.2f", a.Level, a.Kind, a.Cost, a.Threshold)
}

// AlertSink receives budget alerts. Implementations must not block for long;
// Notify runs on the request path.
type AlertSink interface {
	Notify(Alert)
}

// AlertSinkFunc adapts a function to AlertSink.
type AlertSinkFunc func(Alert)

// Notify calls f(a).
func (f AlertSinkFunc) Notify(a Alert) { f(a) }

// LogSink writes alerts to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Notify logs a at warn or error level.
func (s LogSink) Notify(a Alert) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelWarn
	if a.Level == LevelCritical {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "budget alert",
		"kind", a.Kind,
		"cost_usd", a.Cost,
		"threshold_usd", a.Threshold,
	)
}
