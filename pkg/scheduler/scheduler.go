package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tickerwire/llmgateway/pkg/cache"
	"tickerwire/llmgateway/pkg/monitor"
)

// Job names.
const (
	JobCache    = "cache"
	JobLedger   = "ledger"
	JobSnapshot = "snapshot"
	JobRollover = "rollover"
)

// Config holds the job schedules.
type Config struct {
	// CacheSchedule runs cache purge and recovery.
	// Default: "*/10 * * * *"
	CacheSchedule string `yaml:"cache_schedule"`

	// LedgerSchedule runs ledger retention pruning.
	// Default: "0 3 * * *"
	LedgerSchedule string `yaml:"ledger_schedule"`

	// LedgerRetention is how long usage records are kept. Zero keeps them
	// forever.
	// Default: 90 days
	LedgerRetention time.Duration `yaml:"ledger_retention"`

	// SnapshotSchedule logs monitor stats.
	// Default: "0 * * * *"
	SnapshotSchedule string `yaml:"snapshot_schedule"`

	// RolloverSchedule applies the monitor period reset.
	// Default: "0 0 * * *"
	RolloverSchedule string `yaml:"rollover_schedule"`
}

// DefaultConfig returns the default schedules.
func DefaultConfig() Config {
	return Config{
		CacheSchedule:    "*/10 * * * *",
		LedgerSchedule:   "0 3 * * *",
		LedgerRetention:  90 * 24 * time.Hour,
		SnapshotSchedule: "0 * * * *",
		RolloverSchedule: "0 0 * * *",
	}
}

// LedgerPruner deletes usage records older than retention.
type LedgerPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Targets are the components maintained by the scheduler. Nil targets
// disable their jobs.
type Targets struct {
	Cache   *cache.Cache
	Ledger  LedgerPruner
	Monitor *monitor.Monitor
}

// Scheduler runs maintenance jobs on cron schedules.
type Scheduler struct {
	config  Config
	targets Targets
	cron    *cron.Cron
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
	entries map[string]cron.EntryID
}

// New creates a scheduler. Nothing runs until Start.
func New(cfg Config, targets Targets, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		config:  cfg,
		targets: targets,
		cron:    cron.New(cron.WithLocation(time.UTC)),
		logger:  logger.With("component", "scheduler"),
		entries: make(map[string]cron.EntryID),
	}
}

type job struct {
	name     string
	schedule string
	enabled  bool
	run      func(ctx context.Context)
}

func (s *Scheduler) jobs() []job {
	return []job{
		{JobCache, s.config.CacheSchedule, s.targets.Cache != nil, s.MaintainCache},
		{JobLedger, s.config.LedgerSchedule, s.targets.Ledger != nil, s.PruneLedger},
		{JobSnapshot, s.config.SnapshotSchedule, s.targets.Monitor != nil, s.Snapshot},
		{JobRollover, s.config.RolloverSchedule, s.targets.Monitor != nil, s.Rollover},
	}
}

// Start validates every schedule, registers the enabled jobs and starts the
// cron runner. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	for _, j := range s.jobs() {
		if j.schedule == "" || !j.enabled {
			s.logger.Debug("job disabled", "job", j.name)
			continue
		}
		if _, err := cron.ParseStandard(j.schedule); err != nil {
			return fmt.Errorf("invalid %s schedule %q: %w", j.name, j.schedule, err)
		}
		run := j.run
		id, err := s.cron.AddFunc(j.schedule, func() { run(ctx) })
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", j.name, err)
		}
		s.entries[j.name] = id
	}

	if len(s.entries) == 0 {
		s.logger.Info("no maintenance jobs configured, skipping scheduler")
		return nil
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("maintenance scheduler started", "jobs", len(s.entries))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("maintenance scheduler stopped")
	}
}

// IsRunning reports whether the cron runner is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next run time of the named job.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// MaintainCache purges expired entries and, when degraded, tries to switch
// back to the external backend.
func (s *Scheduler) MaintainCache(ctx context.Context) {
	c := s.targets.Cache
	if c == nil {
		return
	}

	n, err := c.Purge(ctx)
	if err != nil {
		s.logger.Warn("cache purge failed", "error", err)
	} else if n > 0 {
		s.logger.Info("cache purge completed", "purged", n)
	}

	if c.Degraded() && c.Recover(ctx) {
		s.logger.Info("cache left degraded mode")
	}
}

// PruneLedger deletes usage records outside the retention window.
func (s *Scheduler) PruneLedger(ctx context.Context) {
	if s.targets.Ledger == nil || s.config.LedgerRetention <= 0 {
		return
	}

	deleted, err := s.targets.Ledger.Prune(ctx, s.config.LedgerRetention)
	if err != nil {
		s.logger.Error("scheduled ledger pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("scheduled ledger pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled ledger pruning completed, no records deleted")
	}
}

// Snapshot logs the monitor's current totals.
func (s *Scheduler) Snapshot(ctx context.Context) {
	if s.targets.Monitor == nil {
		return
	}
	st := s.targets.Monitor.Stats()
	s.logger.InfoContext(ctx, "usage snapshot",
		"requests", st.TotalRequests,
		"hit_rate", st.HitRate,
		"error_rate", st.ErrorRate,
		"avg_latency_ms", st.AvgLatencyMS,
		"daily_cost_usd", st.DailyCost,
		"monthly_cost_usd", st.MonthlyCost,
		"total_cost_usd", st.TotalCost,
	)
}

// Rollover applies any pending monitor period reset.
func (s *Scheduler) Rollover(context.Context) {
	if s.targets.Monitor == nil {
		return
	}
	s.targets.Monitor.Rollover()
}
