// Package scheduler runs the gateway's periodic maintenance on cron
// schedules.
//
// Jobs:
//   - cache: purge expired entries and try to leave degraded mode
//   - ledger: delete usage records older than the retention window
//   - snapshot: log a monitor stats snapshot
//   - rollover: apply the monitor's UTC period reset at midnight
//
// Schedules use standard five-field cron syntax evaluated in UTC. An empty
// schedule disables that job.
package scheduler
