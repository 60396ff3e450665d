// Package monitor aggregates cost, token, latency and error counters for the
// gateway and raises budget alerts.
//
// All counters live behind a single mutex. Every completed request updates
// the totals; cost and the provider/feature/model breakdowns are only updated
// for requests that were not served from cache, so a cache hit never counts
// cost twice.
//
// # Periods
//
// Daily and monthly cost are scoped to UTC calendar periods. The first record
// on a new UTC date resets daily cost and the daily alert flag. When the month
// also changed, monthly cost and the monthly and hard-limit flags reset too.
//
// # Alerts
//
// A soft alert fires once per period when cost reaches its threshold. The
// hard limit raises a critical alert once per month and never blocks
// requests. Alerts are delivered to an AlertSink after the mutex is released.
package monitor
