// Package health implements liveness and readiness probes for the gateway.
//
// Liveness only reports that the process is serving HTTP. Readiness runs
// every registered CheckFunc concurrently, each bounded by a timeout, and
// reports "degraded" (HTTP 503) when any of them fails.
//
// Built-in checks cover the gateway's dependencies:
//
//   - ProvidersCheck fails when every configured provider is inside its
//     unhealthy cooldown.
//   - CacheCheck fails while the cache runs on its in-memory fallback.
//   - PingCheck wraps anything with a Ping(ctx) method, such as the usage
//     ledger.
//
// Usage:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("providers", health.ProvidersCheck(gw, time.Now))
//	checker.RegisterCheck("cache", health.CacheCheck(gw.Cache()))
//	mux.HandleFunc("/healthz", checker.LivenessHandler())
//	mux.HandleFunc("/readyz", checker.ReadinessHandler())
package health
