// Package server exposes the gateway over HTTP.
//
// # Routes
//
//	POST /v1/submit    one request, returns a gateway.Response
//	POST /v1/batch     {"requests": [...]}, returns responses in input order
//	POST /v1/estimate  dry run: tier, provider, model, tokens and cost
//	GET  /v1/stats     monitor, cache and routing snapshot
//	GET  /v1/usage     daily rollup from the usage ledger (when configured)
//	GET  /healthz      liveness
//	GET  /readyz       readiness (when a health checker is configured)
//	GET  /version      build information
//	GET  /metrics      Prometheus exposition (when configured)
//
// # Status Codes
//
// /v1/submit always returns a Response body. The status code reflects its
// outcome: 200 on success (including safety-blocked answers), 400 for an
// invalid request, 503 when the gateway is disabled, 504 when the last
// attempt timed out and 502 for other provider failures. /v1/batch always
// returns 200; inspect each Response.
//
// Transport errors (bad JSON, oversized body, too many batch items) use
// the error envelope:
//
//	{"error": {"message": "...", "type": "invalid_request_error", "code": "invalid_json"}}
//
// # Middleware
//
// Recovery, RequestID and Logging from the middleware subpackage wrap every
// route. The request ID flows into the gateway and back out on the
// Response.
package server
