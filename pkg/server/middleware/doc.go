// Package middleware provides the HTTP middleware chain for the gateway
// server: request IDs, structured access logging and panic recovery.
//
// Recommended order, outermost first:
//
//	handler = middleware.Recovery(logger)(handler)
//	handler = middleware.RequestID(handler)
//	handler = middleware.Logging(logger)(handler)
//
// Recovery sits outside RequestID so that a panic anywhere in the chain is
// still turned into a JSON 500. Logging sits inside RequestID so every
// access log line carries the request ID.
package middleware
