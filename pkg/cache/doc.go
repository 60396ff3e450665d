// Package cache stores gateway responses under a normalized prompt key with
// a feature-dependent TTL.
//
// Keys are derived from Normalize(prompt, feature). Features in the document
// family (SEC filings and similar) have URLs, dates and numeric identifiers
// stripped, so otherwise identical requests share an entry. All features get
// whitespace and punctuation runs collapsed. Normalization is idempotent.
//
// The preferred backend is an external TTL key/value store (Redis or SQLite).
// When it is unreachable at startup, or any call fails, the cache switches to
// an in-process map and reports Degraded() == true. Backend failures are
// logged and never returned to callers.
package cache
