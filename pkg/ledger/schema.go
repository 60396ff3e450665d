package ledger

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the usage table and its indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,

    -- UTC timestamp in unix nanoseconds and its calendar day
    recorded_at INTEGER NOT NULL,
    day TEXT NOT NULL,

    feature TEXT NOT NULL,
    provider TEXT,
    model TEXT,
    tier TEXT,

    cached BOOLEAN NOT NULL DEFAULT 0,
    failed BOOLEAN NOT NULL DEFAULT 0,
    safety_blocked BOOLEAN NOT NULL DEFAULT 0,
    error_kind TEXT,

    tokens_in INTEGER NOT NULL DEFAULT 0,
    tokens_out INTEGER NOT NULL DEFAULT 0,
    cost_usd REAL NOT NULL DEFAULT 0,
    latency_ms INTEGER NOT NULL DEFAULT 0,
    retries INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage_records(recorded_at);
CREATE INDEX IF NOT EXISTS idx_usage_day ON usage_records(day);
CREATE INDEX IF NOT EXISTS idx_usage_feature ON usage_records(feature);
`

const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

const getSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertRecord = `
INSERT INTO usage_records (
    id, request_id, recorded_at, day,
    feature, provider, model, tier,
    cached, failed, safety_blocked, error_kind,
    tokens_in, tokens_out, cost_usd, latency_ms, retries
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
