package store

// api_usage intentionally has no model column. Rows are priced at read time
// against the metered model rate, so summaries can drift from the sum of
// per-run costs in prompt_runs. See catalog.MeteredModel.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS api_usage (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id        TEXT NOT NULL,
    prompt_id      TEXT,
    input_tokens   INTEGER NOT NULL DEFAULT 0,
    output_tokens  INTEGER NOT NULL DEFAULT 0,
    is_cache_hit   INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS routing_feedback (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id        TEXT NOT NULL,
    original_model TEXT NOT NULL,
    selected_model TEXT NOT NULL,
    quality_rating INTEGER NOT NULL,
    was_helpful    INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS prompt_runs (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id         TEXT NOT NULL,
    model           TEXT NOT NULL,
    requested_model TEXT NOT NULL,
    input_tokens    INTEGER NOT NULL DEFAULT 0,
    output_tokens   INTEGER NOT NULL DEFAULT 0,
    tokens_used     INTEGER NOT NULL DEFAULT 0,
    cost            REAL NOT NULL DEFAULT 0,
    savings         REAL NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_user_time ON api_usage(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_feedback_user_time ON routing_feedback(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_runs_user_time ON prompt_runs(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_runs_time ON prompt_runs(created_at);
`
