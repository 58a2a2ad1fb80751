package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial schema for the workspace database.
const schemaV1 = `
-- Simulated (or imported) datasets, one row per name
CREATE TABLE IF NOT EXISTS datasets (
    name TEXT PRIMARY KEY,
    path TEXT NOT NULL,       -- CSV file under .bayeslab/data/
    scenario TEXT,            -- simulation scenario, empty for imports
    truth TEXT,               -- JSON map of ground-truth coefficients
    seed INTEGER NOT NULL,
    rows INTEGER NOT NULL,
    created_at TEXT NOT NULL
);

-- Fitted runs; immutable once written, re-fits create new ids
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    model TEXT NOT NULL,
    spec_yaml TEXT NOT NULL,
    dataset TEXT NOT NULL REFERENCES datasets(name),
    chains INTEGER NOT NULL,
    warmup INTEGER NOT NULL,
    iterations INTEGER NOT NULL,
    seed INTEGER NOT NULL,
    target_accept REAL NOT NULL,
    accept TEXT NOT NULL,     -- JSON array, one rate per chain
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model, id);

-- Posterior draws, one blob per chain (packed little-endian float64,
-- iteration-major)
CREATE TABLE IF NOT EXISTS draws (
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    chain INTEGER NOT NULL,
    params TEXT NOT NULL,     -- JSON array of parameter names
    data BLOB NOT NULL,
    PRIMARY KEY (run_id, chain)
);

-- Pointwise log-likelihood per run (packed little-endian float64,
-- draw-major, draws x observations)
CREATE TABLE IF NOT EXISTS loglik (
    run_id INTEGER PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
    draws INTEGER NOT NULL,
    observations INTEGER NOT NULL,
    data BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// InitSchema creates all tables and records the schema version.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
