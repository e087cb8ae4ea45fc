// Package database provides database connectivity and operations.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

const (
	// DefaultBusyTimeout is how long a writer waits on a locked database.
	DefaultBusyTimeout = 5 * time.Second
	// DefaultPingTimeout is the default timeout for ping operations.
	DefaultPingTimeout = 5 * time.Second
)

// schema creates all durable collections. Every statement is idempotent so
// opening an existing database is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS dismissed_jobs (
	job_id       TEXT PRIMARY KEY,
	job_url      TEXT NOT NULL DEFAULT '',
	title        TEXT NOT NULL DEFAULT '',
	company      TEXT NOT NULL DEFAULT '',
	company_link TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	reason       TEXT NOT NULL,
	is_reposted  INTEGER NOT NULL DEFAULT 0,
	listed_at    TIMESTAMP,
	dismissed_at TIMESTAMP NOT NULL,
	run_id       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_dismissed_run ON dismissed_jobs(run_id);
CREATE INDEX IF NOT EXISTS idx_dismissed_at ON dismissed_jobs(dismissed_at);

CREATE TABLE IF NOT EXISTS geo_cache (
	location_query     TEXT PRIMARY KEY,
	master_geo_id      INTEGER NOT NULL,
	populated_place_id INTEGER,
	updated_at         TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS geo_candidates (
	pp_id          INTEGER PRIMARY KEY,
	pp_name        TEXT NOT NULL,
	corrected_name TEXT
);

CREATE TABLE IF NOT EXISTS geo_candidate_masters (
	pp_id         INTEGER NOT NULL,
	master_geo_id INTEGER NOT NULL,
	PRIMARY KEY (pp_id, master_geo_id)
);

CREATE TABLE IF NOT EXISTS saved_searches (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	keywords        TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	time_range      TEXT NOT NULL DEFAULT 'all',
	job_limit       INTEGER NOT NULL DEFAULT 25,
	easy_apply      INTEGER NOT NULL DEFAULT 0,
	relevant        INTEGER NOT NULL DEFAULT 0,
	workplace_types TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS search_runs (
	id              TEXT PRIMARY KEY,
	keywords        TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	time_range      TEXT NOT NULL DEFAULT 'all',
	status          TEXT NOT NULL,
	started_at      TIMESTAMP NOT NULL,
	completed_at    TIMESTAMP,
	total_found     INTEGER NOT NULL DEFAULT 0,
	total_dismissed INTEGER NOT NULL DEFAULT 0,
	total_skipped   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_logs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	message    TEXT NOT NULL,
	level      TEXT NOT NULL DEFAULT 'info',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_logs_run ON run_logs(run_id, id);
`

// Open opens (creating if necessary) the sqlite database at path and applies
// the schema. Writes are durable before each call returns: sqlite commits
// per-statement and WAL mode syncs on commit.
func Open(path string) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_busy_timeout=%d&_journal_mode=WAL&_foreign_keys=on&_loc=UTC",
		path, DefaultBusyTimeout.Milliseconds(),
	)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY between the pipeline worker and control-surface calls.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	if _, execErr := db.Exec(schema); execErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", execErr)
	}

	return db, nil
}
