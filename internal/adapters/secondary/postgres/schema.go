package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ddl mirrors the upstream entity shapes. External numeric ids are the
// primary keys; re-ingesting an entry upserts in place.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS model (
		id          BIGINT PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT '',
		nsfw        BOOLEAN NOT NULL DEFAULT FALSE,
		creator     TEXT NOT NULL DEFAULT '',
		data        JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS model_version (
		id           BIGINT PRIMARY KEY,
		model_id     BIGINT NOT NULL REFERENCES model(id) ON DELETE CASCADE,
		name         TEXT NOT NULL DEFAULT '',
		base_model   TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMPTZ,
		download_url TEXT NOT NULL DEFAULT '',
		data         JSONB NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_model_version_model_id ON model_version(model_id)`,
	`CREATE TABLE IF NOT EXISTS model_file (
		id               BIGINT PRIMARY KEY,
		model_version_id BIGINT NOT NULL REFERENCES model_version(id) ON DELETE CASCADE,
		name             TEXT NOT NULL DEFAULT '',
		type             TEXT NOT NULL DEFAULT '',
		size_kb          DOUBLE PRECISION NOT NULL DEFAULT 0,
		sha256           TEXT NOT NULL DEFAULT '',
		is_primary       BOOLEAN NOT NULL DEFAULT FALSE,
		download_url     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_model_file_version_id ON model_file(model_version_id)`,
	`CREATE INDEX IF NOT EXISTS idx_model_file_sha256 ON model_file(sha256)`,
	`CREATE TABLE IF NOT EXISTS image (
		id         BIGINT PRIMARY KEY,
		url        TEXT NOT NULL UNIQUE,
		hash       TEXT NOT NULL DEFAULT '',
		width      INTEGER NOT NULL DEFAULT 0,
		height     INTEGER NOT NULL DEFAULT 0,
		nsfw_level TEXT NOT NULL DEFAULT '',
		username   TEXT NOT NULL DEFAULT '',
		post_id    BIGINT NOT NULL DEFAULT 0,
		file_path  TEXT NOT NULL DEFAULT '',
		data       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS scrape_run (
		id               UUID PRIMARY KEY,
		asset_type       TEXT NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		finished_at      TIMESTAMPTZ,
		status           TEXT NOT NULL,
		last_cursor      TEXT NOT NULL DEFAULT '',
		pages_fetched    INTEGER NOT NULL DEFAULT 0,
		entries_ingested INTEGER NOT NULL DEFAULT 0,
		entries_skipped  INTEGER NOT NULL DEFAULT 0,
		error            TEXT NOT NULL DEFAULT ''
	)`,
}

// Bootstrap creates the schema when it does not exist yet.
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return nil
}
