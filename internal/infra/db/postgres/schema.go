package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ai_processing_queue (
    id            UUID PRIMARY KEY,
    attachment_id BIGINT      NOT NULL,
    provider      TEXT        NOT NULL,
    status        TEXT        NOT NULL DEFAULT 'pending',
    attempts      INT         NOT NULL DEFAULT 0,
    max_attempts  INT         NOT NULL DEFAULT 3,
    error_message TEXT        NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL,
    processed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_queue_status_created ON ai_processing_queue (status, created_at);

CREATE TABLE IF NOT EXISTS app_options (
    key        TEXT PRIMARY KEY,
    value      TEXT        NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attachments (
    id              BIGSERIAL PRIMARY KEY,
    file_path       TEXT        NOT NULL,
    mime_type       TEXT        NOT NULL,
    title           TEXT        NOT NULL DEFAULT '',
    description     TEXT        NOT NULL DEFAULT '',
    caption         TEXT        NOT NULL DEFAULT '',
    alt_text        TEXT        NOT NULL DEFAULT '',
    tags            TEXT[]      NOT NULL DEFAULT '{}',
    ai_processed    BOOLEAN     NOT NULL DEFAULT FALSE,
    ai_provider     TEXT        NOT NULL DEFAULT '',
    ai_processed_at TIMESTAMPTZ,
    ai_confidence   DOUBLE PRECISION,
    ai_raw_response TEXT        NOT NULL DEFAULT ''
);
`

// EnsureSchema creates the subsystem's tables when they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
