package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/ports/repository"
)

var _ repository.OptionsRepository = (*optionsRepo)(nil)

// optionsRepo stores host key/value configuration, one row per option.
type optionsRepo struct {
	pool *pgxpool.Pool
}

func NewOptionsRepo(pool *pgxpool.Pool) *optionsRepo {
	return &optionsRepo{pool: pool}
}

func (r *optionsRepo) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM app_options WHERE key=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, key)
	if err != nil {
		return "", err
	}
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", domain.ErrReadDatabaseRow
	}
	return value, nil
}

func (r *optionsRepo) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO app_options (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW();`
	if _, err := execSQL(ctx, r.pool, nil, q, key, value); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *optionsRepo) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM app_options WHERE key=$1;`
	if _, err := execSQL(ctx, r.pool, nil, q, key); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
