package postgres

import (
	"errors"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/repository"
)

var _ repository.QueueRepository = (*queueRepo)(nil)

type queueRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewQueueRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *queueRepo {
	return &queueRepo{pool: pool, tm: tm}
}

const queueColumns = `id, attachment_id, provider, status, attempts, max_attempts, error_message, created_at, updated_at, processed_at`

func (r *queueRepo) Enqueue(ctx context.Context, item *model.QueueItem) (string, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.UpdatedAt = time.Now()

	const q = `
INSERT INTO ai_processing_queue (id, attachment_id, provider, status, attempts, max_attempts, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err := execSQL(ctx, r.pool, nil, q,
		item.ID, item.AttachmentID, item.Provider, item.Status, item.Attempts,
		item.MaxAttempts, item.ErrorMessage, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return "", domain.ErrOperationFailed
	}
	return item.ID, nil
}

func (r *queueRepo) Update(ctx context.Context, item *model.QueueItem) error {
	item.UpdatedAt = time.Now()

	const q = `
UPDATE ai_processing_queue
SET status=$2, attempts=$3, error_message=$4, updated_at=$5, processed_at=$6
WHERE id=$1;`

	cmd, err := execSQL(ctx, r.pool, nil, q,
		item.ID, item.Status, item.Attempts, item.ErrorMessage, item.UpdatedAt, item.ProcessedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ClaimPending flips the oldest pending rows to processing inside one
// transaction. FOR UPDATE SKIP LOCKED keeps two workers from claiming the
// same row.
func (r *queueRepo) ClaimPending(ctx context.Context, limit int) ([]*model.QueueItem, error) {
	if limit <= 0 {
		return nil, nil
	}
	var items []*model.QueueItem

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT ` + queueColumns + `
FROM ai_processing_queue
WHERE status = 'pending'
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED;`

		rows, err := pickRows(ctx, r.pool, tx, fetchQuery, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			item, err := scanQueueItem(rows)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		now := time.Now()
		for _, item := range items {
			item.Status = model.QueueStatusProcessing
			item.UpdatedAt = now
			const mark = `UPDATE ai_processing_queue SET status='processing', updated_at=$2 WHERE id=$1;`
			if _, err := execSQL(ctx, r.pool, tx, mark, item.ID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *queueRepo) Find(ctx context.Context, id string) (*model.QueueItem, error) {
	const q = `SELECT ` + queueColumns + ` FROM ai_processing_queue WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	item, err := scanQueueItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return item, nil
}

func (r *queueRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM ai_processing_queue WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, nil, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *queueRepo) CountPending(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM ai_processing_queue WHERE status='pending';`
	row, err := pickRow(ctx, r.pool, nil, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *queueRepo) DeletePending(ctx context.Context) (int, error) {
	const q = `DELETE FROM ai_processing_queue WHERE status='pending';`
	cmd, err := execSQL(ctx, r.pool, nil, q)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

func (r *queueRepo) DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `DELETE FROM ai_processing_queue WHERE status='failed' AND updated_at < $1;`
	cmd, err := execSQL(ctx, r.pool, nil, q, cutoff)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

func (r *queueRepo) ReleaseStale(ctx context.Context, cutoff time.Time) (int, error) {
	const q = `
UPDATE ai_processing_queue
SET status='pending', updated_at=NOW()
WHERE status='processing' AND updated_at < $1;`
	cmd, err := execSQL(ctx, r.pool, nil, q, cutoff)
	if err != nil {
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

func scanQueueItem(row pgx.Row) (*model.QueueItem, error) {
	var item model.QueueItem
	var status string
	err := row.Scan(
		&item.ID, &item.AttachmentID, &item.Provider, &status, &item.Attempts,
		&item.MaxAttempts, &item.ErrorMessage, &item.CreatedAt, &item.UpdatedAt, &item.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Status = model.QueueStatus(status)
	return &item, nil
}
