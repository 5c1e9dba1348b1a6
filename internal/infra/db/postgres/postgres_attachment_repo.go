package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/repository"
)

var _ repository.AttachmentStore = (*attachmentRepo)(nil)

// attachmentRepo implements the host content-item collaborator on the
// attachments table.
type attachmentRepo struct {
	pool *pgxpool.Pool
}

func NewAttachmentRepo(pool *pgxpool.Pool) *attachmentRepo {
	return &attachmentRepo{pool: pool}
}

const attachmentColumns = `id, file_path, mime_type, title, description, caption, alt_text, tags, ai_processed, ai_provider, ai_processed_at, ai_confidence, ai_raw_response`

func (r *attachmentRepo) Find(ctx context.Context, id int64) (*model.Attachment, error) {
	const q = `SELECT ` + attachmentColumns + ` FROM attachments WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	var a model.Attachment
	err = row.Scan(
		&a.ID, &a.FilePath, &a.MimeType, &a.Title, &a.Description, &a.Caption,
		&a.AltText, &a.Tags, &a.AIProcessed, &a.AIProvider, &a.AIProcessedAt,
		&a.AIConfidence, &a.AIRawResponse,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &a, nil
}

func (r *attachmentRepo) Exists(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM attachments WHERE id=$1);`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

// SaveMetadata writes the generated fields in one statement. Disabled fields
// keep their current value; tags, alt text and the audit columns are always
// written.
func (r *attachmentRepo) SaveMetadata(ctx context.Context, id int64, md model.ImageMetadata, provider string, processedAt time.Time, flags repository.FieldFlags) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return err
	}

	const q = `
UPDATE attachments SET
  title           = CASE WHEN $2 THEN $3 ELSE title END,
  description     = CASE WHEN $4 THEN $5 ELSE description END,
  caption         = CASE WHEN $6 THEN $7 ELSE caption END,
  alt_text        = $8,
  tags            = $9,
  ai_processed    = TRUE,
  ai_provider     = $10,
  ai_processed_at = $11,
  ai_confidence   = $12,
  ai_raw_response = $13
WHERE id=$1;`

	cmd, err := execSQL(ctx, r.pool, nil, q,
		id,
		flags.Title, md.Title,
		flags.Description, md.Description,
		flags.Caption, md.Caption,
		md.AltText, md.Tags,
		provider, processedAt, md.Confidence, string(raw),
	)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *attachmentRepo) ClearAIFields(ctx context.Context, id int64) error {
	const q = `
UPDATE attachments SET
  title='', description='', caption='', alt_text='', tags='{}',
  ai_processed=FALSE, ai_provider='', ai_processed_at=NULL,
  ai_confidence=NULL, ai_raw_response=''
WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, nil, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *attachmentRepo) IsProcessed(ctx context.Context, id int64) (bool, error) {
	const q = `SELECT ai_processed FROM attachments WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return false, err
	}
	var processed bool
	if err := row.Scan(&processed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, domain.ErrReadDatabaseRow
	}
	return processed, nil
}
