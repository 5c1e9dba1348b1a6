package repository

import (
	"context"
	"time"

	"media-ai-tagger/internal/domain/model"
)

// AttachmentStore is the host content-item collaborator. The core reads the
// backing file location and writes generated metadata; the host owns
// everything else about the item.
type AttachmentStore interface {
	Find(ctx context.Context, id int64) (*model.Attachment, error)
	Exists(ctx context.Context, id int64) (bool, error)

	// SaveMetadata writes the sanitized metadata onto the attachment.
	// Title/description/caption are written only when their enable flag is
	// set; tags and alt text are always written. The raw metadata snapshot
	// and provider/processed-at audit fields are retained for audit.
	SaveMetadata(ctx context.Context, id int64, md model.ImageMetadata, provider string, processedAt time.Time, flags FieldFlags) error

	// ClearAIFields removes every AI-written field from the attachment.
	ClearAIFields(ctx context.Context, id int64) error

	IsProcessed(ctx context.Context, id int64) (bool, error)
}

// FieldFlags mirrors the per-field enable settings.
type FieldFlags struct {
	Title       bool
	Description bool
	Caption     bool
}
