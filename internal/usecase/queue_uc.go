package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/repository"
	"media-ai-tagger/internal/infra/adapters/ai"
	"media-ai-tagger/internal/infra/logging"
)

// QueueUseCase enqueues attachments for background tagging and answers
// queue-level queries.
type QueueUseCase struct {
	queue       repository.QueueRepository
	attachments repository.AttachmentStore
	settings    *SettingsUseCase
	log         *zerolog.Logger
}

func NewQueueUseCase(
	queue repository.QueueRepository,
	attachments repository.AttachmentStore,
	settings *SettingsUseCase,
	log *zerolog.Logger,
) *QueueUseCase {
	return &QueueUseCase{queue: queue, attachments: attachments, settings: settings, log: log}
}

// Enqueue inserts one pending job. An empty provider resolves to the
// configured default at enqueue time, so the job keeps that provider even if
// the default changes later.
func (uc *QueueUseCase) Enqueue(ctx context.Context, attachmentID int64, provider string) (string, error) {
	exists, err := uc.attachments.Exists(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("attachment %d: %w", attachmentID, domain.ErrNotFound)
	}

	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return "", err
	}

	if provider == "" {
		provider = settings.DefaultProvider
	}
	if !ai.IsKnownProvider(provider) {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownProvider, provider)
	}

	item := model.NewQueueItem(attachmentID, provider, settings.RetryAttempts)
	id, err := uc.queue.Enqueue(ctx, item)
	if err != nil {
		return "", err
	}
	logging.With(ctx, uc.log).Info().
		Str("job_id", id).
		Int64("attachment_id", attachmentID).
		Str("provider", provider).
		Msg("job enqueued")
	return id, nil
}

// EnqueueResult records the per-attachment outcome of a bulk enqueue.
type EnqueueResult struct {
	AttachmentID int64  `json:"attachment_id"`
	JobID        string `json:"job_id,omitempty"`
	Error        string `json:"error,omitempty"`
}

// EnqueueMany enqueues each attachment in order. Duplicates are not
// collapsed; an attachment listed twice is tagged twice. One bad attachment
// does not stop the rest.
func (uc *QueueUseCase) EnqueueMany(ctx context.Context, attachmentIDs []int64, provider string) []EnqueueResult {
	results := make([]EnqueueResult, 0, len(attachmentIDs))
	for _, id := range attachmentIDs {
		jobID, err := uc.Enqueue(ctx, id, provider)
		r := EnqueueResult{AttachmentID: id, JobID: jobID}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

// Status is the queue-level summary.
type Status struct {
	Pending   int `json:"pending"`
	BatchSize int `json:"batch_size"`
}

func (uc *QueueUseCase) Status(ctx context.Context) (Status, error) {
	pending, err := uc.queue.CountPending(ctx)
	if err != nil {
		return Status{}, err
	}
	settings, err := uc.settings.Get(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Pending: pending, BatchSize: settings.BatchSize}, nil
}

// ClearPending drops every job still waiting to run and reports how many
// were removed. In-flight and failed jobs are untouched.
func (uc *QueueUseCase) ClearPending(ctx context.Context) (int, error) {
	n, err := uc.queue.DeletePending(ctx)
	if err != nil {
		return 0, err
	}
	logging.With(ctx, uc.log).Info().Int("removed", n).Msg("pending queue cleared")
	return n, nil
}
