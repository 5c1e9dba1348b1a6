package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/repository"
	"media-ai-tagger/internal/infra/logging"
	"media-ai-tagger/internal/infra/metrics"
)

// AttachmentProcessor runs one attachment through analysis and persistence.
// Satisfied by usecase.ProcessUseCase.
type AttachmentProcessor interface {
	ProcessAttachment(ctx context.Context, attachmentID int64, provider string) model.ProcessingResult
}

// QueueWorker drains claimed queue batches. Successful jobs are deleted on
// the spot; failures are retried until their attempt ceiling and then kept
// as failed rows for inspection.
type QueueWorker struct {
	queue     repository.QueueRepository
	processor AttachmentProcessor
	pool      *Pool
	log       *zerolog.Logger
}

func NewQueueWorker(queue repository.QueueRepository, processor AttachmentProcessor, pool *Pool, log *zerolog.Logger) *QueueWorker {
	return &QueueWorker{queue: queue, processor: processor, pool: pool, log: log}
}

// RunBatch claims up to batchSize pending jobs and processes them. One
// misbehaving job never aborts the rest of the batch. Returns how many jobs
// succeeded and how many recorded a failure.
func (w *QueueWorker) RunBatch(ctx context.Context, batchSize int) (succeeded, failed int) {
	items, err := w.queue.ClaimPending(ctx, batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("queue claim failed")
		return 0, 0
	}
	if len(items) == 0 {
		return 0, 0
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, item := range items {
		item := item
		run := func(ctx context.Context) error {
			defer wg.Done()
			ok := w.processItem(ctx, item)
			mu.Lock()
			if ok {
				succeeded++
			} else {
				failed++
			}
			mu.Unlock()
			return nil
		}

		wg.Add(1)
		if w.pool == nil || w.pool.Submit(run) != nil {
			// No pool, or pool saturated: run inline rather than drop the
			// claimed job.
			_ = run(ctx)
		}
	}
	wg.Wait()
	return succeeded, failed
}

// processItem runs one claimed job to its terminal outcome. Returns true on
// success.
func (w *QueueWorker) processItem(ctx context.Context, item *model.QueueItem) (ok bool) {
	ctx = logging.WithJobID(ctx, item.ID)
	log := logging.With(ctx, w.log)

	result := w.safeProcess(ctx, item)

	if result.Success {
		if err := w.queue.Delete(ctx, item.ID); err != nil {
			log.Error().Err(err).Msg("completed job cleanup failed")
		}
		metrics.IncJob("succeeded")
		log.Info().
			Int64("attachment_id", item.AttachmentID).
			Int("tokens", result.TokensUsed).
			Msg("job completed")
		return true
	}

	item.RecordFailure(result.ErrorMessage)
	now := time.Now()
	item.ProcessedAt = &now
	if err := w.queue.Update(ctx, item); err != nil {
		log.Error().Err(err).Msg("failed job update failed")
	}
	if item.Status == model.QueueStatusFailed {
		metrics.IncJob("failed")
		log.Warn().
			Int64("attachment_id", item.AttachmentID).
			Int("attempts", item.Attempts).
			Str("error", item.ErrorMessage).
			Msg("job exhausted retries")
	} else {
		metrics.IncJob("retried")
		log.Info().
			Int64("attachment_id", item.AttachmentID).
			Int("attempts", item.Attempts).
			Msg("job returned to queue")
	}
	return false
}

// safeProcess shields the batch from a panicking provider or store.
func (w *QueueWorker) safeProcess(ctx context.Context, item *model.QueueItem) (result model.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			logging.With(ctx, w.log).Error().Interface("panic", r).Msg("job processing panicked")
			result = model.FailureResult(fmt.Sprintf("internal error: %v", r))
		}
	}()
	return w.processor.ProcessAttachment(ctx, item.AttachmentID, item.Provider)
}
