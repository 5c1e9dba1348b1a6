package repository

import (
	"context"
	"time"

	"media-ai-tagger/internal/domain/model"
)

// QueueRepository owns QueueItem persistence. Items are FIFO by creation
// time; successful work is deleted, terminal failures are swept by age.
type QueueRepository interface {
	// Enqueue inserts a fresh pending item and returns its assigned id.
	Enqueue(ctx context.Context, item *model.QueueItem) (string, error)

	// Update persists status, attempts, error message and timestamps.
	Update(ctx context.Context, item *model.QueueItem) error

	// ClaimPending atomically fetches up to limit pending items, oldest
	// first, and marks them processing so concurrent workers never claim
	// the same row.
	ClaimPending(ctx context.Context, limit int) ([]*model.QueueItem, error)

	Find(ctx context.Context, id string) (*model.QueueItem, error)
	Delete(ctx context.Context, id string) error

	// CountPending returns the number of pending items.
	CountPending(ctx context.Context) (int, error)

	// DeletePending clears all pending rows (host "clear queue" action).
	DeletePending(ctx context.Context) (int, error)

	// DeleteFailedBefore removes terminally failed rows older than cutoff.
	DeleteFailedBefore(ctx context.Context, cutoff time.Time) (int, error)

	// ReleaseStale returns processing rows untouched since cutoff to
	// pending. Crash recovery for workers that died mid-claim.
	ReleaseStale(ctx context.Context, cutoff time.Time) (int, error)
}
