package model

import "time"

type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusFailed     QueueStatus = "failed"
)

// DefaultMaxAttempts is the retry ceiling applied to new queue items unless
// settings override it.
const DefaultMaxAttempts = 3

// QueueItem is one pending request to generate metadata for one attachment.
// Rows are deleted outright on success; only retryable and terminally failed
// work stays in the table.
type QueueItem struct {
	ID           string
	AttachmentID int64
	Provider     string
	Status       QueueStatus
	Attempts     int
	MaxAttempts  int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProcessedAt  *time.Time
}

// NewQueueItem builds a fresh pending item for the given attachment.
func NewQueueItem(attachmentID int64, provider string, maxAttempts int) *QueueItem {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	now := time.Now()
	return &QueueItem{
		AttachmentID: attachmentID,
		Provider:     provider,
		Status:       QueueStatusPending,
		Attempts:     0,
		MaxAttempts:  maxAttempts,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// RecordFailure increments the attempt counter and either returns the item to
// pending for a later batch or marks it terminally failed once the ceiling is
// reached. The last error message is kept either way.
func (q *QueueItem) RecordFailure(message string) {
	q.Attempts++
	q.ErrorMessage = message
	if q.HasReachedMaxAttempts() {
		q.Status = QueueStatusFailed
	} else {
		q.Status = QueueStatusPending
	}
	q.UpdatedAt = time.Now()
}

// HasReachedMaxAttempts reports whether the item is out of retries.
func (q *QueueItem) HasReachedMaxAttempts() bool {
	return q.Attempts >= q.MaxAttempts
}
