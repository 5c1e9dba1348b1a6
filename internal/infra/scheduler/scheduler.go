package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/ports/repository"
	"media-ai-tagger/internal/infra/metrics"
	"media-ai-tagger/internal/infra/redis"
	"media-ai-tagger/internal/infra/worker"
	"media-ai-tagger/internal/usecase"
)

const tickLockKey = "scheduler:tick"

// Scheduler drives the periodic queue drain plus the housekeeping that goes
// with it: stale claim recovery, failed row retention and the queue depth
// gauge. Every tick takes a distributed lock, so running multiple replicas
// is safe; the losers skip the tick.
type Scheduler struct {
	interval    time.Duration
	staleWindow time.Duration
	worker      *worker.QueueWorker
	queue       repository.QueueRepository
	settings    *usecase.SettingsUseCase
	locker      redis.Locker
	log         *zerolog.Logger
}

func New(
	interval time.Duration,
	staleWindow time.Duration,
	w *worker.QueueWorker,
	queue repository.QueueRepository,
	settings *usecase.SettingsUseCase,
	locker redis.Locker,
	logger *zerolog.Logger,
) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	schedLog := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		interval:    interval,
		staleWindow: staleWindow,
		worker:      w,
		queue:       queue,
		settings:    settings,
		locker:      locker,
		log:         &schedLog,
	}
}

// Run loops until the context is cancelled. Intended to be started in its
// own goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduler pass. Exported so the manual "process queue now"
// endpoint can trigger the same pass outside the timer.
func (s *Scheduler) Tick(ctx context.Context) {
	token, err := s.locker.TryLock(ctx, tickLockKey, s.interval)
	if err != nil {
		if !errors.Is(err, domain.ErrLockNotAcquired) {
			s.log.Error().Err(err).Msg("tick lock failed")
		}
		return
	}
	defer func() {
		if err := s.locker.Unlock(context.Background(), tickLockKey, token); err != nil {
			s.log.Warn().Err(err).Msg("tick unlock failed")
		}
	}()

	if s.staleWindow > 0 {
		released, err := s.queue.ReleaseStale(ctx, time.Now().Add(-s.staleWindow))
		if err != nil {
			s.log.Error().Err(err).Msg("stale claim recovery failed")
		} else if released > 0 {
			s.log.Warn().Int("released", released).Msg("stale claims returned to queue")
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("settings load failed, skipping tick")
		return
	}

	if !settings.QueueEnabled {
		s.log.Debug().Msg("queue disabled, skipping drain")
		s.sweep(ctx, settings)
		return
	}

	succeeded, failed := s.worker.RunBatch(ctx, settings.BatchSize)
	if succeeded > 0 || failed > 0 {
		s.log.Info().Int("succeeded", succeeded).Int("failed", failed).Msg("batch drained")
	}

	s.sweep(ctx, settings)
}

func (s *Scheduler) sweep(ctx context.Context, settings usecase.Settings) {
	if settings.LogRetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -settings.LogRetentionDays)
		swept, err := s.queue.DeleteFailedBefore(ctx, cutoff)
		if err != nil {
			s.log.Error().Err(err).Msg("failed row sweep failed")
		} else if swept > 0 {
			s.log.Info().Int("swept", swept).Msg("aged failed rows removed")
		}
	}

	if pending, err := s.queue.CountPending(ctx); err == nil {
		metrics.SetQueueDepth(pending)
	}
}
