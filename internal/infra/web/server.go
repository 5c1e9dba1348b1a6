package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/adapter"
	"media-ai-tagger/internal/usecase"
)

// QueueService is the queue-facing slice of usecase.QueueUseCase.
type QueueService interface {
	Enqueue(ctx context.Context, attachmentID int64, provider string) (string, error)
	EnqueueMany(ctx context.Context, attachmentIDs []int64, provider string) []usecase.EnqueueResult
	Status(ctx context.Context) (usecase.Status, error)
	ClearPending(ctx context.Context) (int, error)
}

// ProcessService runs synchronous per-attachment processing.
type ProcessService interface {
	ProcessAttachment(ctx context.Context, attachmentID int64, provider string) model.ProcessingResult
	ReprocessAttachment(ctx context.Context, attachmentID int64, provider string) model.ProcessingResult
}

// KeyService manages stored provider API keys.
type KeyService interface {
	UpdateAPIKey(ctx context.Context, provider, key string) error
	DeleteAPIKey(ctx context.Context, provider string) error
}

// ProviderResolver builds a provider adapter by name.
type ProviderResolver interface {
	Provider(ctx context.Context, name string) (adapter.VisionProvider, error)
}

// Drainer runs one queue drain pass on demand.
type Drainer interface {
	Tick(ctx context.Context)
}

type Server struct {
	queue     QueueService
	process   ProcessService
	keys      KeyService
	providers ProviderResolver
	drainer   Drainer
	apiKey    string
	log       *zerolog.Logger
}

func NewServer(
	queue QueueService,
	process ProcessService,
	keys KeyService,
	providers ProviderResolver,
	drainer Drainer,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		queue:     queue,
		process:   process,
		keys:      keys,
		providers: providers,
		drainer:   drainer,
		apiKey:    apiKey,
		log:       logger,
	}
}

// Router builds the full route tree. Health and metrics stay outside the
// auth guard; everything under /api/v1 requires the bearer key.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(traceID)
	r.Use(requestLog(s.log))
	r.Use(recoverPanic(s.log))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(bearerAuth(s.apiKey, s.log))

		r.Post("/attachments/{id}/process", s.handleProcess)
		r.Post("/attachments/{id}/reprocess", s.handleReprocess)
		r.Post("/attachments/process", s.handleBulkEnqueue)

		r.Post("/queue/process", s.handleDrainQueue)
		r.Get("/queue/status", s.handleQueueStatus)
		r.Delete("/queue", s.handleClearQueue)

		r.Post("/providers/{name}/test", s.handleProviderTest)
		r.Put("/providers/{name}/key", s.handleUpdateKey)
		r.Delete("/providers/{name}/key", s.handleDeleteKey)
	})

	return r
}

// ListenAndServe blocks until the context is cancelled, then drains with a
// bounded shutdown window.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
