package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"media-ai-tagger/internal/config"
	aiAdapters "media-ai-tagger/internal/infra/adapters/ai"
	pg "media-ai-tagger/internal/infra/db/postgres"
	"media-ai-tagger/internal/infra/logging"
	"media-ai-tagger/internal/infra/metrics"
	red "media-ai-tagger/internal/infra/redis"
	"media-ai-tagger/internal/infra/scheduler"
	"media-ai-tagger/internal/infra/security"
	"media-ai-tagger/internal/infra/web"
	"media-ai-tagger/internal/infra/worker"
	"media-ai-tagger/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode (console logs, verbose)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema migration failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient.Raw())

	// ---- Encryption ----
	vault, err := security.NewVault(cfg.Security.AuthKeySeed, cfg.Security.SecureKeySeed)
	if err != nil {
		logger.Fatal().Err(err).Msg("vault init failed")
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	queueRepo := pg.NewQueueRepo(pool, tm)
	optionsRepo := pg.NewOptionsRepo(pool)
	attachmentRepo := pg.NewAttachmentRepo(pool)

	// ---- Use cases ----
	settingsUC := usecase.NewSettingsUseCase(optionsRepo, vault, cfg.Locale, logger)
	validationUC := usecase.NewValidationUseCase()
	factory := aiAdapters.NewFactory(settingsUC, rateLimiter)
	processUC := usecase.NewProcessUseCase(attachmentRepo, settingsUC, validationUC, factory, logger)
	queueUC := usecase.NewQueueUseCase(queueRepo, attachmentRepo, settingsUC, logger)

	// ---- Workers ----
	pool4 := worker.NewPool(4, logger)
	pool4.Start(ctx)
	defer pool4.Stop()
	queueWorker := worker.NewQueueWorker(queueRepo, processUC, pool4, logger)

	sched := scheduler.New(
		cfg.Scheduler.TickInterval,
		cfg.Scheduler.StaleClaimWindow,
		queueWorker,
		queueRepo,
		settingsUC,
		locker,
		logger,
	)
	go func() { _ = sched.Run(ctx) }()

	// ---- HTTP surface ----
	server := web.NewServer(queueUC, processUC, settingsUC, factory, sched, cfg.HTTP.APIKey, logger)
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	go func() {
		logger.Info().Str("addr", addr).Msg("http server listening")
		if err := server.ListenAndServe(ctx, addr); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}
