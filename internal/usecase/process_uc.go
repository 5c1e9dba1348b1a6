package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/adapter"
	"media-ai-tagger/internal/domain/ports/repository"
	"media-ai-tagger/internal/infra/logging"
	"media-ai-tagger/internal/infra/metrics"
)

// ProviderFactory resolves a provider name ("" means the configured
// default) to a ready adapter.
type ProviderFactory interface {
	Provider(ctx context.Context, name string) (adapter.VisionProvider, error)
}

// ProcessUseCase runs one attachment through analysis, validation,
// sanitization and persistence. Every failure path returns a FailureResult;
// the caller never sees an error value, only the outcome record.
type ProcessUseCase struct {
	attachments repository.AttachmentStore
	settings    *SettingsUseCase
	validation  *ValidationUseCase
	factory     ProviderFactory
	log         *zerolog.Logger
}

func NewProcessUseCase(
	attachments repository.AttachmentStore,
	settings *SettingsUseCase,
	validation *ValidationUseCase,
	factory ProviderFactory,
	log *zerolog.Logger,
) *ProcessUseCase {
	return &ProcessUseCase{
		attachments: attachments,
		settings:    settings,
		validation:  validation,
		factory:     factory,
		log:         log,
	}
}

// ProcessAttachment analyzes one attachment with the named provider ("" for
// the default) and writes the sanitized metadata back to the host store.
func (uc *ProcessUseCase) ProcessAttachment(ctx context.Context, attachmentID int64, providerName string) model.ProcessingResult {
	start := time.Now()
	ctx = logging.WithAttachmentID(ctx, attachmentID)
	log := logging.With(ctx, uc.log)

	att, err := uc.attachments.Find(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return model.FailureResult(fmt.Sprintf("Attachment %d not found", attachmentID))
		}
		log.Error().Err(err).Msg("attachment lookup failed")
		return model.FailureResult("Failed to load attachment: " + err.Error())
	}
	if !att.IsSupported() {
		return model.FailureResult(fmt.Sprintf("Unsupported file type: %s", att.MimeType))
	}

	settings, err := uc.settings.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("settings load failed")
		return model.FailureResult("Failed to load settings: " + err.Error())
	}

	provider, err := uc.factory.Provider(ctx, providerName)
	if err != nil {
		return model.FailureResult(err.Error())
	}
	ctx = logging.WithProvider(ctx, provider.Name())
	log = logging.With(ctx, uc.log)

	md, usage, err := provider.AnalyzeImage(ctx, att.FilePath)
	latency := time.Since(start)
	metrics.ObserveAnalysis(provider.Name(), usage.TotalTokens, int(latency.Milliseconds()), err == nil)
	if err != nil {
		if domain.IsRateLimit(err) {
			metrics.IncRateLimited(provider.Name())
		}
		log.Warn().Err(err).Msg("analysis failed")
		return model.FailureResult(err.Error())
	}

	if !uc.validation.Validate(md, settings.FieldFlags()) {
		log.Warn().Msg("metadata failed validation")
		return model.FailureResult("AI response failed metadata validation")
	}
	sanitized := uc.validation.Sanitize(md)

	if err := uc.attachments.SaveMetadata(ctx, att.ID, sanitized, provider.Name(), time.Now(), settings.FieldFlags()); err != nil {
		log.Error().Err(err).Msg("metadata save failed")
		return model.FailureResult("Failed to save metadata: " + err.Error())
	}

	log.Info().
		Int("tokens", usage.TotalTokens).
		Dur("elapsed", time.Since(start)).
		Msg("attachment tagged")
	return model.SuccessResult(sanitized, usage.TotalTokens, provider.Name(), time.Since(start))
}

// ReprocessAttachment clears previously written AI fields and runs a fresh
// analysis.
func (uc *ProcessUseCase) ReprocessAttachment(ctx context.Context, attachmentID int64, providerName string) model.ProcessingResult {
	if err := uc.attachments.ClearAIFields(ctx, attachmentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return model.FailureResult(fmt.Sprintf("Attachment %d not found", attachmentID))
		}
		return model.FailureResult("Failed to clear previous metadata: " + err.Error())
	}
	return uc.ProcessAttachment(ctx, attachmentID, providerName)
}
