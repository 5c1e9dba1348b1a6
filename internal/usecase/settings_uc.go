package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/ports/repository"
	"media-ai-tagger/internal/infra/adapters/ai"
	"media-ai-tagger/internal/infra/logging"
	"media-ai-tagger/internal/infra/security"
)

const (
	settingsOptionKey = "ai_tagger_settings"
	apiKeyOptionFmt   = "ai_tagger_api_key_%s"
)

// Settings is the runtime-tunable configuration blob, persisted as one
// options row. Zero values are filled from DefaultSettings on read.
type Settings struct {
	DefaultProvider     string `json:"default_provider"`
	QueueEnabled        bool   `json:"queue_enabled"`
	BatchSize           int    `json:"batch_size"`
	RetryAttempts       int    `json:"retry_attempts"`
	RetryDelay          int    `json:"retry_delay"` // seconds
	ImageMaxDimension   int    `json:"image_max_dimension"`
	ImageQuality        int    `json:"image_quality"`
	LogRetentionDays    int    `json:"log_retention_days"`
	EnableTitle         bool   `json:"enable_title"`
	EnableDescription   bool   `json:"enable_description"`
	EnableCaption       bool   `json:"enable_caption"`
	TitleMaxWords       int    `json:"title_max_words"`
	DescriptionMaxWords int    `json:"description_max_words"`
	CaptionMaxWords     int    `json:"caption_max_words"`
	Prompt              string `json:"prompt"`
}

// DefaultSettings returns the out-of-the-box configuration.
func DefaultSettings() Settings {
	return Settings{
		DefaultProvider:     "openai",
		QueueEnabled:        true,
		BatchSize:           10,
		RetryAttempts:       3,
		RetryDelay:          300,
		ImageMaxDimension:   2048,
		ImageQuality:        85,
		LogRetentionDays:    30,
		EnableTitle:         true,
		EnableDescription:   true,
		EnableCaption:       true,
		TitleMaxWords:       10,
		DescriptionMaxWords: 50,
		CaptionMaxWords:     20,
	}
}

// SettingsUseCase reads and writes runtime settings plus the encrypted
// per-provider API keys. It also feeds the provider factory.
type SettingsUseCase struct {
	options repository.OptionsRepository
	vault   *security.Vault
	locale  string
	log     *zerolog.Logger
}

var _ ai.SettingsSource = (*SettingsUseCase)(nil)

func NewSettingsUseCase(options repository.OptionsRepository, vault *security.Vault, locale string, log *zerolog.Logger) *SettingsUseCase {
	return &SettingsUseCase{options: options, vault: vault, locale: locale, log: log}
}

// Get loads the settings blob, layered over the defaults. A missing or
// unreadable row yields the defaults.
func (uc *SettingsUseCase) Get(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()

	raw, err := uc.options.Get(ctx, settingsOptionKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return settings, nil
		}
		return settings, err
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		logging.With(ctx, uc.log).Warn().Err(err).Msg("stored settings unreadable, using defaults")
		return DefaultSettings(), nil
	}
	return settings, nil
}

// Update persists the full settings blob.
func (uc *SettingsUseCase) Update(ctx context.Context, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return uc.options.Set(ctx, settingsOptionKey, string(raw))
}

func apiKeyOption(provider string) string {
	return fmt.Sprintf(apiKeyOptionFmt, provider)
}

// GetAPIKey returns the decrypted key for a provider, or "" when the key is
// missing or cannot be decrypted. Decrypt failures are logged, not raised:
// an unreadable key is operationally the same as no key.
func (uc *SettingsUseCase) GetAPIKey(ctx context.Context, provider string) string {
	stored, err := uc.options.Get(ctx, apiKeyOption(provider))
	if err != nil {
		return ""
	}
	plain, err := uc.vault.Decrypt(stored)
	if err != nil {
		logging.With(ctx, uc.log).Warn().Str("provider", provider).Err(err).Msg("api key decrypt failed")
		return ""
	}
	return plain
}

// UpdateAPIKey encrypts and stores a provider key. A blank value keeps the
// existing key, as does a value that is already a ciphertext echo (the
// settings form round-trips a masked placeholder).
func (uc *SettingsUseCase) UpdateAPIKey(ctx context.Context, provider, key string) error {
	if key == "" || security.LooksEncrypted(key) {
		return nil
	}
	enc, err := uc.vault.Encrypt(key)
	if err != nil {
		return err
	}
	return uc.options.Set(ctx, apiKeyOption(provider), enc)
}

// DeleteAPIKey removes a provider key.
func (uc *SettingsUseCase) DeleteAPIKey(ctx context.Context, provider string) error {
	return uc.options.Delete(ctx, apiKeyOption(provider))
}

// ProviderSettings builds the snapshot the adapter factory consumes.
func (uc *SettingsUseCase) ProviderSettings(ctx context.Context) (ai.ProviderSettings, error) {
	settings, err := uc.Get(ctx)
	if err != nil {
		return ai.ProviderSettings{}, err
	}

	keys := make(map[string]string, len(ai.ProviderNames))
	for _, name := range ai.ProviderNames {
		keys[name] = uc.GetAPIKey(ctx, name)
	}

	return ai.ProviderSettings{
		APIKeys:         keys,
		DefaultProvider: settings.DefaultProvider,
		Prompt: ai.PromptSpec{
			BasePrompt:        settings.Prompt,
			EnableTitle:       settings.EnableTitle,
			EnableDescription: settings.EnableDescription,
			EnableCaption:     settings.EnableCaption,
			TitleWords:        settings.TitleMaxWords,
			DescriptionWords:  settings.DescriptionMaxWords,
			CaptionWords:      settings.CaptionMaxWords,
			Locale:            uc.locale,
		},
		Image: ai.ImageOptions{
			MaxDimension: settings.ImageMaxDimension,
			JPEGQuality:  settings.ImageQuality,
		},
	}, nil
}

// FieldFlags exposes the per-field enable toggles for persistence.
func (s Settings) FieldFlags() repository.FieldFlags {
	return repository.FieldFlags{
		Title:       s.EnableTitle,
		Description: s.EnableDescription,
		Caption:     s.EnableCaption,
	}
}
