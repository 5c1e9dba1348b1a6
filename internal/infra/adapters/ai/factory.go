package ai

import (
	"context"
	"fmt"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/ports/adapter"
)

// ProviderNames is the fixed set of supported providers.
var ProviderNames = []string{"openai", "claude", "gemini"}

// ProviderSettings is the snapshot a Factory needs to build an adapter.
// Keys are already decrypted.
type ProviderSettings struct {
	APIKeys         map[string]string
	DefaultProvider string
	Prompt          PromptSpec
	Image           ImageOptions
}

// SettingsSource yields the current provider settings. Adapters are built
// per call so key and prompt changes take effect without a restart.
type SettingsSource interface {
	ProviderSettings(ctx context.Context) (ProviderSettings, error)
}

type Factory struct {
	source  SettingsSource
	limiter RateLimiter
}

func NewFactory(source SettingsSource, limiter RateLimiter) *Factory {
	return &Factory{source: source, limiter: limiter}
}

// Provider builds the named adapter, or the configured default when name is
// empty. Unknown names fail with ErrUnknownProvider.
func (f *Factory) Provider(ctx context.Context, name string) (adapter.VisionProvider, error) {
	settings, err := f.source.ProviderSettings(ctx)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = settings.DefaultProvider
	}
	if name == "" {
		name = "openai"
	}

	inner, err := f.build(name, settings)
	if err != nil {
		return nil, err
	}
	return withRateLimit(inner, f.limiter), nil
}

func (f *Factory) build(name string, settings ProviderSettings) (adapter.VisionProvider, error) {
	key := settings.APIKeys[name]
	switch name {
	case "openai":
		return NewOpenAIAdapter(key, settings.Prompt, settings.Image), nil
	case "claude":
		return NewClaudeAdapter(key, settings.Prompt, settings.Image), nil
	case "gemini":
		return NewGeminiAdapter(key, settings.Prompt, settings.Image), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, name)
	}
}

// IsKnownProvider reports whether name is one of the supported providers.
func IsKnownProvider(name string) bool {
	for _, p := range ProviderNames {
		if p == name {
			return true
		}
	}
	return false
}
