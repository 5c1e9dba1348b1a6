package adapter

import (
	"context"

	"media-ai-tagger/internal/domain/model"
)

// AnalysisUsage reports token consumption for a single vision call, as stated
// by the vendor. Zero when the vendor omits usage accounting.
type AnalysisUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// VisionProvider is the port for an external AI vision service that converts
// an image into structured metadata.
type VisionProvider interface {
	// AnalyzeImage uploads the image at path and returns the parsed metadata.
	// Failures are *domain.ProviderError values carrying the error kind.
	AnalyzeImage(ctx context.Context, imagePath string) (model.ImageMetadata, AnalysisUsage, error)

	// TestConnection performs a minimal live call to validate a key. When
	// apiKeyOverride is non-empty it is used instead of the stored key.
	TestConnection(ctx context.Context, apiKeyOverride string) error

	// IsConfigured reports whether an API key is present.
	IsConfigured() bool

	// Name returns the canonical provider name (openai, claude, gemini).
	Name() string

	// RateLimit returns the vendor's requests-per-minute ceiling. It is
	// informational; enforcement happens in the caller.
	RateLimit() int
}
