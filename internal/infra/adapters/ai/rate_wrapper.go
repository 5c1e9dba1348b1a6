package ai

import (
	"context"
	"fmt"
	"time"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/adapter"
	"media-ai-tagger/internal/infra/redis"
)

var _ adapter.VisionProvider = (*rateLimitedProvider)(nil)

// RateLimiter gates an outbound call against a per-provider window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// rateLimitedProvider rejects AnalyzeImage calls locally before they reach
// the vendor when the per-minute budget is spent. TestConnection is not
// gated; a settings-page check should not compete with the queue.
type rateLimitedProvider struct {
	inner   adapter.VisionProvider
	limiter RateLimiter
}

func withRateLimit(inner adapter.VisionProvider, limiter RateLimiter) adapter.VisionProvider {
	if limiter == nil {
		return inner
	}
	return &rateLimitedProvider{inner: inner, limiter: limiter}
}

func (r *rateLimitedProvider) Name() string       { return r.inner.Name() }
func (r *rateLimitedProvider) RateLimit() int     { return r.inner.RateLimit() }
func (r *rateLimitedProvider) IsConfigured() bool { return r.inner.IsConfigured() }

func (r *rateLimitedProvider) TestConnection(ctx context.Context, apiKeyOverride string) error {
	return r.inner.TestConnection(ctx, apiKeyOverride)
}

func (r *rateLimitedProvider) AnalyzeImage(ctx context.Context, imagePath string) (model.ImageMetadata, adapter.AnalysisUsage, error) {
	key := redis.ProviderKey(r.inner.Name())
	ok, err := r.limiter.Allow(ctx, key, r.inner.RateLimit(), time.Minute)
	if err != nil {
		// A limiter outage should not halt tagging; let the call through.
		ok = true
	}
	if !ok {
		return model.ImageMetadata{}, adapter.AnalysisUsage{}, domain.NewProviderError(
			domain.KindRateLimit, r.inner.Name(),
			fmt.Sprintf("Rate limit exceeded: %d requests per minute", r.inner.RateLimit()))
	}
	return r.inner.AnalyzeImage(ctx, imagePath)
}
