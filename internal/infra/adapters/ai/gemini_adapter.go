package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/adapter"
)

var _ adapter.VisionProvider = (*GeminiAdapter)(nil)

const (
	geminiModel     = "gemini-2.5-flash"
	geminiRateLimit = 60 // requests per minute
)

// GeminiAdapter talks to the Gemini API through the official Go SDK. A JSON
// response schema is attached so the model output needs no post-cleanup.
type GeminiAdapter struct {
	apiKey string
	model  string
	spec   PromptSpec
	img    ImageOptions
}

func NewGeminiAdapter(apiKey string, spec PromptSpec, img ImageOptions) *GeminiAdapter {
	return &GeminiAdapter{
		apiKey: apiKey,
		model:  geminiModel,
		spec:   spec,
		img:    img,
	}
}

func (g *GeminiAdapter) Name() string       { return "gemini" }
func (g *GeminiAdapter) RateLimit() int     { return geminiRateLimit }
func (g *GeminiAdapter) IsConfigured() bool { return g.apiKey != "" }

func (g *GeminiAdapter) newClient(ctx context.Context, key string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domain.WrapProviderError(domain.KindConfiguration, g.Name(), err)
	}
	return client, nil
}

func geminiResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"alt_text":    {Type: genai.TypeString},
			"caption":     {Type: genai.TypeString},
			"tags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"title", "description", "alt_text", "caption", "tags"},
	}
}

func (g *GeminiAdapter) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.4),
		TopK:             genai.Ptr[float32](32),
		TopP:             genai.Ptr[float32](1),
		MaxOutputTokens:  2048,
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiResponseSchema(),
	}
}

func (g *GeminiAdapter) AnalyzeImage(ctx context.Context, imagePath string) (model.ImageMetadata, adapter.AnalysisUsage, error) {
	var none adapter.AnalysisUsage
	if !g.IsConfigured() {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindConfiguration, g.Name(), "Gemini provider not configured")
	}

	optimized, cleanup, err := optimizeImage(imagePath, g.img)
	if err != nil {
		return model.ImageMetadata{}, none, domain.WrapProviderError(domain.KindNotFound, g.Name(), err)
	}
	defer cleanup()

	data, err := os.ReadFile(optimized)
	if err != nil {
		return model.ImageMetadata{}, none, domain.WrapProviderError(domain.KindNotFound, g.Name(), err)
	}
	mimeType := detectMime(optimized, data)

	client, err := g.newClient(ctx, g.apiKey)
	if err != nil {
		return model.ImageMetadata{}, none, err
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: buildPrompt(g.spec)},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
		},
	}}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, g.generateConfig())
	if err != nil {
		return model.ImageMetadata{}, none, g.classifyError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, g.Name(), "Invalid response structure from Gemini")
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, g.Name(), "Content blocked by Gemini safety filters")
	}

	var text string
	for _, part := range cand.Content.Parts {
		if part.Text != "" {
			text = part.Text
			break
		}
	}
	if text == "" {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, g.Name(), "No text content in Gemini response")
	}

	md, err := decodeMetadata(g.Name(), []byte(text))
	if err != nil {
		return model.ImageMetadata{}, none, err
	}

	var usage adapter.AnalysisUsage
	if resp.UsageMetadata != nil {
		usage = adapter.AnalysisUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return md, usage, nil
}

func (g *GeminiAdapter) classifyError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED" {
			return domain.NewProviderError(domain.KindRateLimit, g.Name(), apiErr.Message)
		}
		return domain.NewProviderError(domain.KindNetwork, g.Name(),
			fmt.Sprintf("Gemini API error (HTTP %d): %s", apiErr.Code, apiErr.Message))
	}
	if strings.Contains(err.Error(), "rate") && strings.Contains(err.Error(), "limit") {
		return domain.WrapProviderError(domain.KindRateLimit, g.Name(), err)
	}
	return domain.WrapProviderError(domain.KindNetwork, g.Name(), err)
}

func (g *GeminiAdapter) TestConnection(ctx context.Context, apiKeyOverride string) error {
	key := apiKeyOverride
	if key == "" {
		key = g.apiKey
	}
	if key == "" {
		return domain.NewProviderError(domain.KindConfiguration, g.Name(), "Gemini API key not configured")
	}

	client, err := g.newClient(ctx, key)
	if err != nil {
		return err
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: "test"}},
	}}
	resp, err := client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: 10,
	})
	if err != nil {
		return g.classifyError(err)
	}
	if len(resp.Candidates) == 0 {
		return domain.NewProviderError(domain.KindParse, g.Name(), "Invalid response from Gemini API")
	}
	return nil
}
