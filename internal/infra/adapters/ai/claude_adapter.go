package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/adapter"
)

var _ adapter.VisionProvider = (*ClaudeAdapter)(nil)

const (
	claudeAPIURL    = "https://api.anthropic.com/v1/messages"
	claudeModel     = "claude-sonnet-4-5"
	claudeVersion   = "2023-06-01"
	claudeBeta      = "structured-outputs-2025-11-13"
	claudeRateLimit = 50 // requests per minute
)

// ClaudeAdapter talks to the Anthropic Messages API with the structured
// outputs beta so the response is guaranteed to match the metadata schema.
type ClaudeAdapter struct {
	apiKey string
	apiURL string
	model  string
	spec   PromptSpec
	img    ImageOptions
	client *http.Client
}

func NewClaudeAdapter(apiKey string, spec PromptSpec, img ImageOptions) *ClaudeAdapter {
	return &ClaudeAdapter{
		apiKey: apiKey,
		apiURL: claudeAPIURL,
		model:  claudeModel,
		spec:   spec,
		img:    img,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *ClaudeAdapter) Name() string       { return "claude" }
func (c *ClaudeAdapter) RateLimit() int     { return claudeRateLimit }
func (c *ClaudeAdapter) IsConfigured() bool { return c.apiKey != "" }

func (c *ClaudeAdapter) headers(key string) map[string]string {
	return map[string]string{
		"x-api-key":         key,
		"anthropic-version": claudeVersion,
		"anthropic-beta":    claudeBeta,
	}
}

func (c *ClaudeAdapter) AnalyzeImage(ctx context.Context, imagePath string) (model.ImageMetadata, adapter.AnalysisUsage, error) {
	var none adapter.AnalysisUsage
	if !c.IsConfigured() {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindConfiguration, c.Name(), "Claude provider not configured")
	}

	optimized, cleanup, err := optimizeImage(imagePath, c.img)
	if err != nil {
		return model.ImageMetadata{}, none, domain.WrapProviderError(domain.KindNotFound, c.Name(), err)
	}
	defer cleanup()

	imageData, mimeType, err := encodeImage(optimized)
	if err != nil {
		return model.ImageMetadata{}, none, domain.WrapProviderError(domain.KindNotFound, c.Name(), err)
	}

	payload := map[string]any{
		"model":      c.model,
		"max_tokens": 1024,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{
						"type": "image",
						"source": map[string]any{
							"type":       "base64",
							"media_type": mimeType,
							"data":       imageData,
						},
					},
					map[string]any{"type": "text", "text": buildPrompt(c.spec)},
				},
			},
		},
		"output_format": map[string]any{
			"type":   "json_schema",
			"schema": metadataSchema(),
		},
	}

	raw, err := postJSON(ctx, c.client, c.Name(), c.apiURL, payload, c.headers(c.apiKey))
	if err != nil {
		return model.ImageMetadata{}, none, classifyClaudeError(err)
	}

	var response struct {
		Error *struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, c.Name(), "Invalid response structure from Claude")
	}
	if response.Error != nil {
		return model.ImageMetadata{}, none, classifyClaudeError(domain.NewProviderError(
			domain.KindParse, c.Name(), response.Error.Message))
	}
	if len(response.Content) == 0 || response.Content[0].Text == "" {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, c.Name(), "Invalid response structure from Claude")
	}

	md, err := decodeMetadata(c.Name(), []byte(response.Content[0].Text))
	if err != nil {
		return model.ImageMetadata{}, none, err
	}
	usage := adapter.AnalysisUsage{
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
		TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
	}
	return md, usage, nil
}

func classifyClaudeError(err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.Kind != domain.KindRateLimit && strings.Contains(pe.Message, "rate_limit") {
		return domain.NewProviderError(domain.KindRateLimit, pe.Provider, pe.Message)
	}
	return err
}

func (c *ClaudeAdapter) TestConnection(ctx context.Context, apiKeyOverride string) error {
	key := apiKeyOverride
	if key == "" {
		key = c.apiKey
	}
	if key == "" {
		return domain.NewProviderError(domain.KindConfiguration, c.Name(), "Claude API key not configured")
	}

	payload := map[string]any{
		"model":      c.model,
		"max_tokens": 10,
		"messages": []any{
			map[string]any{"role": "user", "content": "test"},
		},
	}

	raw, err := postJSON(ctx, c.client, c.Name(), c.apiURL, payload, c.headers(key))
	if err != nil {
		return classifyClaudeError(err)
	}

	var check struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &check); err != nil {
		return domain.NewProviderError(domain.KindParse, c.Name(), "Invalid response from Claude API")
	}
	if check.Error != nil {
		return domain.NewProviderError(domain.KindConfiguration, c.Name(), "Claude API error: "+check.Error.Message)
	}
	if len(check.Content) == 0 {
		return domain.NewProviderError(domain.KindParse, c.Name(), "Invalid response from Claude API")
	}
	return nil
}
