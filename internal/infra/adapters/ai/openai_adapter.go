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

// Compile-time assurance this adapter satisfies the port
var _ adapter.VisionProvider = (*OpenAIAdapter)(nil)

const (
	openAIChatURL      = "https://api.openai.com/v1/chat/completions"
	openAIResponsesURL = "https://api.openai.com/v1/responses"
	openAIModel        = "gpt-5"
	openAIRateLimit    = 500 // requests per minute
)

// OpenAIAdapter talks to the OpenAI vision endpoints. GPT-5-class models use
// the Responses API; older ones fall back to Chat Completions.
type OpenAIAdapter struct {
	apiKey  string
	chatURL string
	respURL string
	model   string
	spec    PromptSpec
	img     ImageOptions
	client  *http.Client
}

func NewOpenAIAdapter(apiKey string, spec PromptSpec, img ImageOptions) *OpenAIAdapter {
	return &OpenAIAdapter{
		apiKey:  apiKey,
		chatURL: openAIChatURL,
		respURL: openAIResponsesURL,
		model:   openAIModel,
		spec:    spec,
		img:     img,
		// GPT-5 vision calls can run long
		client: &http.Client{Timeout: 300 * time.Second},
	}
}

func (o *OpenAIAdapter) Name() string       { return "openai" }
func (o *OpenAIAdapter) RateLimit() int     { return openAIRateLimit }
func (o *OpenAIAdapter) IsConfigured() bool { return o.apiKey != "" }

func (o *OpenAIAdapter) usesResponsesAPI() bool {
	return strings.HasPrefix(o.model, "gpt-5") || strings.HasPrefix(o.model, "gpt-6")
}

func (o *OpenAIAdapter) apiURL() string {
	if o.usesResponsesAPI() {
		return o.respURL
	}
	return o.chatURL
}

func (o *OpenAIAdapter) AnalyzeImage(ctx context.Context, imagePath string) (model.ImageMetadata, adapter.AnalysisUsage, error) {
	var none adapter.AnalysisUsage
	if !o.IsConfigured() {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindConfiguration, o.Name(), "OpenAI provider not configured")
	}

	optimized, cleanup, err := optimizeImage(imagePath, o.img)
	if err != nil {
		return model.ImageMetadata{}, none, domain.WrapProviderError(domain.KindNotFound, o.Name(), err)
	}
	defer cleanup()

	payload, err := o.buildRequest(optimized)
	if err != nil {
		return model.ImageMetadata{}, none, domain.WrapProviderError(domain.KindNotFound, o.Name(), err)
	}

	headers := map[string]string{"Authorization": "Bearer " + o.apiKey}
	raw, err := postJSON(ctx, o.client, o.Name(), o.apiURL(), payload, headers)
	if err != nil {
		return model.ImageMetadata{}, none, classifyOpenAIError(err)
	}

	md, usage, err := o.parseResponse(raw)
	if err != nil {
		return model.ImageMetadata{}, none, classifyOpenAIError(err)
	}
	return md, usage, nil
}

// classifyOpenAIError promotes errors whose message carries the vendor's
// rate-limit marker to the rate-limit kind.
func classifyOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.Kind != domain.KindRateLimit && strings.Contains(pe.Message, "rate_limit") {
		return domain.NewProviderError(domain.KindRateLimit, pe.Provider, pe.Message)
	}
	return err
}

func (o *OpenAIAdapter) buildRequest(imagePath string) (any, error) {
	imageData, mimeType, err := encodeImage(imagePath)
	if err != nil {
		return nil, err
	}
	prompt := buildPrompt(o.spec)
	dataURL := "data:" + mimeType + ";base64," + imageData
	schema := metadataSchema()

	if o.usesResponsesAPI() {
		return map[string]any{
			"model": o.model,
			"input": []any{
				map[string]any{
					"role": "system",
					"content": []any{
						map[string]any{
							"type": "input_text",
							"text": "You are an expert image analyst. Respond with valid JSON only.",
						},
					},
				},
				map[string]any{
					"role": "user",
					"content": []any{
						map[string]any{"type": "input_text", "text": prompt},
						map[string]any{"type": "input_image", "image_url": dataURL},
					},
				},
			},
			"max_output_tokens": 16000,
			"text": map[string]any{
				"format": map[string]any{
					"type":   "json_schema",
					"name":   "image_metadata",
					"strict": true,
					"schema": schema,
				},
			},
		}, nil
	}

	return map[string]any{
		"model": o.model,
		"messages": []any{
			map[string]any{
				"role":    "system",
				"content": "You are an expert image analyst. Respond with valid JSON only.",
			},
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "text", "text": prompt},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				},
			},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "image_metadata",
				"strict": true,
				"schema": schema,
			},
		},
		"max_tokens": 500,
	}, nil
}

type openAIUsage struct {
	TotalTokens      int `json:"total_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	InputTokens      int `json:"input_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	OutputTokens     int `json:"output_tokens"`
}

func (u openAIUsage) toUsage() adapter.AnalysisUsage {
	in := u.PromptTokens
	if in == 0 {
		in = u.InputTokens
	}
	out := u.CompletionTokens
	if out == 0 {
		out = u.OutputTokens
	}
	return adapter.AnalysisUsage{PromptTokens: in, CompletionTokens: out, TotalTokens: u.TotalTokens}
}

func (o *OpenAIAdapter) parseResponse(raw []byte) (model.ImageMetadata, adapter.AnalysisUsage, error) {
	var none adapter.AnalysisUsage

	if o.usesResponsesAPI() {
		var payload struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
			Output []struct {
				Type    string `json:"type"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"output"`
			Usage openAIUsage `json:"usage"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return model.ImageMetadata{}, none, domain.NewProviderError(
				domain.KindParse, o.Name(), "Invalid response structure from OpenAI Responses API")
		}
		if payload.Error != nil {
			return model.ImageMetadata{}, none, domain.NewProviderError(
				domain.KindParse, o.Name(), payload.Error.Message)
		}
		for _, item := range payload.Output {
			if item.Type != "message" {
				continue
			}
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					md, err := decodeMetadata(o.Name(), []byte(c.Text))
					if err != nil {
						return model.ImageMetadata{}, none, err
					}
					return md, payload.Usage.toUsage(), nil
				}
			}
		}
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, o.Name(), "No output_text found in OpenAI response")
	}

	var payload struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage openAIUsage `json:"usage"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, o.Name(), "Invalid response structure from OpenAI")
	}
	if payload.Error != nil {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, o.Name(), payload.Error.Message)
	}
	if len(payload.Choices) == 0 || payload.Choices[0].Message.Content == "" {
		return model.ImageMetadata{}, none, domain.NewProviderError(
			domain.KindParse, o.Name(), "Invalid response structure from OpenAI")
	}
	md, err := decodeMetadata(o.Name(), []byte(payload.Choices[0].Message.Content))
	if err != nil {
		return model.ImageMetadata{}, none, err
	}
	return md, payload.Usage.toUsage(), nil
}

func (o *OpenAIAdapter) TestConnection(ctx context.Context, apiKeyOverride string) error {
	key := apiKeyOverride
	if key == "" {
		key = o.apiKey
	}
	if key == "" {
		return domain.NewProviderError(domain.KindConfiguration, o.Name(), "OpenAI API key not configured")
	}

	var payload any
	if o.usesResponsesAPI() {
		payload = map[string]any{
			"model": o.model,
			"input": []any{
				map[string]any{
					"role": "user",
					"content": []any{
						map[string]any{"type": "input_text", "text": "test"},
					},
				},
			},
			"max_output_tokens": 10,
		}
	} else {
		payload = map[string]any{
			"model": o.model,
			"messages": []any{
				map[string]any{"role": "user", "content": "test"},
			},
			"max_tokens": 5,
		}
	}

	headers := map[string]string{"Authorization": "Bearer " + key}
	raw, err := postJSON(ctx, o.client, o.Name(), o.apiURL(), payload, headers)
	if err != nil {
		return classifyOpenAIError(err)
	}

	var check struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Output  json.RawMessage `json:"output"`
		Choices json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal(raw, &check); err != nil {
		return domain.NewProviderError(domain.KindParse, o.Name(), "Invalid response from OpenAI API")
	}
	if check.Error != nil {
		return domain.NewProviderError(domain.KindConfiguration, o.Name(), "OpenAI API error: "+check.Error.Message)
	}
	if o.usesResponsesAPI() {
		if len(check.Output) == 0 {
			return domain.NewProviderError(domain.KindParse, o.Name(), "Invalid response from OpenAI API")
		}
	} else if len(check.Choices) == 0 {
		return domain.NewProviderError(domain.KindParse, o.Name(), "Invalid response from OpenAI API")
	}
	return nil
}
