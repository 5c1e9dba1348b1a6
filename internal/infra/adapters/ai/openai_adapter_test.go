package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"media-ai-tagger/internal/domain"
)

// writeTestImage writes a small valid PNG and returns its path.
func writeTestImage(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sample.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func newTestOpenAI(key, serverURL string) *OpenAIAdapter {
	a := NewOpenAIAdapter(key, enabledSpec(), ImageOptions{})
	a.respURL = serverURL
	a.chatURL = serverURL
	return a
}

func TestOpenAIAnalyzeImage(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"output": []any{
				map[string]any{
					"type": "message",
					"content": []any{
						map[string]any{
							"type": "output_text",
							"text": `{"title":"Sunset","description":"A sunset over hills","alt_text":"Sunset","caption":"Golden hour","tags":["sunset","sky"]}`,
						},
					},
				},
			},
			"usage": map[string]any{"input_tokens": 120, "output_tokens": 40, "total_tokens": 160},
		})
	}))
	defer srv.Close()

	a := newTestOpenAI("sk-test", srv.URL)
	md, usage, err := a.AnalyzeImage(context.Background(), writeTestImage(t))
	if err != nil {
		t.Fatalf("AnalyzeImage: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["model"] != openAIModel {
		t.Errorf("model = %v", gotBody["model"])
	}
	if _, ok := gotBody["input"]; !ok {
		t.Error("gpt-5 requests must use the Responses API input field")
	}

	if md.Title != "Sunset" || len(md.Tags) != 2 {
		t.Errorf("unexpected metadata: %+v", md)
	}
	if usage.TotalTokens != 160 || usage.PromptTokens != 120 || usage.CompletionTokens != 40 {
		t.Errorf("unexpected usage: %+v", usage)
	}
}

func TestOpenAINotConfigured(t *testing.T) {
	a := NewOpenAIAdapter("", enabledSpec(), ImageOptions{})
	if a.IsConfigured() {
		t.Error("empty key must report not configured")
	}
	_, _, err := a.AnalyzeImage(context.Background(), "whatever.png")
	if domain.KindOf(err) != domain.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestOpenAIRateLimitMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"rate_limit_exceeded: slow down"}}`))
	}))
	defer srv.Close()

	a := newTestOpenAI("sk-test", srv.URL)
	_, _, err := a.AnalyzeImage(context.Background(), writeTestImage(t))
	if domain.KindOf(err) != domain.KindRateLimit {
		t.Fatalf("rate_limit body must classify as rate limit, got %v", err)
	}
}

func TestOpenAIMalformedJSONContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"output": []any{
				map[string]any{
					"type": "message",
					"content": []any{
						map[string]any{"type": "output_text", "text": "not json at all"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	a := newTestOpenAI("sk-test", srv.URL)
	_, _, err := a.AnalyzeImage(context.Background(), writeTestImage(t))
	if domain.KindOf(err) != domain.KindParse {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestOpenAITestConnection(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"output": []any{map[string]any{"type": "message"}},
		})
	}))
	defer srv.Close()

	a := newTestOpenAI("sk-stored", srv.URL)
	if err := a.TestConnection(context.Background(), ""); err != nil {
		t.Fatalf("TestConnection with stored key: %v", err)
	}
	if gotAuth != "Bearer sk-stored" {
		t.Errorf("auth header = %q", gotAuth)
	}

	if err := a.TestConnection(context.Background(), "sk-override"); err != nil {
		t.Fatalf("TestConnection with override: %v", err)
	}
	if gotAuth != "Bearer sk-override" {
		t.Errorf("override key not used: %q", gotAuth)
	}

	empty := newTestOpenAI("", srv.URL)
	if err := empty.TestConnection(context.Background(), ""); domain.KindOf(err) != domain.KindConfiguration {
		t.Fatalf("expected configuration error without any key, got %v", err)
	}
}

func TestOpenAIRateLimitConstant(t *testing.T) {
	a := NewOpenAIAdapter("k", enabledSpec(), ImageOptions{})
	if a.RateLimit() != 500 {
		t.Errorf("RateLimit() = %d, want 500", a.RateLimit())
	}
	if a.Name() != "openai" {
		t.Errorf("Name() = %q", a.Name())
	}
}
