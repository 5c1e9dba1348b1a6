package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"media-ai-tagger/internal/domain"
)

func TestParseErrorBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "error object with message",
			body: `{"error":{"message":"invalid api key","type":"auth_error"}}`,
			want: "API error (HTTP 401): invalid api key",
		},
		{
			name: "error as plain string",
			body: `{"error":"something broke"}`,
			want: "API error (HTTP 401): something broke",
		},
		{
			name: "top level message",
			body: `{"message":"quota exceeded"}`,
			want: "API error (HTTP 401): quota exceeded",
		},
		{
			name: "error object with only type",
			body: `{"error":{"type":"overloaded_error"}}`,
			want: "API error (HTTP 401): overloaded_error",
		},
		{
			name: "non-json body",
			body: "<html>gateway timeout</html>",
			want: "HTTP 401: <html>gateway timeout</html>",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseErrorBody([]byte(tc.body), 401); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseErrorBodyTruncatesLongRaw(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := parseErrorBody([]byte(long), 502)
	if !strings.HasPrefix(got, "HTTP 502: ") || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected format: %q", got)
	}
	if len(got) > len("HTTP 502: ")+203 {
		t.Fatalf("raw body not truncated: %d chars", len(got))
	}
}

func TestPostJSONRateLimitStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit reached"}}`))
	}))
	defer srv.Close()

	_, err := postJSON(context.Background(), srv.Client(), "openai", srv.URL, map[string]any{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.KindOf(err) != domain.KindRateLimit {
		t.Fatalf("429 must classify as rate limit, got kind %q (%v)", domain.KindOf(err), err)
	}
}

func TestPostJSONConnectionError(t *testing.T) {
	client := &http.Client{Timeout: 200 * time.Millisecond}
	_, err := postJSON(context.Background(), client, "claude", "http://127.0.0.1:1/none", map[string]any{}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if pe.Kind != domain.KindNetwork || !strings.HasPrefix(pe.Message, "Connection error: ") {
		t.Fatalf("unexpected classification: kind=%q message=%q", pe.Kind, pe.Message)
	}
}

func TestPostJSONSendsHeaders(t *testing.T) {
	var gotContent, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContent = r.Header.Get("Content-Type")
		gotCustom = r.Header.Get("x-api-key")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := postJSON(context.Background(), srv.Client(), "claude", srv.URL, map[string]any{"a": 1},
		map[string]string{"x-api-key": "sk-test"})
	if err != nil {
		t.Fatalf("postJSON: %v", err)
	}
	if gotContent != "application/json" {
		t.Errorf("content type = %q", gotContent)
	}
	if gotCustom != "sk-test" {
		t.Errorf("custom header = %q", gotCustom)
	}
}
