package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"media-ai-tagger/internal/domain"
)

// postJSON performs one POST with a JSON body and returns the raw response
// body. Transport failures and non-200 statuses come back as typed provider
// errors; 429 is classified as a rate limit up front.
func postJSON(ctx context.Context, client *http.Client, provider, url string, payload any, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.WrapProviderError(domain.KindParse, provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapProviderError(domain.KindNetwork, provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.NewProviderError(domain.KindNetwork, provider, "Connection error: "+err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapProviderError(domain.KindNetwork, provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		kind := domain.KindNetwork
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = domain.KindRateLimit
		}
		return nil, domain.NewProviderError(kind, provider, parseErrorBody(raw, resp.StatusCode))
	}
	return raw, nil
}

// parseErrorBody extracts a human-readable message from a vendor error
// response, trying the known JSON shapes in order and falling back to the
// truncated raw body.
func parseErrorBody(body []byte, httpCode int) string {
	var decoded struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		if len(decoded.Error) > 0 {
			var obj struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			}
			if err := json.Unmarshal(decoded.Error, &obj); err == nil {
				if obj.Message != "" {
					return fmt.Sprintf("API error (HTTP %d): %s", httpCode, obj.Message)
				}
				if obj.Type != "" {
					return fmt.Sprintf("API error (HTTP %d): %s", httpCode, obj.Type)
				}
			}
			var str string
			if err := json.Unmarshal(decoded.Error, &str); err == nil && str != "" {
				return fmt.Sprintf("API error (HTTP %d): %s", httpCode, str)
			}
		}
		if decoded.Message != "" {
			return fmt.Sprintf("API error (HTTP %d): %s", httpCode, decoded.Message)
		}
	}

	text := string(body)
	if len(text) > 200 {
		return fmt.Sprintf("HTTP %d: %s...", httpCode, text[:200])
	}
	return fmt.Sprintf("HTTP %d: %s", httpCode, text)
}
