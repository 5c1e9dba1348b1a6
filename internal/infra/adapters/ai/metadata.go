package ai

import (
	"encoding/json"

	"media-ai-tagger/internal/domain"
	"media-ai-tagger/internal/domain/model"
)

// decodeMetadata parses the flat JSON object every vendor response converges
// on into the canonical metadata record.
func decodeMetadata(provider string, raw []byte) (model.ImageMetadata, error) {
	var md model.ImageMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return model.ImageMetadata{}, domain.NewProviderError(
			domain.KindParse, provider, "Failed to parse JSON response: "+err.Error())
	}
	return md, nil
}
