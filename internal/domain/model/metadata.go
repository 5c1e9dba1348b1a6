package model

// Field ceilings enforced by validation and sanitization.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 1000
	MaxAltTextLen     = 200
	MaxCaptionLen     = 500
	MaxTags           = 15
)

// ImageMetadata is the canonical result of one successful provider call.
// It is a value object: reprocessing replaces it wholesale, never merges.
type ImageMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AltText     string   `json:"alt_text"`
	Caption     string   `json:"caption"`
	Tags        []string `json:"tags"`
	Confidence  *float64 `json:"confidence,omitempty"`
}
