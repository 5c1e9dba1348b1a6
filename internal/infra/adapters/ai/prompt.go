package ai

import (
	"fmt"
	"strings"
)

// PromptSpec carries the settings that shape the analysis prompt.
type PromptSpec struct {
	BasePrompt        string // custom prompt from settings; empty uses the built-in one
	EnableTitle       bool
	EnableDescription bool
	EnableCaption     bool
	TitleWords        int
	DescriptionWords  int
	CaptionWords      int
	Locale            string
}

// buildPrompt assembles the full analysis prompt: optional language
// instruction, then either the custom base prompt or the field-by-field
// default. Disabled fields instruct the model to return an empty string so
// the response schema stays fixed.
func buildPrompt(spec PromptSpec) string {
	base := strings.TrimSpace(spec.BasePrompt)
	if base == "" {
		base = defaultPrompt(spec)
	}
	return languageInstruction(spec.Locale) + base
}

func defaultPrompt(spec PromptSpec) string {
	var b strings.Builder
	b.WriteString("Analyse this image and provide metadata in JSON format with exactly these fields:\n")

	if spec.EnableTitle {
		fmt.Fprintf(&b, "- title: A concise and descriptive title (max %d words)\n", spec.TitleWords)
	} else {
		b.WriteString("- title: Leave as empty string\n")
	}

	if spec.EnableDescription {
		fmt.Fprintf(&b, "- description: A detailed description of the image (max %d words)\n", spec.DescriptionWords)
	} else {
		b.WriteString("- description: Leave as empty string\n")
	}

	b.WriteString("- alt_text: Alternative text for accessibility (concise, descriptive, max 125 characters)\n")

	if spec.EnableCaption {
		fmt.Fprintf(&b, "- caption: A short caption suitable for display below the image (max %d words)\n", spec.CaptionWords)
	} else {
		b.WriteString("- caption: Leave as empty string\n")
	}

	b.WriteString("- tags: 5-10 relevant keywords (array)\n\n")
	b.WriteString("Respond with valid JSON only.")
	return b.String()
}

// metadataSchema is the vendor-neutral JSON schema every adapter constrains
// the response to. Vendors wrap it differently but the field set is fixed.
func metadataSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"alt_text":    map[string]any{"type": "string"},
			"caption":     map[string]any{"type": "string"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{"title", "description", "alt_text", "caption", "tags"},
		"additionalProperties": false,
	}
}
