package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"media-ai-tagger/internal/domain/model"
	"media-ai-tagger/internal/domain/ports/repository"
)

// ValidationUseCase checks and normalizes AI-generated metadata before it is
// written to the host store. Sanitize is idempotent: running it on already
// sanitized metadata changes nothing.
type ValidationUseCase struct{}

func NewValidationUseCase() *ValidationUseCase {
	return &ValidationUseCase{}
}

// Validate reports whether the metadata fits the persistence ceilings.
// Presence is only demanded for fields whose enable flag is set; a disabled
// field is expected to come back empty.
func (uc *ValidationUseCase) Validate(md model.ImageMetadata, flags repository.FieldFlags) bool {
	if flags.Title && md.Title == "" {
		return false
	}
	if flags.Description && md.Description == "" {
		return false
	}
	if utf8.RuneCountInString(md.Title) > model.MaxTitleLen ||
		utf8.RuneCountInString(md.Description) > model.MaxDescriptionLen {
		return false
	}
	if utf8.RuneCountInString(md.AltText) > model.MaxAltTextLen ||
		utf8.RuneCountInString(md.Caption) > model.MaxCaptionLen {
		return false
	}
	if len(md.Tags) == 0 || len(md.Tags) > model.MaxTags {
		return false
	}
	return true
}

// Sanitize returns a cleaned copy: markup stripped, control characters and
// runs of whitespace collapsed, fields truncated to their ceilings, tag list
// deduplicated of blanks and capped.
func (uc *ValidationUseCase) Sanitize(md model.ImageMetadata) model.ImageMetadata {
	out := md
	out.Title = truncate(cleanText(md.Title), model.MaxTitleLen)
	out.Description = truncate(cleanText(md.Description), model.MaxDescriptionLen)
	out.AltText = truncate(cleanText(md.AltText), model.MaxAltTextLen)
	out.Caption = truncate(cleanText(md.Caption), model.MaxCaptionLen)

	tags := make([]string, 0, len(md.Tags))
	for _, tag := range md.Tags {
		cleaned := cleanText(tag)
		if cleaned == "" {
			continue
		}
		tags = append(tags, cleaned)
		if len(tags) == model.MaxTags {
			break
		}
	}
	out.Tags = tags
	return out
}

// cleanText strips markup tags, drops control characters and collapses all
// whitespace runs to single spaces.
func cleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case inTag:
		case unicode.IsControl(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// truncate cuts s to at most max runes, never splitting a rune. A cut can
// land right after a space, so the result is trimmed to keep sanitization
// idempotent.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimRight(string(runes[:max]), " ")
}
