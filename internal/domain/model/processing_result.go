package model

import "time"

// ProcessingResult is the outcome of one processing run for one attachment.
// Exactly one of Metadata and ErrorMessage is populated.
type ProcessingResult struct {
	Success      bool           `json:"success"`
	Metadata     *ImageMetadata `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	TokensUsed   int            `json:"tokens_used"`
	Provider     string         `json:"provider,omitempty"`
	Elapsed      time.Duration  `json:"elapsed,omitempty"`
}

func SuccessResult(md ImageMetadata, tokens int, provider string, elapsed time.Duration) ProcessingResult {
	return ProcessingResult{
		Success:    true,
		Metadata:   &md,
		TokensUsed: tokens,
		Provider:   provider,
		Elapsed:    elapsed,
	}
}

func FailureResult(message string) ProcessingResult {
	return ProcessingResult{Success: false, ErrorMessage: message}
}
