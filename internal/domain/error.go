package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrUnknownProvider    = errors.New("unknown AI provider")
	ErrLockNotAcquired    = errors.New("lock is held by another worker")
)

// ErrorKind classifies provider and processing failures so callers can
// apply different handling (longer backoff for rate limits, no retry for
// configuration problems, etc.).
type ErrorKind string

const (
	KindConfiguration   ErrorKind = "configuration"
	KindNetwork         ErrorKind = "network"
	KindRateLimit       ErrorKind = "rate_limit"
	KindParse           ErrorKind = "parse"
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindUnsupportedType ErrorKind = "unsupported_type"
)

// ProviderError is the typed failure returned by vision adapters and the
// processing pipeline. It carries the vendor-facing message verbatim; the
// host surface decides how to display it.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a typed adapter failure.
func NewProviderError(kind ErrorKind, provider, message string) *ProviderError {
	return &ProviderError{Kind: kind, Provider: provider, Message: message}
}

// WrapProviderError attaches a kind to an underlying error.
func WrapProviderError(kind ErrorKind, provider string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	return &ProviderError{Kind: kind, Provider: provider, Message: err.Error(), Err: err}
}

// KindOf extracts the error kind from err, or empty when err carries none.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRateLimit reports whether err is a vendor throttling signal.
func IsRateLimit(err error) bool { return KindOf(err) == KindRateLimit }
