package repository

import "context"

// OptionsRepository is the host key/value config collaborator. The general
// settings blob and the per-provider encrypted API keys are stored as
// independent option rows.
type OptionsRepository interface {
	// Get returns the raw value for key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
