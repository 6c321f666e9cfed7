// Package hallsettings stores each account's hall configuration
package hallsettings

//go:generate mockgen -destination=mock/mock_repository.go -package=hallsettingsmock github.com/KirkDiggler/hall-runner/internal/repositories/hall_settings Repository

import (
	"context"

	"github.com/KirkDiggler/hall-runner/internal/entities/hall"
)

// GetInput identifies the account to load
type GetInput struct {
	AccountID string
}

// GetOutput contains the stored settings
type GetOutput struct {
	Settings *hall.AccountSettings
}

// SaveInput contains the settings to store
type SaveInput struct {
	AccountID string
	Settings  *hall.AccountSettings
}

// SaveOutput is returned by Save
type SaveOutput struct{}

// DeleteInput identifies the account to clear
type DeleteInput struct {
	AccountID string
}

// DeleteOutput is returned by Delete
type DeleteOutput struct{}

// Repository defines storage for account hall settings
type Repository interface {
	// Get loads an account's settings. Missing settings are NotFound.
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Save replaces an account's settings
	Save(ctx context.Context, input SaveInput) (*SaveOutput, error)

	// Delete removes an account's settings
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
}
