package repository

import (
	"context"
	"errors"
)

// ErrPreferenceNotFound is returned when no value is stored under a key
var ErrPreferenceNotFound = errors.New("preference not found")

// PreferenceRepository defines the interface for key-value preference storage
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
