package memory

import (
	"context"
	"sync"

	"github.com/RMahshie/sonascope/internal/repository"
)

// PreferenceRepository keeps preferences in process memory
type PreferenceRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewPreferenceRepository creates an empty in-memory preference repository
func NewPreferenceRepository() *PreferenceRepository {
	return &PreferenceRepository{values: make(map[string]string)}
}

// Get returns the value stored under key
func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[key]
	if !ok {
		return "", repository.ErrPreferenceNotFound
	}
	return v, nil
}

// Set stores value under key, replacing any previous value
func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[key] = value
	return nil
}
