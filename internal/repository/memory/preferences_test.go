package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/sonascope/internal/repository"
)

func TestPreferenceRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPreferenceRepository()

	_, err := repo.Get(ctx, "theme")
	assert.ErrorIs(t, err, repository.ErrPreferenceNotFound)

	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	require.NoError(t, repo.Set(ctx, "theme", "light"))

	value, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)
}
