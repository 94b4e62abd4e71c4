package postgres

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/RMahshie/sonascope/internal/repository"
)

func TestPreferenceRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sonascope"),
		tcpostgres.WithUsername("sonascope"),
		tcpostgres.WithPassword("sonascope"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(ctx, db))
	// Applying again must be harmless.
	require.NoError(t, Migrate(ctx, db))

	repo := NewPostgresPreferenceRepository(db)

	_, err = repo.Get(ctx, "theme")
	assert.ErrorIs(t, err, repository.ErrPreferenceNotFound)

	require.NoError(t, repo.Set(ctx, "theme", "dark"))
	value, err := repo.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)

	require.NoError(t, repo.Set(ctx, "theme", "light"))
	value, err = repo.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "light", value)

	var rows int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM preferences").Scan(&rows))
	assert.Equal(t, 1, rows)
}
