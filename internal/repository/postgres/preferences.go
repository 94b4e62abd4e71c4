package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RMahshie/sonascope/internal/repository"
)

// PostgresPreferenceRepository implements PreferenceRepository for PostgreSQL
type PostgresPreferenceRepository struct {
	db *sql.DB
}

// NewPostgresPreferenceRepository creates a new PostgreSQL preference repository
func NewPostgresPreferenceRepository(db *sql.DB) repository.PreferenceRepository {
	return &PostgresPreferenceRepository{db: db}
}

// Get retrieves the value stored under key
func (r *PostgresPreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	query := `
		SELECT value
		FROM preferences
		WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrPreferenceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get preference %q: %w", key, err)
	}

	return value, nil
}

// Set upserts the value stored under key
func (r *PostgresPreferenceRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO preferences (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set preference %q: %w", key, err)
	}

	return nil
}
