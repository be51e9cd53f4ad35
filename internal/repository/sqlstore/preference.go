package sqlstore

import (
	"context"
	"fmt"

	"github.com/dtroode/appblock/internal/model"
)

var _ model.PreferenceBackend = (*PreferenceRepository)(nil)

// PreferenceRepository keeps preferences in the preferences table.
type PreferenceRepository struct {
	db *Connection
}

// NewPreferenceRepository creates a repository on top of db.
func NewPreferenceRepository(db *Connection) *PreferenceRepository {
	return &PreferenceRepository{
		db: db,
	}
}

// GetAll returns every stored preference.
func (r *PreferenceRepository) GetAll(ctx context.Context) (map[string]string, error) {
	query := `SELECT name, value FROM preferences`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}

	return values, nil
}

// Set inserts or replaces a preference.
func (r *PreferenceRepository) Set(ctx context.Context, name, value string) error {
	query := `INSERT INTO preferences (name, value, updated_at)
			  VALUES ($1, $2, CURRENT_TIMESTAMP)
			  ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", name, err)
	}

	return nil
}
