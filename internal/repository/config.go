package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConfigRepository handles the single mutable remote-config record
type ConfigRepository struct {
	db *pgxpool.Pool
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *pgxpool.Pool) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// Get returns the stored config document, or nil if none has been saved yet
func (r *ConfigRepository) Get(ctx context.Context) ([]byte, error) {
	query := `SELECT data FROM app_config WHERE id = 1`
	var data []byte
	err := r.db.QueryRow(ctx, query).Scan(&data)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read app config: %w", err)
	}
	return data, nil
}

// Save writes the config document
func (r *ConfigRepository) Save(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO app_config (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id)
		DO UPDATE SET data = $1, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, data); err != nil {
		return fmt.Errorf("failed to save app config: %w", err)
	}
	return nil
}
