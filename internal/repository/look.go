package repository

import (
	"context"
	"fmt"

	"mirror-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LookRepository handles database operations for vaulted looks
type LookRepository struct {
	db *pgxpool.Pool
}

// NewLookRepository creates a new look repository
func NewLookRepository(db *pgxpool.Pool) *LookRepository {
	return &LookRepository{db: db}
}

// Create creates a new saved look
func (r *LookRepository) Create(ctx context.Context, look *models.SavedLook) error {
	query := `
		INSERT INTO saved_looks (id, device_id, mode, mood, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		look.ID, look.DeviceID, look.Mode, look.Mood, look.ImageURL, look.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create saved look: %w", err)
	}
	return nil
}

// GetByID retrieves a saved look by ID
func (r *LookRepository) GetByID(ctx context.Context, id string) (*models.SavedLook, error) {
	query := `
		SELECT id, device_id, mode, mood, image_url, created_at
		FROM saved_looks
		WHERE id = $1
	`
	var look models.SavedLook
	err := r.db.QueryRow(ctx, query, id).Scan(
		&look.ID, &look.DeviceID, &look.Mode, &look.Mood, &look.ImageURL, &look.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("saved look not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get saved look: %w", err)
	}
	return &look, nil
}

// ListByDevice retrieves a device's vault, newest first
func (r *LookRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]*models.SavedLook, error) {
	query := `
		SELECT id, device_id, mode, mood, image_url, created_at
		FROM saved_looks
		WHERE device_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved looks: %w", err)
	}
	defer rows.Close()

	var looks []*models.SavedLook
	for rows.Next() {
		var look models.SavedLook
		err := rows.Scan(&look.ID, &look.DeviceID, &look.Mode, &look.Mood, &look.ImageURL, &look.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved look: %w", err)
		}
		looks = append(looks, &look)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved looks: %w", err)
	}
	return looks, nil
}

// Delete deletes a saved look owned by the device
func (r *LookRepository) Delete(ctx context.Context, deviceID, id string) error {
	query := `DELETE FROM saved_looks WHERE id = $1 AND device_id = $2`
	result, err := r.db.Exec(ctx, query, id, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete saved look: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// PruneByDevice drops the oldest looks beyond the per-device cap
func (r *LookRepository) PruneByDevice(ctx context.Context, deviceID string, keep int) error {
	query := `
		DELETE FROM saved_looks
		WHERE device_id = $1 AND id NOT IN (
			SELECT id FROM saved_looks
			WHERE device_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		)
	`
	_, err := r.db.Exec(ctx, query, deviceID, keep)
	if err != nil {
		return fmt.Errorf("failed to prune saved looks: %w", err)
	}
	return nil
}

// Count returns the total number of saved looks
func (r *LookRepository) Count(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM saved_looks`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count saved looks: %w", err)
	}
	return total, nil
}

// Recent returns the most recent saved looks across all devices
func (r *LookRepository) Recent(ctx context.Context, limit int) ([]*models.SavedLook, error) {
	query := `
		SELECT id, device_id, mode, mood, image_url, created_at
		FROM saved_looks
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent looks: %w", err)
	}
	defer rows.Close()

	var looks []*models.SavedLook
	for rows.Next() {
		var look models.SavedLook
		err := rows.Scan(&look.ID, &look.DeviceID, &look.Mode, &look.Mood, &look.ImageURL, &look.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved look: %w", err)
		}
		looks = append(looks, &look)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved looks: %w", err)
	}
	return looks, nil
}

// Clear removes every saved look
func (r *LookRepository) Clear(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM saved_looks`); err != nil {
		return fmt.Errorf("failed to clear saved looks: %w", err)
	}
	return nil
}
