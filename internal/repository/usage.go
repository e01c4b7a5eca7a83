package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository handles the per-device daily look counters. Counters are
// keyed by calendar day, so a new day reads as zero without any reset job.
type UsageRepository struct {
	db *pgxpool.Pool
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{db: db}
}

// LooksUsed returns the number of looks generated by a device on the given day
func (r *UsageRepository) LooksUsed(ctx context.Context, deviceID, day string) (int, error) {
	query := `
		SELECT looks_used
		FROM daily_usage
		WHERE device_id = $1 AND day = $2
	`
	var used int
	err := r.db.QueryRow(ctx, query, deviceID, day).Scan(&used)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read daily usage: %w", err)
	}
	return used, nil
}

// IncrementLooks adds one look to the device's counter for the given day
func (r *UsageRepository) IncrementLooks(ctx context.Context, deviceID, day string) error {
	query := `
		INSERT INTO daily_usage (device_id, day, looks_used)
		VALUES ($1, $2, 1)
		ON CONFLICT (device_id, day)
		DO UPDATE SET looks_used = daily_usage.looks_used + 1
	`
	_, err := r.db.Exec(ctx, query, deviceID, day)
	if err != nil {
		return fmt.Errorf("failed to increment daily usage: %w", err)
	}
	return nil
}
