package repository

import (
	"context"
	"fmt"

	"mirror-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeviceRepository handles database operations for devices
type DeviceRepository struct {
	db *pgxpool.Pool
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *pgxpool.Pool) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create creates a new device
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (id, premium, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.Exec(ctx, query, device.ID, device.Premium, device.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	query := `
		SELECT id, premium, created_at
		FROM devices
		WHERE id = $1
	`
	var device models.Device
	err := r.db.QueryRow(ctx, query, id).Scan(&device.ID, &device.Premium, &device.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("device not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

// SetPremium updates the premium flag for a device
func (r *DeviceRepository) SetPremium(ctx context.Context, deviceID string, premium bool) error {
	query := `UPDATE devices SET premium = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, premium, deviceID)
	if err != nil {
		return fmt.Errorf("failed to update premium flag: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("device not found")
	}
	return nil
}
