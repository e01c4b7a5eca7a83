package services

import (
	"context"
	"fmt"
	"time"

	"mirror-backend/internal/models"
	"mirror-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DeviceService handles anonymous device registration and token auth
type DeviceService struct {
	repo      *repository.DeviceRepository
	jwtSecret string
}

// NewDeviceService creates a new device service
func NewDeviceService(repo *repository.DeviceRepository, jwtSecret string) *DeviceService {
	return &DeviceService{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new anonymous device and returns it with a signed token
func (s *DeviceService) Register(ctx context.Context) (*models.Device, string, error) {
	device := &models.Device{
		ID:        uuid.New().String(),
		Premium:   false,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, device); err != nil {
		return nil, "", fmt.Errorf("failed to create device: %w", err)
	}

	token, err := s.generateJWT(device.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return device, token, nil
}

// Get returns a device by ID
func (s *DeviceService) Get(ctx context.Context, deviceID string) (*models.Device, error) {
	return s.repo.GetByID(ctx, deviceID)
}

// GetByID implements DeviceStore
func (s *DeviceService) GetByID(ctx context.Context, deviceID string) (*models.Device, error) {
	return s.repo.GetByID(ctx, deviceID)
}

// ActivatePremium flips the premium entitlement for a device
func (s *DeviceService) ActivatePremium(ctx context.Context, deviceID string, premium bool) error {
	if err := s.repo.SetPremium(ctx, deviceID, premium); err != nil {
		return fmt.Errorf("failed to update premium flag: %w", err)
	}
	return nil
}

func (s *DeviceService) generateJWT(deviceID string) (string, error) {
	claims := jwt.MapClaims{
		"device_id": deviceID,
		"exp":       time.Now().Add(365 * 24 * time.Hour).Unix(),
		"iat":       time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateJWT verifies a token and extracts the device ID
func (s *DeviceService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}

	deviceID, ok := claims["device_id"].(string)
	if !ok {
		return "", fmt.Errorf("missing device_id claim")
	}

	return deviceID, nil
}
