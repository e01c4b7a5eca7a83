package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"mirror-backend/internal/branding"
	appconfig "mirror-backend/internal/config"
	"mirror-backend/internal/models"
	"mirror-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxVaultLooks caps the number of saved looks kept per device
const maxVaultLooks = 100

// VaultService persists finished looks: image bytes to S3, metadata to the database
type VaultService struct {
	repo     *repository.LookRepository
	s3Client *s3.Client
	bucket   string
	endpoint string
}

// NewVaultService creates a new vault service backed by S3
func NewVaultService(ctx context.Context, repo *repository.LookRepository, awsConfig appconfig.AWSConfig) (*VaultService, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx,
		awscfg.WithRegion(awsConfig.Region),
		awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			awsConfig.AccessKey, awsConfig.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if awsConfig.Endpoint != "" {
			o.BaseEndpoint = aws.String(awsConfig.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &VaultService{
		repo:     repo,
		s3Client: client,
		bucket:   awsConfig.S3Bucket,
		endpoint: awsConfig.Endpoint,
	}, nil
}

// defaultMood labels a saved look whose style was never chosen explicitly
const defaultMood = "Surprise Me"

// vaultMood fills in the label for looks saved without an explicit style
func vaultMood(mood string) string {
	if mood == "" {
		return defaultMood
	}
	return mood
}

// Save stores a finished look for the device. Oldest looks beyond the cap
// are pruned after a successful save.
func (s *VaultService) Save(ctx context.Context, deviceID, targetImage string, mode models.MirrorMode, mood string) (*models.SavedLook, error) {
	if targetImage == "" {
		return nil, fmt.Errorf("target image must not be empty")
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	data, err := base64.StdEncoding.DecodeString(branding.Normalize(targetImage))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	lookID := uuid.New().String()
	key := fmt.Sprintf("vault/%s/%s.jpg", deviceID, lookID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	look := &models.SavedLook{
		ID:        lookID,
		DeviceID:  deviceID,
		Mode:      mode,
		Mood:      vaultMood(mood),
		ImageURL:  s.objectURL(key),
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, look); err != nil {
		return nil, fmt.Errorf("failed to save look: %w", err)
	}

	if err := s.repo.PruneByDevice(ctx, deviceID, maxVaultLooks); err != nil {
		log.Warn().Err(err).Str("device_id", deviceID).Msg("Failed to prune vault")
	}

	return look, nil
}

// List returns the device's saved looks, newest first
func (s *VaultService) List(ctx context.Context, deviceID string) ([]*models.SavedLook, error) {
	return s.repo.ListByDevice(ctx, deviceID, maxVaultLooks)
}

// Delete removes one saved look owned by the device
func (s *VaultService) Delete(ctx context.Context, deviceID, lookID string) error {
	if err := s.repo.Delete(ctx, deviceID, lookID); err != nil {
		return err
	}

	key := fmt.Sprintf("vault/%s/%s.jpg", deviceID, lookID)
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to delete vault object")
	}
	return nil
}

func (s *VaultService) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
