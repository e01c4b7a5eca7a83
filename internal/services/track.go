package services

import (
	"context"
	"fmt"
	"time"

	"mirror-backend/internal/models"
	"mirror-backend/internal/repository"

	"github.com/google/uuid"
)

// TrackService records lightweight product analytics: app loads and
// client events such as shopping-item clicks
type TrackService struct {
	repo *repository.TrackRepository
}

// NewTrackService creates a new track service
func NewTrackService(repo *repository.TrackRepository) *TrackService {
	return &TrackService{repo: repo}
}

// RecordSession records one app load
func (s *TrackService) RecordSession(ctx context.Context, userAgent, initialMode string) error {
	sess := &models.TrackedSession{
		ID:          uuid.New().String(),
		UserAgent:   userAgent,
		InitialMode: initialMode,
		CreatedAt:   time.Now(),
	}
	return s.repo.CreateSession(ctx, sess)
}

// RecordEvent records one named client event with an opaque JSON payload
func (s *TrackService) RecordEvent(ctx context.Context, name string, payload []byte) error {
	if name == "" {
		return fmt.Errorf("event name must not be empty")
	}

	event := &models.Event{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	return s.repo.CreateEvent(ctx, event)
}
