package services

import (
	"context"
	"encoding/json"
	"fmt"

	"mirror-backend/internal/models"
	"mirror-backend/internal/policy"
	"mirror-backend/internal/repository"
)

// Overview is the admin dashboard payload
type Overview struct {
	Config         *policy.RemoteConfig     `json:"config"`
	SessionCount   int                      `json:"sessionCount"`
	EventCount     int                      `json:"eventCount"`
	LookCount      int                      `json:"lookCount"`
	RecentSessions []*models.TrackedSession `json:"recentSessions"`
	RecentLooks    []*models.SavedLook      `json:"recentLooks"`
	RecentEvents   []*models.Event          `json:"recentEvents"`
}

// AdminService exposes the operator surface: live remote config and a
// read-only view over tracked usage
type AdminService struct {
	configRepo *repository.ConfigRepository
	trackRepo  *repository.TrackRepository
	lookRepo   *repository.LookRepository
}

// NewAdminService creates a new admin service
func NewAdminService(configRepo *repository.ConfigRepository, trackRepo *repository.TrackRepository, lookRepo *repository.LookRepository) *AdminService {
	return &AdminService{
		configRepo: configRepo,
		trackRepo:  trackRepo,
		lookRepo:   lookRepo,
	}
}

// CurrentConfig returns the stored remote config merged over defaults.
// A missing or unreadable row falls back to defaults.
func (s *AdminService) CurrentConfig(ctx context.Context) *policy.RemoteConfig {
	data, err := s.configRepo.Get(ctx)
	if err != nil || data == nil {
		return policy.Defaults()
	}
	return policy.FromJSON(data)
}

// UpdateConfig validates and applies a partial update over the current
// config, then persists the merged result
func (s *AdminService) UpdateConfig(ctx context.Context, patch *policy.Patch) (*policy.RemoteConfig, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	cfg := s.CurrentConfig(ctx)
	cfg.Apply(patch)

	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := s.configRepo.Save(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to save config: %w", err)
	}
	return cfg, nil
}

// GetOverview collects the dashboard counts and recent activity
func (s *AdminService) GetOverview(ctx context.Context) (*Overview, error) {
	sessionCount, err := s.trackRepo.CountSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}
	eventCount, err := s.trackRepo.CountEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	lookCount, err := s.lookRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count looks: %w", err)
	}

	sessions, err := s.trackRepo.RecentSessions(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	looks, err := s.lookRepo.Recent(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to list looks: %w", err)
	}
	events, err := s.trackRepo.RecentEvents(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return &Overview{
		Config:         s.CurrentConfig(ctx),
		SessionCount:   sessionCount,
		EventCount:     eventCount,
		LookCount:      lookCount,
		RecentSessions: sessions,
		RecentLooks:    looks,
		RecentEvents:   events,
	}, nil
}

// Clear wipes a tracked dataset: "sessions", "looks", "events" or "all"
func (s *AdminService) Clear(ctx context.Context, what string) error {
	switch what {
	case "sessions":
		return s.trackRepo.ClearSessions(ctx)
	case "events":
		return s.trackRepo.ClearEvents(ctx)
	case "looks":
		return s.lookRepo.Clear(ctx)
	case "all":
		if err := s.trackRepo.ClearSessions(ctx); err != nil {
			return err
		}
		if err := s.trackRepo.ClearEvents(ctx); err != nil {
			return err
		}
		return s.lookRepo.Clear(ctx)
	default:
		return fmt.Errorf("unknown dataset %q", what)
	}
}
