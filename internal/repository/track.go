package repository

import (
	"context"
	"fmt"

	"mirror-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Append-only stores for usage analytics, capped like the original data files.
const (
	maxTrackedSessions = 2000
	maxTrackedEvents   = 5000
)

// TrackRepository handles database operations for tracked sessions and events
type TrackRepository struct {
	db *pgxpool.Pool
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db *pgxpool.Pool) *TrackRepository {
	return &TrackRepository{db: db}
}

// CreateSession records one app load
func (r *TrackRepository) CreateSession(ctx context.Context, sess *models.TrackedSession) error {
	query := `
		INSERT INTO tracked_sessions (id, user_agent, initial_mode, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, sess.ID, sess.UserAgent, sess.InitialMode, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tracked session: %w", err)
	}
	return r.prune(ctx, "tracked_sessions", maxTrackedSessions)
}

// CreateEvent records one client event
func (r *TrackRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, event, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, event.ID, event.Name, event.Payload, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return r.prune(ctx, "events", maxTrackedEvents)
}

func (r *TrackRepository) prune(ctx context.Context, table string, keep int) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id NOT IN (
			SELECT id FROM %s ORDER BY created_at DESC LIMIT $1
		)
	`, table, table)
	if _, err := r.db.Exec(ctx, query, keep); err != nil {
		return fmt.Errorf("failed to prune %s: %w", table, err)
	}
	return nil
}

// CountSessions returns the number of tracked sessions
func (r *TrackRepository) CountSessions(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tracked_sessions`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracked sessions: %w", err)
	}
	return total, nil
}

// CountEvents returns the number of tracked events
func (r *TrackRepository) CountEvents(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return total, nil
}

// RecentSessions returns the most recent tracked sessions
func (r *TrackRepository) RecentSessions(ctx context.Context, limit int) ([]*models.TrackedSession, error) {
	query := `
		SELECT id, user_agent, initial_mode, created_at
		FROM tracked_sessions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.TrackedSession
	for rows.Next() {
		var sess models.TrackedSession
		if err := rows.Scan(&sess.ID, &sess.UserAgent, &sess.InitialMode, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tracked session: %w", err)
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked sessions: %w", err)
	}
	return sessions, nil
}

// RecentEvents returns the most recent tracked events
func (r *TrackRepository) RecentEvents(ctx context.Context, limit int) ([]*models.Event, error) {
	query := `
		SELECT id, event, payload, created_at
		FROM events
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Name, &event.Payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// ClearSessions removes every tracked session
func (r *TrackRepository) ClearSessions(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tracked_sessions`); err != nil {
		return fmt.Errorf("failed to clear tracked sessions: %w", err)
	}
	return nil
}

// ClearEvents removes every tracked event
func (r *TrackRepository) ClearEvents(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM events`); err != nil {
		return fmt.Errorf("failed to clear events: %w", err)
	}
	return nil
}
