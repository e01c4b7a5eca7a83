package handlers

import (
	"encoding/json"
	"net/http"

	"mirror-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// TrackHandler handles analytics ingestion endpoints
type TrackHandler struct {
	track *services.TrackService
}

// NewTrackHandler creates a new track handler
func NewTrackHandler(track *services.TrackService) *TrackHandler {
	return &TrackHandler{track: track}
}

// RecordSession handles POST /api/v1/track/session
func (h *TrackHandler) RecordSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InitialMode string `json:"initialMode"`
	}
	// Body is optional
	json.NewDecoder(r.Body).Decode(&req)

	if err := h.track.RecordSession(r.Context(), r.UserAgent(), req.InitialMode); err != nil {
		log.Warn().Err(err).Msg("Failed to record session")
	}
	respondJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// RecordEvent handles POST /api/v1/track/events
func (h *TrackHandler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Event == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.track.RecordEvent(r.Context(), req.Event, req.Payload); err != nil {
		log.Warn().Err(err).Str("event", req.Event).Msg("Failed to record event")
	}
	respondJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}
