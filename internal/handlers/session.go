package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mirror-backend/internal/middleware"
	"mirror-backend/internal/models"
	"mirror-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// SessionHandler exposes the styling session state machine over HTTP
type SessionHandler struct {
	sessions *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func deviceID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.GetDeviceID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return id, ok
}

func respondAction(w http.ResponseWriter, res *services.ActionResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrGenerationInFlight):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrNoStyleChosen):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Error().Err(err).Msg("Session action failed")
			respondError(w, http.StatusInternalServerError, "Something went wrong")
		}
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.sessions.Get(id))
}

// SelectMode handles POST /api/v1/session/mode
func (h *SessionHandler) SelectMode(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req struct {
		Mode models.MirrorMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.Mode.Valid() {
		respondError(w, http.StatusBadRequest, "Unknown mode")
		return
	}

	res, err := h.sessions.SelectMode(id, req.Mode, clientInfo(r))
	respondAction(w, res, err)
}

// ChoosePreference handles POST /api/v1/session/preference
func (h *SessionHandler) ChoosePreference(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req struct {
		Mood string `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Mood == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.sessions.ChoosePreference(id, req.Mood)
	respondAction(w, res, err)
}

// Capture handles POST /api/v1/session/capture
func (h *SessionHandler) Capture(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.sessions.Capture(r.Context(), id, clientInfo(r), req.Image)
	respondAction(w, res, err)
}

// AdvanceStep handles POST /api/v1/session/advance
func (h *SessionHandler) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	res, err := h.sessions.AdvanceStep(r.Context(), id, clientInfo(r))
	respondAction(w, res, err)
}

// AskCoach handles POST /api/v1/session/coach
func (h *SessionHandler) AskCoach(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.sessions.AskCoach(r.Context(), id, clientInfo(r), req.Question)
	respondAction(w, res, err)
}

// OpenShop handles POST /api/v1/session/shop
func (h *SessionHandler) OpenShop(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	res, err := h.sessions.OpenShop(r.Context(), id, clientInfo(r))
	respondAction(w, res, err)
}

// Reset handles POST /api/v1/session/reset
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.sessions.Reset(id))
}

// OpenVault handles POST /api/v1/session/vault/open
func (h *SessionHandler) OpenVault(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	res, err := h.sessions.OpenVault(id, clientInfo(r))
	respondAction(w, res, err)
}

// CloseVault handles POST /api/v1/session/vault/close
func (h *SessionHandler) CloseVault(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	res, err := h.sessions.CloseVault(id)
	respondAction(w, res, err)
}

// SetAudio handles POST /api/v1/session/audio
func (h *SessionHandler) SetAudio(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.sessions.SetAudio(id, req.Enabled)
	respondJSON(w, http.StatusOK, map[string]bool{"audioEnabled": req.Enabled})
}
