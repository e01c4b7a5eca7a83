package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mirror-backend/internal/models"
	"mirror-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// VaultHandler handles saved-look persistence endpoints
type VaultHandler struct {
	vault *services.VaultService
}

// NewVaultHandler creates a new vault handler
func NewVaultHandler(vault *services.VaultService) *VaultHandler {
	return &VaultHandler{vault: vault}
}

// Save handles POST /api/v1/vault
func (h *VaultHandler) Save(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req struct {
		Image string            `json:"image"`
		Mode  models.MirrorMode `json:"mode"`
		Mood  string            `json:"mood"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" || !req.Mode.Valid() {
		respondError(w, http.StatusBadRequest, "Image and mode are required")
		return
	}

	look, err := h.vault.Save(r.Context(), id, req.Image, req.Mode, req.Mood)
	if err != nil {
		log.Error().Err(err).Str("device_id", id).Msg("Failed to save look")
		respondError(w, http.StatusInternalServerError, "Failed to save look")
		return
	}

	respondJSON(w, http.StatusCreated, look)
}

// List handles GET /api/v1/vault
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	looks, err := h.vault.List(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("device_id", id).Msg("Failed to list looks")
		respondError(w, http.StatusInternalServerError, "Failed to list looks")
		return
	}
	if looks == nil {
		looks = []*models.SavedLook{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"looks": looks})
}

// Delete handles DELETE /api/v1/vault/{lookID}
func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	lookID := chi.URLParam(r, "lookID")
	if lookID == "" {
		respondError(w, http.StatusBadRequest, "Look ID is required")
		return
	}

	if err := h.vault.Delete(r.Context(), id, lookID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Look not found")
			return
		}
		log.Error().Err(err).Str("device_id", id).Msg("Failed to delete look")
		respondError(w, http.StatusInternalServerError, "Failed to delete look")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
