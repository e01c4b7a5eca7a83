package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"mirror-backend/internal/policy"
	"mirror-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AdminHandler exposes the operator endpoints behind a shared token
type AdminHandler struct {
	admin *services.AdminService
	token string
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin *services.AdminService, token string) *AdminHandler {
	return &AdminHandler{admin: admin, token: token}
}

// Authorize guards the admin routes with the X-Admin-Token header
func (h *AdminHandler) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			respondError(w, http.StatusForbidden, "Admin access is not configured")
			return
		}
		got := r.Header.Get("X-Admin-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			respondError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Overview handles GET /api/v1/admin/overview
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.admin.GetOverview(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to build admin overview")
		respondError(w, http.StatusInternalServerError, "Failed to build overview")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// UpdateConfig handles PUT /api/v1/admin/config
func (h *AdminHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var patch policy.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := h.admin.UpdateConfig(r.Context(), &patch)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// Clear handles POST /api/v1/admin/clear
func (h *AdminHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		What string `json:"what"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.What == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.admin.Clear(r.Context(), req.What); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}
