package handlers

import (
	"net/http"

	"mirror-backend/internal/services"
)

// ConfigHandler serves the public remote config
type ConfigHandler struct {
	admin *services.AdminService
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(admin *services.AdminService) *ConfigHandler {
	return &ConfigHandler{admin: admin}
}

// Get handles GET /api/v1/config. This is the live stored config, not the
// snapshot the running services were built with.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.admin.CurrentConfig(r.Context()))
}
