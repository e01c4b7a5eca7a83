package handlers

import (
	"net/http"

	"mirror-backend/internal/middleware"
	"mirror-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// DeviceHandler handles device registration and entitlement endpoints
type DeviceHandler struct {
	deviceService *services.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// Register handles POST /api/v1/devices
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	device, token, err := h.deviceService.Register(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to register device")
		respondError(w, http.StatusInternalServerError, "Failed to register device")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"device": device,
		"token":  token,
	})
}

// Me handles GET /api/v1/devices/me
func (h *DeviceHandler) Me(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.GetDeviceID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	device, err := h.deviceService.Get(r.Context(), deviceID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Device not found")
		return
	}

	respondJSON(w, http.StatusOK, device)
}

// ActivatePremium handles POST /api/v1/devices/me/premium
func (h *DeviceHandler) ActivatePremium(w http.ResponseWriter, r *http.Request) {
	deviceID, ok := middleware.GetDeviceID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.deviceService.ActivatePremium(r.Context(), deviceID, true); err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("Failed to activate premium")
		respondError(w, http.StatusInternalServerError, "Failed to activate premium")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"premium": true})
}
