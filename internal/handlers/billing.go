package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mirror-backend/internal/models"
	"mirror-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// BillingHandler handles premium checkout endpoints
type BillingHandler struct {
	billing *services.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billing *services.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// CreateCheckout handles POST /api/v1/billing/checkout
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := deviceID(w, r)
	if !ok {
		return
	}

	var req struct {
		Method string               `json:"method"`
		Reason models.PaywallReason `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Method != "card" && req.Method != "pix" {
		respondError(w, http.StatusBadRequest, "Unknown payment method")
		return
	}
	if req.Reason == "" {
		req.Reason = models.ReasonLimit
	}

	info := clientInfo(r)
	url, err := h.billing.CreateCheckout(req.Method, info.Region, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBillingDisabled):
			respondError(w, http.StatusConflict, "Billing is disabled")
		case errors.Is(err, services.ErrPixUnavailable):
			respondError(w, http.StatusBadRequest, "Pix is not available in your region")
		default:
			log.Error().Err(err).Str("device_id", id).Msg("Failed to create checkout")
			respondError(w, http.StatusInternalServerError, "Failed to create checkout")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
