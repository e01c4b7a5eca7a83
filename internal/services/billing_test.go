package services

import (
	"testing"

	"mirror-backend/internal/models"
	"mirror-backend/internal/policy"

	"github.com/stretchr/testify/assert"
)

func TestCreateCheckout_BillingDisabled(t *testing.T) {
	cfg := policy.Defaults()
	cfg.Billing.Enabled = false
	svc := NewBillingService(cfg, "sk_test_dummy", "https://mirror.example.com")

	_, err := svc.CreateCheckout("card", "BR", models.ReasonLimit)
	assert.ErrorIs(t, err, ErrBillingDisabled)
}

func TestCreateCheckout_PixOutsideBrazil(t *testing.T) {
	svc := NewBillingService(policy.Defaults(), "sk_test_dummy", "https://mirror.example.com")

	_, err := svc.CreateCheckout("pix", "OTHER", models.ReasonCoach)
	assert.ErrorIs(t, err, ErrPixUnavailable)
}
