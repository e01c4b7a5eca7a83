package policy

import (
	"testing"

	"mirror-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.False(t, cfg.MaintenanceMode)
	assert.True(t, cfg.EnabledModes.Makeup)
	assert.True(t, cfg.EnabledModes.Clothes)
	assert.True(t, cfg.EnabledModes.Hair)
	assert.Equal(t, 3, cfg.Limits.MaxLooksPerDay)
	assert.Equal(t, 25, cfg.Billing.PremiumLooksPerDay)
	assert.True(t, cfg.Billing.GateCoachSecondStep)
	assert.Equal(t, 1, cfg.Billing.FreeCoachQuestionsPerSession)
	assert.Equal(t, "Everyday Mirror", cfg.Branding.WatermarkText)
}

func TestFromJSON_PartialMerge(t *testing.T) {
	data := []byte(`{"limits":{"maxLooksPerDay":7},"enabledModes":{"HAIR":false}}`)
	cfg := FromJSON(data)

	assert.Equal(t, 7, cfg.Limits.MaxLooksPerDay)
	assert.False(t, cfg.EnabledModes.Hair)
	// Untouched fields keep their defaults
	assert.True(t, cfg.EnabledModes.Makeup)
	assert.Equal(t, 25, cfg.Billing.PremiumLooksPerDay)
}

func TestFromJSON_Garbage(t *testing.T) {
	cfg := FromJSON([]byte("not json at all"))
	assert.Equal(t, Defaults(), cfg)
}

func TestFromJSON_Empty(t *testing.T) {
	cfg := FromJSON(nil)
	assert.Equal(t, Defaults(), cfg)
}

func TestModeEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.EnabledModes.Clothes = false

	assert.True(t, cfg.ModeEnabled(models.ModeMakeup))
	assert.False(t, cfg.ModeEnabled(models.ModeClothes))
	assert.False(t, cfg.ModeEnabled(models.MirrorMode("PETS")))
}

func TestMaxLooksPerDay(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 3, cfg.MaxLooksPerDay(false))
	assert.Equal(t, 25, cfg.MaxLooksPerDay(true))
}

func TestPatchValidate(t *testing.T) {
	bad := 99
	err := (&Patch{Limits: &LimitsPatch{MaxLooksPerDay: &bad}}).Validate()
	require.Error(t, err)

	negative := -1.0
	err = (&Patch{Billing: &BillingPatch{PriceMonthlyUSD: &negative}}).Validate()
	require.Error(t, err)

	ok := 10
	err = (&Patch{Limits: &LimitsPatch{MaxLooksPerDay: &ok}}).Validate()
	require.NoError(t, err)

	require.NoError(t, (&Patch{}).Validate())
}

func TestPatchApply(t *testing.T) {
	cfg := Defaults()

	off := false
	limit := 5
	text := "New Brand"
	cfg.Apply(&Patch{
		EnabledModes: &ModesPatch{Hair: &off},
		Limits:       &LimitsPatch{MaxLooksPerDay: &limit},
		Branding:     &BrandingPatch{WatermarkText: &text},
		Billing:      &BillingPatch{GateCoachSecondStep: &off},
	})

	assert.False(t, cfg.EnabledModes.Hair)
	assert.Equal(t, 5, cfg.Limits.MaxLooksPerDay)
	assert.Equal(t, "New Brand", cfg.Branding.WatermarkText)
	assert.False(t, cfg.Billing.GateCoachSecondStep)
	// Untouched fields survive the patch
	assert.True(t, cfg.EnabledModes.Makeup)
	assert.Equal(t, 1, cfg.Billing.FreeCoachQuestionsPerSession)
}
