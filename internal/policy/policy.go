package policy

import (
	"encoding/json"
	"fmt"

	"mirror-backend/internal/models"
)

// RemoteConfig is the process-wide policy snapshot. It is loaded once at
// startup, merged over built-in defaults, and treated as read-only afterwards.
type RemoteConfig struct {
	MaintenanceMode    bool     `json:"maintenanceMode"`
	MaintenanceMessage string   `json:"maintenanceMessage"`
	EnabledModes       Modes    `json:"enabledModes"`
	Features           Features `json:"features"`
	Limits             Limits   `json:"limits"`
	Branding           Branding `json:"branding"`
	Billing            Billing  `json:"billing"`
}

// Modes holds the per-mode enable flags
type Modes struct {
	Makeup  bool `json:"MAKEUP"`
	Clothes bool `json:"CLOTHES"`
	Hair    bool `json:"HAIR"`
}

// Features holds the per-feature enable flags
type Features struct {
	AudioGuidance bool `json:"audioGuidance"`
	Shopping      bool `json:"shopping"`
	Vault         bool `json:"vault"`
	Coach         bool `json:"coach"`
}

// Limits holds the free-tier quota values
type Limits struct {
	MaxLooksPerDay int `json:"maxLooksPerDay"`
}

// Branding holds presentation text owned by the server
type Branding struct {
	WatermarkText string `json:"watermarkText"`
}

// Billing holds the paywall sub-policy
type Billing struct {
	Enabled                      bool    `json:"enabled"`
	PremiumLooksPerDay           int     `json:"premiumLooksPerDay"`
	GateCoachSecondStep          bool    `json:"gateCoachSecondStep"`
	FreeCoachQuestionsPerSession int     `json:"freeCoachQuestionsPerSession"`
	ProductName                  string  `json:"productName"`
	PriceMonthlyBRL              float64 `json:"priceMonthlyBRL"`
	PriceMonthlyUSD              float64 `json:"priceMonthlyUSD"`
}

// Defaults returns the built-in policy used whenever the stored config
// cannot be loaded
func Defaults() *RemoteConfig {
	return &RemoteConfig{
		MaintenanceMode:    false,
		MaintenanceMessage: "We are polishing the mirror. Please check back soon.",
		EnabledModes:       Modes{Makeup: true, Clothes: true, Hair: true},
		Features:           Features{AudioGuidance: true, Shopping: true, Vault: true, Coach: true},
		Limits:             Limits{MaxLooksPerDay: 3},
		Branding:           Branding{WatermarkText: "Everyday Mirror"},
		Billing: Billing{
			Enabled:                      true,
			PremiumLooksPerDay:           25,
			GateCoachSecondStep:          true,
			FreeCoachQuestionsPerSession: 1,
			ProductName:                  "Everyday Mirror Premium",
			PriceMonthlyBRL:              19.9,
			PriceMonthlyUSD:              4.99,
		},
	}
}

// FromJSON merges a stored config document over the defaults. A nil or
// unparsable document yields the defaults unchanged.
func FromJSON(data []byte) *RemoteConfig {
	cfg := Defaults()
	if len(data) == 0 {
		return cfg
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return Defaults()
	}
	return cfg
}

// ModeEnabled reports whether a styling mode is currently offered
func (c *RemoteConfig) ModeEnabled(mode models.MirrorMode) bool {
	switch mode {
	case models.ModeMakeup:
		return c.EnabledModes.Makeup
	case models.ModeClothes:
		return c.EnabledModes.Clothes
	case models.ModeHair:
		return c.EnabledModes.Hair
	}
	return false
}

// MaxLooksPerDay returns the daily look quota for the given tier
func (c *RemoteConfig) MaxLooksPerDay(premium bool) int {
	if premium {
		return c.Billing.PremiumLooksPerDay
	}
	return c.Limits.MaxLooksPerDay
}

// Patch is a partial config update applied by the admin surface. Nil fields
// leave the current value untouched.
type Patch struct {
	MaintenanceMode    *bool          `json:"maintenanceMode,omitempty"`
	MaintenanceMessage *string        `json:"maintenanceMessage,omitempty"`
	EnabledModes       *ModesPatch    `json:"enabledModes,omitempty"`
	Features           *FeaturesPatch `json:"features,omitempty"`
	Limits             *LimitsPatch   `json:"limits,omitempty"`
	Branding           *BrandingPatch `json:"branding,omitempty"`
	Billing            *BillingPatch  `json:"billing,omitempty"`
}

// ModesPatch is a partial update of the per-mode flags
type ModesPatch struct {
	Makeup  *bool `json:"MAKEUP,omitempty"`
	Clothes *bool `json:"CLOTHES,omitempty"`
	Hair    *bool `json:"HAIR,omitempty"`
}

// FeaturesPatch is a partial update of the feature flags
type FeaturesPatch struct {
	AudioGuidance *bool `json:"audioGuidance,omitempty"`
	Shopping      *bool `json:"shopping,omitempty"`
	Vault         *bool `json:"vault,omitempty"`
	Coach         *bool `json:"coach,omitempty"`
}

// LimitsPatch is a partial update of the quota values
type LimitsPatch struct {
	MaxLooksPerDay *int `json:"maxLooksPerDay,omitempty"`
}

// BrandingPatch is a partial update of the branding text
type BrandingPatch struct {
	WatermarkText *string `json:"watermarkText,omitempty"`
}

// BillingPatch is a partial update of the billing sub-policy
type BillingPatch struct {
	Enabled                      *bool    `json:"enabled,omitempty"`
	PremiumLooksPerDay           *int     `json:"premiumLooksPerDay,omitempty"`
	GateCoachSecondStep          *bool    `json:"gateCoachSecondStep,omitempty"`
	FreeCoachQuestionsPerSession *int     `json:"freeCoachQuestionsPerSession,omitempty"`
	ProductName                  *string  `json:"productName,omitempty"`
	PriceMonthlyBRL              *float64 `json:"priceMonthlyBRL,omitempty"`
	PriceMonthlyUSD              *float64 `json:"priceMonthlyUSD,omitempty"`
}

// Validate rejects patch values outside the ranges the admin UI allows
func (p *Patch) Validate() error {
	if p.Limits != nil && p.Limits.MaxLooksPerDay != nil {
		if v := *p.Limits.MaxLooksPerDay; v < 0 || v > 50 {
			return fmt.Errorf("maxLooksPerDay must be between 0 and 50")
		}
	}
	if p.Billing != nil {
		if v := p.Billing.PremiumLooksPerDay; v != nil && (*v < 0 || *v > 200) {
			return fmt.Errorf("premiumLooksPerDay must be between 0 and 200")
		}
		if v := p.Billing.FreeCoachQuestionsPerSession; v != nil && (*v < 0 || *v > 50) {
			return fmt.Errorf("freeCoachQuestionsPerSession must be between 0 and 50")
		}
		if v := p.Billing.PriceMonthlyBRL; v != nil && *v < 0 {
			return fmt.Errorf("priceMonthlyBRL must not be negative")
		}
		if v := p.Billing.PriceMonthlyUSD; v != nil && *v < 0 {
			return fmt.Errorf("priceMonthlyUSD must not be negative")
		}
	}
	return nil
}

// Apply merges the patch into the config in place
func (c *RemoteConfig) Apply(p *Patch) {
	if p.MaintenanceMode != nil {
		c.MaintenanceMode = *p.MaintenanceMode
	}
	if p.MaintenanceMessage != nil {
		c.MaintenanceMessage = *p.MaintenanceMessage
	}
	if p.EnabledModes != nil {
		applyBool(&c.EnabledModes.Makeup, p.EnabledModes.Makeup)
		applyBool(&c.EnabledModes.Clothes, p.EnabledModes.Clothes)
		applyBool(&c.EnabledModes.Hair, p.EnabledModes.Hair)
	}
	if p.Features != nil {
		applyBool(&c.Features.AudioGuidance, p.Features.AudioGuidance)
		applyBool(&c.Features.Shopping, p.Features.Shopping)
		applyBool(&c.Features.Vault, p.Features.Vault)
		applyBool(&c.Features.Coach, p.Features.Coach)
	}
	if p.Limits != nil && p.Limits.MaxLooksPerDay != nil {
		c.Limits.MaxLooksPerDay = *p.Limits.MaxLooksPerDay
	}
	if p.Branding != nil && p.Branding.WatermarkText != nil {
		c.Branding.WatermarkText = *p.Branding.WatermarkText
	}
	if p.Billing != nil {
		applyBool(&c.Billing.Enabled, p.Billing.Enabled)
		if p.Billing.PremiumLooksPerDay != nil {
			c.Billing.PremiumLooksPerDay = *p.Billing.PremiumLooksPerDay
		}
		applyBool(&c.Billing.GateCoachSecondStep, p.Billing.GateCoachSecondStep)
		if p.Billing.FreeCoachQuestionsPerSession != nil {
			c.Billing.FreeCoachQuestionsPerSession = *p.Billing.FreeCoachQuestionsPerSession
		}
		if p.Billing.ProductName != nil {
			c.Billing.ProductName = *p.Billing.ProductName
		}
		if p.Billing.PriceMonthlyBRL != nil {
			c.Billing.PriceMonthlyBRL = *p.Billing.PriceMonthlyBRL
		}
		if p.Billing.PriceMonthlyUSD != nil {
			c.Billing.PriceMonthlyUSD = *p.Billing.PriceMonthlyUSD
		}
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
