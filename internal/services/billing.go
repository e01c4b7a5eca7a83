package services

import (
	"fmt"
	"strings"

	"mirror-backend/internal/models"
	"mirror-backend/internal/policy"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// ErrBillingDisabled is returned when checkout is requested with billing off
var ErrBillingDisabled = fmt.Errorf("billing is disabled")

// ErrPixUnavailable is returned when pix is requested outside Brazil
var ErrPixUnavailable = fmt.Errorf("pix is only available in Brazil")

// BillingService creates premium checkout sessions
type BillingService struct {
	policy    *policy.RemoteConfig
	publicURL string
}

// NewBillingService creates a new billing service
func NewBillingService(cfg *policy.RemoteConfig, secretKey, publicURL string) *BillingService {
	stripe.Key = secretKey
	return &BillingService{
		policy:    cfg,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// CreateCheckout opens a subscription checkout for the premium plan.
// Card is accepted everywhere; pix only for Brazilian devices, charged in BRL.
func (s *BillingService) CreateCheckout(method, region string, reason models.PaywallReason) (string, error) {
	if !s.policy.Billing.Enabled {
		return "", ErrBillingDisabled
	}

	currency := "usd"
	unitAmount := int64(s.policy.Billing.PriceMonthlyUSD * 100)
	if region == "BR" {
		currency = "brl"
		unitAmount = int64(s.policy.Billing.PriceMonthlyBRL * 100)
	}

	paymentMethods := []*string{stripe.String("card")}
	if method == "pix" {
		if region != "BR" {
			return "", ErrPixUnavailable
		}
		paymentMethods = []*string{stripe.String("pix")}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: paymentMethods,
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(s.policy.Billing.ProductName),
					},
					UnitAmount: stripe.Int64(unitAmount),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(fmt.Sprintf("%s/?premium=1&src=stripe&reason=%s", s.publicURL, reason)),
		CancelURL:           stripe.String(fmt.Sprintf("%s/?cancel=1", s.publicURL)),
		AllowPromotionCodes: stripe.Bool(true),
	}

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess.URL, nil
}
