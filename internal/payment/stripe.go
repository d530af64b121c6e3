package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/checkout/session"
	"github.com/stripe/stripe-go/v83/webhook"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
)

// StripeGatewayName is the registry name of the Stripe gateway
const StripeGatewayName = "stripe"

// ErrWebhookNotConfigured is returned when no webhook signing secret is set
var ErrWebhookNotConfigured = errors.New("stripe webhook secret not configured")

// StripeConfig holds the Stripe Checkout settings
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

// StripeGateway opens Stripe Checkout sessions
type StripeGateway struct {
	cfg StripeConfig
}

// NewStripeGateway creates a Stripe gateway and sets the API key
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	if cfg.Currency == "" {
		cfg.Currency = "gbp"
	}
	stripe.Key = cfg.SecretKey
	return &StripeGateway{cfg: cfg}
}

// Name returns the gateway name
func (sg *StripeGateway) Name() string { return StripeGatewayName }

// CreatePayment opens a Checkout session for the full order amount
func (sg *StripeGateway) CreatePayment(_ context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	sess, err := session.New(sg.sessionParams(req))
	if err != nil {
		log.Printf("Stripe checkout session failed for %s: %v", req.Reference, err)
		return &models.PaymentResponse{
			Gateway:     StripeGatewayName,
			Status:      models.PaymentStatusFailed,
			Message:     err.Error(),
			Reference:   req.Reference,
			Amount:      req.Amount,
			ProcessedAt: time.Now(),
		}, nil
	}

	log.Printf("Stripe checkout session %s opened for %s (%.2f %s)", sess.ID, req.Reference, req.Amount, sg.cfg.Currency)
	return &models.PaymentResponse{
		Gateway:     StripeGatewayName,
		PaymentID:   sess.ID,
		Status:      models.PaymentStatusPending,
		RedirectURL: sess.URL,
		Reference:   req.Reference,
		Amount:      req.Amount,
		ProcessedAt: time.Now(),
	}, nil
}

func (sg *StripeGateway) sessionParams(req *models.PaymentRequest) *stripe.CheckoutSessionParams {
	metadata := map[string]string{"hold_id": req.Reference}
	for k, v := range req.Metadata {
		metadata[k] = v
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(sg.cfg.SuccessURL),
		CancelURL:         stripe.String(sg.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(sg.cfg.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(ToMinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	return params
}

// ParseWebhook verifies a webhook payload and maps it to a payment outcome.
// handled is false for event types that do not settle a checkout.
// Without a signing secret every payload is refused.
func (sg *StripeGateway) ParseWebhook(payload []byte, signature string) (outcome models.PaymentOutcome, handled bool, err error) {
	if sg.cfg.WebhookSecret == "" {
		return outcome, false, ErrWebhookNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, sg.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return outcome, false, fmt.Errorf("invalid webhook signature: %w", err)
	}

	var paid bool
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		paid = true
	case "checkout.session.async_payment_failed", "checkout.session.expired":
		paid = false
	default:
		log.Printf("Ignoring Stripe event %s", event.Type)
		return outcome, false, nil
	}

	var sess stripe.CheckoutSession
	if event.Data == nil {
		return outcome, false, fmt.Errorf("stripe event %s has no data", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return outcome, false, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	// a completed session can still be awaiting an async payment method
	if event.Type == "checkout.session.completed" && sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		log.Printf("Checkout session %s completed but unpaid, waiting for async result", sess.ID)
		return outcome, false, nil
	}

	holdID := sess.ClientReferenceID
	if holdID == "" {
		holdID = sess.Metadata["hold_id"]
	}
	return models.PaymentOutcome{
		HoldID:    holdID,
		PaymentID: sess.ID,
		Paid:      paid,
		Gateway:   StripeGatewayName,
		Verified:  true,
	}, true, nil
}
