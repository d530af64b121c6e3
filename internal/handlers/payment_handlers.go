package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/payment"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/services"
)

const maxWebhookBytes = int64(65536)

// WebhookParser verifies a provider callback, satisfied by *payment.StripeGateway
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (models.PaymentOutcome, bool, error)
}

// PaymentHandlers handles payment provider callbacks
type PaymentHandlers struct {
	checkout *services.CheckoutService
	stripe   WebhookParser
}

// NewPaymentHandlers creates new payment handlers. stripe may be nil when
// Stripe is not configured.
func NewPaymentHandlers(checkout *services.CheckoutService, stripe WebhookParser) *PaymentHandlers {
	return &PaymentHandlers{checkout: checkout, stripe: stripe}
}

// StripeWebhook settles a pending checkout from a Stripe event
func (ph *PaymentHandlers) StripeWebhook(c *gin.Context) {
	if ph.stripe == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stripe is not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	outcome, handled, err := ph.stripe.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, payment.ErrWebhookNotConfigured) {
		log.Printf("Stripe webhook refused: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Stripe webhooks are not configured"})
		return
	}
	if err != nil {
		log.Printf("Stripe webhook rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook"})
		return
	}
	if !handled {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := ph.checkout.CompletePayment(ctx, outcome)
	if err != nil {
		// an unknown or expired hold will never resolve, so stop the retries
		if errors.Is(err, services.ErrHoldNotFound) {
			log.Printf("Stripe webhook for unknown checkout %+v", outcome)
			c.JSON(http.StatusOK, gin.H{"received": true, "settled": false})
			return
		}
		respondError(c, "Stripe webhook", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "settled": true, "order_id": resp.OrderID, "status": resp.Status})
}

// SandboxComplete settles a pending sandbox checkout
func (ph *PaymentHandlers) SandboxComplete(c *gin.Context) {
	var outcome models.PaymentOutcome
	if err := c.ShouldBindJSON(&outcome); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if outcome.HoldID == "" && outcome.PaymentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hold_id or payment_id is required"})
		return
	}
	// only settles checkouts the sandbox itself holds
	outcome.Gateway = payment.SandboxGatewayName
	outcome.Verified = false

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	resp, err := ph.checkout.CompletePayment(ctx, outcome)
	if err != nil {
		respondError(c, "Sandbox payment", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
