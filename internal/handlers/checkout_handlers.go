package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/services"
)

// CheckoutHandlers handles storefront checkout requests
type CheckoutHandlers struct {
	checkout *services.CheckoutService
}

// NewCheckoutHandlers creates new checkout handlers
func NewCheckoutHandlers(checkout *services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout}
}

// Checkout handles checkout requests
func (ch *CheckoutHandlers) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	// Longer timeout for checkout, the gateway call is included
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	resp, err := ch.checkout.Checkout(ctx, &req)
	if err != nil {
		respondError(c, "Checkout", err)
		return
	}

	statusCode := http.StatusOK
	switch resp.Status {
	case models.OrderStatusPending:
		statusCode = http.StatusAccepted
	case models.OrderStatusFailed:
		statusCode = http.StatusPaymentRequired
	}
	c.JSON(statusCode, resp)

	log.Printf("Checkout completed: order=%s status=%s", resp.OrderID, resp.Status)
}
