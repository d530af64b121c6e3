package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/services"
)

// statusFor maps a service error to an HTTP status code
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrHoldNotFound):
		return http.StatusNotFound
	case domain.IsAPI(err):
		return http.StatusBadGateway
	case domain.IsNetwork(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes it as {"error": ...}. Server-side
// rejections carry the remote API's message verbatim.
func respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	log.Printf("%s error: %v", op, err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = op + " failed"
	}
	c.JSON(status, gin.H{"error": msg})
}
