package models

import (
	"time"
)

// PaymentRequest represents a request to open a payment with a gateway
type PaymentRequest struct {
	Reference   string            `json:"reference"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Email       string            `json:"email"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PaymentResponse represents a gateway's answer to a payment request
type PaymentResponse struct {
	Gateway     string    `json:"gateway"`
	PaymentID   string    `json:"payment_id"`
	Status      string    `json:"status"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	Message     string    `json:"message,omitempty"`
	Reference   string    `json:"reference"`
	Amount      float64   `json:"amount"`
	ProcessedAt time.Time `json:"processed_at"`
}

// PaymentStatus constants
const (
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
	PaymentStatusTimeout = "timeout"
	PaymentStatusPending = "pending"
)

// IsValidPaymentStatus checks if the payment status is valid
func IsValidPaymentStatus(status string) bool {
	validStatuses := []string{
		PaymentStatusSuccess,
		PaymentStatusFailed,
		PaymentStatusTimeout,
		PaymentStatusPending,
	}

	for _, s := range validStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// CheckoutRequest represents a storefront checkout
type CheckoutRequest struct {
	Intent   BookingIntent `json:"booking_intent"`
	Customer Customer      `json:"customer"`
	Vehicles []Vehicle     `json:"vehicles"`
	Gateway  string        `json:"gateway"`
}

// CheckoutResponse represents the response for checkout
type CheckoutResponse struct {
	OrderID     string      `json:"order_id,omitempty"`
	HoldID      string      `json:"hold_id"`
	Status      OrderStatus `json:"status"`
	Amount      float64     `json:"amount"`
	Gateway     string      `json:"gateway"`
	PaymentID   string      `json:"payment_id,omitempty"`
	RedirectURL string      `json:"redirect_url,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// CheckoutHold is the pending checkout kept in cache until the gateway answers
type CheckoutHold struct {
	HoldID    string        `json:"hold_id"`
	OrderID   string        `json:"order_id"`
	Intent    BookingIntent `json:"booking_intent"`
	Amount    float64       `json:"amount"`
	Gateway   string        `json:"gateway"`
	PaymentID string        `json:"payment_id"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// PaymentOutcome is a gateway's final answer for an opened payment.
// Gateway and Verified are set by the server, never decoded from a client.
type PaymentOutcome struct {
	HoldID    string `json:"hold_id"`
	PaymentID string `json:"payment_id"`
	Paid      bool   `json:"paid"`
	Gateway   string `json:"-"`
	// Verified marks an outcome whose provider signature was checked
	Verified bool `json:"-"`
}
