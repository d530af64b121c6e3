package models

import (
	"math"
	"strings"
)

// OrderStatus is the lifecycle state of a persisted order
type OrderStatus string

// OrderStatus constants
const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusFailed    OrderStatus = "FAILED"
)

// IsValid checks if the order status is one of the known values
func (s OrderStatus) IsValid() bool {
	validStatuses := []OrderStatus{
		OrderStatusPending,
		OrderStatusAccepted,
		OrderStatusCancelled,
		OrderStatusFailed,
	}

	for _, status := range validStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ParseOrderStatus normalizes user input ("accepted", " Pending ") to a status
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

// Order represents a server-persisted booking. Amount stays Loose so that
// a number from the API and a string from an admin form compare equal.
type Order struct {
	ID              Loose          `json:"id"`
	Amount          Loose          `json:"amount"`
	Status          OrderStatus    `json:"status"`
	BookingDetails  BookingDetails `json:"booking_details"`
	UserID          Loose          `json:"user_id"`
	UserEmail       string         `json:"user_email"`
	UserFirstName   string         `json:"user_firstName"`
	CreatedAt       string         `json:"created_at"`
	StripeSessionID string         `json:"stripe_session_id"`
}

// AmountValue parses the order amount; ok is false when it is not a finite number
func (o *Order) AmountValue() (float64, bool) {
	f, err := o.Amount.Float()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// RecipientEmail returns the address a customer notification goes to
func (o *Order) RecipientEmail() string {
	if e := strings.TrimSpace(string(o.BookingDetails.Email)); e != "" {
		return e
	}
	return strings.TrimSpace(o.UserEmail)
}

// RecipientName returns the customer name for notifications
func (o *Order) RecipientName() string {
	if n := o.BookingDetails.CustomerName(); n != "" {
		return n
	}
	return strings.TrimSpace(o.UserFirstName)
}

// CreateOrderRequest is sent to the API when checkout opens a payment
type CreateOrderRequest struct {
	Action          string         `json:"action"`
	Amount          float64        `json:"amount"`
	Status          OrderStatus    `json:"status"`
	BookingDetails  BookingDetails `json:"booking_details"`
	UserEmail       string         `json:"user_email"`
	UserFirstName   string         `json:"user_firstName"`
	StripeSessionID string         `json:"stripe_session_id"`
}

// UpdateOrderDetailsRequest persists an admin edit of an order
type UpdateOrderDetailsRequest struct {
	Action         string         `json:"action"`
	OrderID        string         `json:"order_id"`
	NewAmount      string         `json:"new_amount"`
	BookingDetails BookingDetails `json:"booking_details"`
	NewStatus      OrderStatus    `json:"new_status"`
}

// UpdateOrderStatusRequest changes only the status of an order
type UpdateOrderStatusRequest struct {
	OrderID string      `json:"orderId"`
	Status  OrderStatus `json:"status"`
}

// SaveOrderRequest carries both snapshots of an admin edit session
type SaveOrderRequest struct {
	Original Order `json:"original"`
	Current  Order `json:"current"`
}
