// Package queue defines the order events published to the message broker
// and the publisher that sends them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/orderdiff"
)

// OrderUpdatedQueue is the durable queue order edits are published to
const OrderUpdatedQueue = "order.updated"

// OrderUpdatedEvent is published after an admin edit of an order has been
// persisted. It carries the change list so consumers need not re-fetch the
// order from the API.
type OrderUpdatedEvent struct {
	EventID       string             `json:"event_id"`
	OrderID       string             `json:"order_id"`
	Status        string             `json:"status"`
	PreviousTotal string             `json:"previous_total"`
	NewTotal      string             `json:"new_total"`
	Changes       []orderdiff.Change `json:"changes"`
	Notified      bool               `json:"notified"`
	UpdatedAt     string             `json:"updated_at"`
}

// NewOrderUpdatedEvent builds an event with a fresh id and timestamp
func NewOrderUpdatedEvent(orderID, status, previousTotal, newTotal string, changes []orderdiff.Change, notified bool) OrderUpdatedEvent {
	return OrderUpdatedEvent{
		EventID:       uuid.New().String(),
		OrderID:       orderID,
		Status:        status,
		PreviousTotal: previousTotal,
		NewTotal:      newTotal,
		Changes:       changes,
		Notified:      notified,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
}
