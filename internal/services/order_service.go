package services

import (
	"context"
	"log"
	"strings"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/notify"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/orderdiff"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/queue"
)

// SaveResult is the outcome of saving an admin edit. Order is the new
// original the edit session continues from.
type SaveResult struct {
	Saved    bool               `json:"saved"`
	Notified bool               `json:"notified"`
	Changes  []orderdiff.Change `json:"changes"`
	Order    models.Order       `json:"order"`
}

// OrderService handles admin edits of persisted orders
type OrderService struct {
	orders   OrderAPI
	notifier notify.Notifier
	events   EventPublisher
	journal  ChangeJournal
}

// NewOrderService creates a new order service. events and journal may be nil.
func NewOrderService(orders OrderAPI, notifier notify.Notifier, events EventPublisher, journal ChangeJournal) *OrderService {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	return &OrderService{
		orders:   orders,
		notifier: notifier,
		events:   events,
		journal:  journal,
	}
}

// ListOrders returns every order for the admin dashboard
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.FetchOrders(ctx)
}

// GetOrder fetches an order from the API
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, domain.ValidationError{Field: "order_id", Msg: "is required"}
	}
	return s.orders.FetchOrder(ctx, orderID)
}

// PreviewChanges returns what a save would change without persisting
func (s *OrderService) PreviewChanges(original, current models.Order) []orderdiff.Change {
	return orderdiff.Diff(original, current)
}

// SaveChanges persists an edit when it changes anything, then notifies the
// customer. An edit without changes is a no-op: nothing is sent to the API
// and nobody is notified. A failed persist is returned as-is so the caller
// keeps its edit state; notification, event and journal failures are only
// logged.
func (s *OrderService) SaveChanges(ctx context.Context, original, current models.Order) (*SaveResult, error) {
	changes := orderdiff.Diff(original, current)
	if len(changes) == 0 {
		return &SaveResult{Changes: changes, Order: original}, nil
	}

	orderID := string(current.ID)
	if orderID == "" {
		orderID = string(original.ID)
	}
	if orderID == "" {
		return nil, domain.ValidationError{Field: "order_id", Msg: "is required"}
	}
	current.ID = models.Loose(orderID)

	newAmount, ok := current.AmountValue()
	if !ok || newAmount < 0 {
		return nil, domain.ValidationError{Field: "amount", Msg: "must be a non-negative number", Err: domain.ErrInvalidAmount}
	}

	status := current.Status
	if status == "" {
		status = original.Status
	}
	status, valid := models.ParseOrderStatus(string(status))
	if !valid {
		return nil, domain.ValidationError{Field: "status", Msg: "must be one of PENDING, ACCEPTED, CANCELLED, FAILED"}
	}
	current.Status = status

	// keys the editor does not model survive the save
	current.BookingDetails = current.BookingDetails.Rebase(original.BookingDetails)

	// persist first; this path is never retried
	err := s.orders.UpdateOrderDetails(ctx, models.UpdateOrderDetailsRequest{
		OrderID:        orderID,
		NewAmount:      pricing.FormatAmount(newAmount),
		BookingDetails: current.BookingDetails,
		NewStatus:      status,
	})
	if err != nil {
		log.Printf("Failed to save order %s: %v", orderID, err)
		return nil, err
	}
	log.Printf("Order %s saved with %d change(s)", orderID, len(changes))

	previousTotal := displayAmount(original)
	newTotal := pricing.FormatAmount(newAmount)

	notified := true
	if err := s.notifier.NotifyOrderChanged(ctx, notify.OrderChanged{
		Email:         current.RecipientEmail(),
		UserName:      current.RecipientName(),
		OrderID:       orderID,
		Changes:       changes,
		PreviousTotal: previousTotal,
		NewTotal:      newTotal,
	}); err != nil {
		notified = false
		log.Printf("Order %s saved but customer was not notified: %v", orderID, err)
	}

	if s.events != nil {
		event := queue.NewOrderUpdatedEvent(orderID, string(status), previousTotal, newTotal, changes, notified)
		if err := s.events.PublishOrderUpdated(ctx, event); err != nil {
			log.Printf("Failed to publish order.updated for order %s: %v", orderID, err)
		}
	}

	if s.journal != nil {
		if _, err := s.journal.Record(ctx, orderID, changes, notified); err != nil {
			log.Printf("Failed to journal changes for order %s: %v", orderID, err)
		}
	}

	return &SaveResult{
		Saved:    true,
		Notified: notified,
		Changes:  changes,
		Order:    current,
	}, nil
}

// UpdateStatus changes only the status of an order
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, rawStatus string) (models.OrderStatus, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", domain.ValidationError{Field: "orderId", Msg: "is required"}
	}
	status, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return "", domain.ValidationError{Field: "status", Msg: "must be one of PENDING, ACCEPTED, CANCELLED, FAILED"}
	}
	if err := s.orders.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return "", err
	}

	log.Printf("Order %s status set to %s", orderID, status)
	return status, nil
}

// Journal lists the saved edits of an order
func (s *OrderService) Journal(ctx context.Context, orderID string) ([]database.JournalEntry, error) {
	if s.journal == nil {
		return []database.JournalEntry{}, nil
	}
	return s.journal.List(ctx, orderID)
}

func displayAmount(o models.Order) string {
	if v, ok := o.AmountValue(); ok {
		return pricing.FormatAmount(v)
	}
	return string(o.Amount)
}
