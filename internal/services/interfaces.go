package services

import (
	"context"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/orderdiff"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/queue"
)

// CatalogAPI is the part of the remote API the catalog reads and edits
type CatalogAPI interface {
	FetchRateCards(ctx context.Context) ([]models.RateCard, error)
	FetchPromoCodes(ctx context.Context) ([]models.PromoCode, error)
	FetchGrandDiscount(ctx context.Context) (float64, error)
	UpdateGrandDiscount(ctx context.Context, percent float64) error
	DeleteGrandDiscount(ctx context.Context) error
}

// OrderAPI is the part of the remote API that persists orders
type OrderAPI interface {
	FetchOrders(ctx context.Context) ([]models.Order, error)
	FetchOrder(ctx context.Context, orderID string) (*models.Order, error)
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (string, error)
	UpdateOrderDetails(ctx context.Context, req models.UpdateOrderDetailsRequest) error
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error
}

// Cache is a JSON key-value cache, satisfied by *database.RedisClient
type Cache interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// EventPublisher publishes order events, satisfied by *queue.Publisher
type EventPublisher interface {
	PublishOrderUpdated(ctx context.Context, event queue.OrderUpdatedEvent) error
}

// ChangeJournal stores saved order edits, satisfied by *database.JournalRepository
type ChangeJournal interface {
	Record(ctx context.Context, orderID string, changes []orderdiff.Change, notified bool) (int64, error)
	List(ctx context.Context, orderID string) ([]database.JournalEntry, error)
}
