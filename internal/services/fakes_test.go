package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/notify"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/orderdiff"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/queue"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", database.ErrCacheMiss, key)
	}
	return json.Unmarshal(b, dest)
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type fakeCatalogAPI struct {
	cards    []models.RateCard
	codes    []models.PromoCode
	grand    float64
	cardsErr error
	codesErr error
	grandErr error

	cardCalls   int32
	updated     []float64
	deleteCalls int32
}

func (f *fakeCatalogAPI) FetchRateCards(context.Context) ([]models.RateCard, error) {
	atomic.AddInt32(&f.cardCalls, 1)
	return f.cards, f.cardsErr
}

func (f *fakeCatalogAPI) FetchPromoCodes(context.Context) ([]models.PromoCode, error) {
	return f.codes, f.codesErr
}

func (f *fakeCatalogAPI) FetchGrandDiscount(context.Context) (float64, error) {
	return f.grand, f.grandErr
}

func (f *fakeCatalogAPI) UpdateGrandDiscount(_ context.Context, pct float64) error {
	f.updated = append(f.updated, pct)
	f.grand = pct
	return nil
}

func (f *fakeCatalogAPI) DeleteGrandDiscount(context.Context) error {
	atomic.AddInt32(&f.deleteCalls, 1)
	f.grand = 0
	return nil
}

type fakeOrderAPI struct {
	mu            sync.Mutex
	orders        map[string]models.Order
	created       []models.CreateOrderRequest
	detailUpdates []models.UpdateOrderDetailsRequest
	statusUpdates []models.UpdateOrderStatusRequest
	updateErr     error
	nextID        int
}

func newFakeOrderAPI() *fakeOrderAPI {
	return &fakeOrderAPI{orders: make(map[string]models.Order), nextID: 100}
}

func (f *fakeOrderAPI) FetchOrders(context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderAPI) FetchOrder(_ context.Context, id string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s not found", id)
	}
	return &o, nil
}

func (f *fakeOrderAPI) CreateOrder(_ context.Context, req models.CreateOrderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.created = append(f.created, req)
	return fmt.Sprint(f.nextID), nil
}

func (f *fakeOrderAPI) UpdateOrderDetails(_ context.Context, req models.UpdateOrderDetailsRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.detailUpdates = append(f.detailUpdates, req)
	return nil
}

func (f *fakeOrderAPI) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, models.UpdateOrderStatusRequest{OrderID: id, Status: status})
	return nil
}

type fakeNotifier struct {
	sent []notify.OrderChanged
	err  error
}

func (f *fakeNotifier) NotifyOrderChanged(_ context.Context, msg notify.OrderChanged) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePublisher struct {
	events []queue.OrderUpdatedEvent
	err    error
}

func (f *fakePublisher) PublishOrderUpdated(_ context.Context, e queue.OrderUpdatedEvent) error {
	f.events = append(f.events, e)
	return f.err
}

type fakeJournal struct {
	entries []database.JournalEntry
}

func (f *fakeJournal) Record(_ context.Context, orderID string, changes []orderdiff.Change, notified bool) (int64, error) {
	id := int64(len(f.entries) + 1)
	f.entries = append(f.entries, database.JournalEntry{ID: id, OrderID: orderID, Changes: changes, Notified: notified})
	return id, nil
}

func (f *fakeJournal) List(_ context.Context, orderID string) ([]database.JournalEntry, error) {
	var out []database.JournalEntry
	for _, e := range f.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}
