package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/payment"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
)

func newTestCheckout(deferred bool) (*CheckoutService, *fakeOrderAPI, *memoryCache) {
	sandbox := payment.NewSandboxGateway()
	sandbox.SetFailureRate(0)
	sandbox.SetTimeoutRate(0)
	sandbox.SetProcessingTime(0)
	sandbox.SetDeferred(deferred, "http://localhost/checkout/return")

	cache := newMemoryCache()
	orders := newFakeOrderAPI()
	catalog := NewCatalogService(sampleCatalogAPI(), cache, pricing.Default(), time.Minute)
	cs := NewCheckoutService(catalog, orders, payment.NewRegistry(sandbox), cache, pricing.Default(), "gbp")
	return cs, orders, cache
}

// hostedGateway stands in for a redirecting provider such as Stripe
type hostedGateway struct {
	name  string
	calls int
}

func (g *hostedGateway) Name() string { return g.name }

func (g *hostedGateway) CreatePayment(_ context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	g.calls++
	return &models.PaymentResponse{
		Gateway:     g.name,
		PaymentID:   "cs_test_" + req.Reference,
		Status:      models.PaymentStatusPending,
		RedirectURL: "https://checkout.test/" + req.Reference,
		Reference:   req.Reference,
		Amount:      req.Amount,
		ProcessedAt: time.Now(),
	}, nil
}

func newHostedCheckout(gateways ...payment.Gateway) (*CheckoutService, *fakeOrderAPI, *memoryCache) {
	cache := newMemoryCache()
	orders := newFakeOrderAPI()
	catalog := NewCatalogService(sampleCatalogAPI(), cache, pricing.Default(), time.Minute)
	cs := NewCheckoutService(catalog, orders, payment.NewRegistry(gateways...), cache, pricing.Default(), "gbp")
	return cs, orders, cache
}

func tamperedCheckout() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		Intent: models.BookingIntent{
			RateCardID:   "2",
			Name:         "Cheap Spot",
			Dropoff:      "2024-06-01T10:00",
			Pickup:       "2024-06-02T10:00",
			Base:         1,
			Total:        0.01,
			PromoCode:    "SUMMER5",
			Cancellation: true,
		},
		Customer: models.Customer{FirstName: "Jo", LastName: "Bloggs", Email: "jo@example.com"},
		Vehicles: []models.Vehicle{{Registration: "AB12 CDE", Make: "Ford"}},
	}
}

func TestCheckoutRepricesFromRateCard(t *testing.T) {
	cs, orders, cache := newTestCheckout(false)

	resp, err := cs.Checkout(context.Background(), tamperedCheckout())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Amount != 59 || resp.Status != models.OrderStatusAccepted || resp.Gateway != payment.SandboxGatewayName {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(orders.created) != 1 {
		t.Fatalf("expected one created order, got %d", len(orders.created))
	}
	created := orders.created[0]
	if created.Amount != 59 || created.BookingDetails.Name != "Meet & Greet" || created.UserEmail != "jo@example.com" {
		t.Fatalf("unexpected order %+v", created)
	}
	if len(created.BookingDetails.Vehicles) != 1 {
		t.Fatalf("vehicles should be carried into the order, got %+v", created.BookingDetails.Vehicles)
	}
	if cache.has(database.GenerateCheckoutHoldKey(resp.HoldID)) {
		t.Fatalf("settled checkout should not keep a hold")
	}
}

func TestCheckoutValidation(t *testing.T) {
	cs, orders, _ := newTestCheckout(false)

	req := tamperedCheckout()
	req.Customer.Email = "not-an-email"
	if _, err := cs.Checkout(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("bad email: expected validation error, got %v", err)
	}

	req = tamperedCheckout()
	req.Intent.PromoCode = "NOPE"
	if _, err := cs.Checkout(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("unknown promo: expected validation error, got %v", err)
	}

	req = tamperedCheckout()
	req.Intent.RateCardID = "99"
	if _, err := cs.Checkout(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("unknown rate card: expected validation error, got %v", err)
	}

	req = tamperedCheckout()
	req.Gateway = "paypal"
	if _, err := cs.Checkout(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("unknown gateway: expected validation error, got %v", err)
	}

	if len(orders.created) != 0 {
		t.Fatalf("rejected checkouts must not create orders, got %d", len(orders.created))
	}
}

func TestPendingCheckoutSettledByHold(t *testing.T) {
	cs, orders, cache := newTestCheckout(true)

	resp, err := cs.Checkout(context.Background(), tamperedCheckout())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != models.OrderStatusPending || resp.RedirectURL == "" || resp.PaymentID == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !cache.has(database.GenerateCheckoutHoldKey(resp.HoldID)) {
		t.Fatalf("pending checkout should keep its hold")
	}

	sandboxPaid := models.PaymentOutcome{HoldID: resp.HoldID, Paid: true, Gateway: payment.SandboxGatewayName}
	settled, err := cs.CompletePayment(context.Background(), sandboxPaid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.OrderID != resp.OrderID || settled.Status != models.OrderStatusAccepted {
		t.Fatalf("unexpected settlement %+v", settled)
	}
	if len(orders.statusUpdates) != 1 || orders.statusUpdates[0].Status != models.OrderStatusAccepted {
		t.Fatalf("unexpected status updates %+v", orders.statusUpdates)
	}
	if cache.has(database.GenerateCheckoutHoldKey(resp.HoldID)) {
		t.Fatalf("settled hold should be released")
	}

	if _, err := cs.CompletePayment(context.Background(), sandboxPaid); !errors.Is(err, ErrHoldNotFound) {
		t.Fatalf("second settlement: expected ErrHoldNotFound, got %v", err)
	}
}

func TestPendingCheckoutSettledByPaymentID(t *testing.T) {
	cs, orders, _ := newTestCheckout(true)

	resp, err := cs.Checkout(context.Background(), tamperedCheckout())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	settled, err := cs.CompletePayment(context.Background(), models.PaymentOutcome{PaymentID: resp.PaymentID, Paid: false, Gateway: payment.SandboxGatewayName})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.Status != models.OrderStatusFailed || settled.HoldID != resp.HoldID {
		t.Fatalf("unexpected settlement %+v", settled)
	}
	if orders.statusUpdates[0].OrderID != resp.OrderID {
		t.Fatalf("wrong order settled: %+v", orders.statusUpdates)
	}
}

func TestCompletePaymentRequiresHold(t *testing.T) {
	cs, orders, _ := newTestCheckout(true)
	orders.orders["42"] = models.Order{ID: "42", Status: models.OrderStatusPending, StripeSessionID: "cs_test_42"}

	outcomes := []models.PaymentOutcome{
		{Paid: true, Gateway: payment.SandboxGatewayName},
		{HoldID: "made-up", Paid: true, Gateway: payment.SandboxGatewayName},
		{PaymentID: "cs_test_42", Paid: true, Gateway: payment.SandboxGatewayName},
		{PaymentID: "unknown", Paid: true, Gateway: payment.SandboxGatewayName},
		{PaymentID: "cs_test_42", Paid: true},
	}
	for _, outcome := range outcomes {
		if _, err := cs.CompletePayment(context.Background(), outcome); !errors.Is(err, ErrHoldNotFound) {
			t.Fatalf("%+v: expected ErrHoldNotFound, got %v", outcome, err)
		}
	}
	if len(orders.statusUpdates) != 0 {
		t.Fatalf("no order may be settled without a hold, got %+v", orders.statusUpdates)
	}
}

func TestCompletePaymentRejectsForeignGateway(t *testing.T) {
	stripe := &hostedGateway{name: payment.StripeGatewayName}
	sandbox := payment.NewSandboxGateway()
	sandbox.SetProcessingTime(0)
	sandbox.SetDeferred(true, "")
	cs, orders, cache := newHostedCheckout(stripe, sandbox)

	resp, err := cs.Checkout(context.Background(), tamperedCheckout())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Gateway != payment.StripeGatewayName || resp.Status != models.OrderStatusPending {
		t.Fatalf("unexpected response %+v", resp)
	}

	forged := []models.PaymentOutcome{
		{HoldID: resp.HoldID, Paid: true, Gateway: payment.SandboxGatewayName},
		{PaymentID: resp.PaymentID, Paid: true, Gateway: payment.SandboxGatewayName},
		{HoldID: resp.HoldID, Paid: true, Gateway: payment.StripeGatewayName},
		{HoldID: resp.HoldID, PaymentID: "cs_other", Paid: true, Gateway: payment.StripeGatewayName, Verified: true},
	}
	for _, outcome := range forged {
		if _, err := cs.CompletePayment(context.Background(), outcome); !errors.Is(err, ErrHoldNotFound) {
			t.Fatalf("%+v: expected ErrHoldNotFound, got %v", outcome, err)
		}
	}
	if len(orders.statusUpdates) != 0 || !cache.has(database.GenerateCheckoutHoldKey(resp.HoldID)) {
		t.Fatalf("forged outcomes must leave the hold alone, updates %+v", orders.statusUpdates)
	}

	settled, err := cs.CompletePayment(context.Background(), models.PaymentOutcome{
		PaymentID: resp.PaymentID, Paid: true, Gateway: payment.StripeGatewayName, Verified: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.OrderID != resp.OrderID || settled.Status != models.OrderStatusAccepted {
		t.Fatalf("unexpected settlement %+v", settled)
	}
}

func TestVerifiedOutcomeSettlesExpiredHold(t *testing.T) {
	cs, orders, _ := newHostedCheckout(&hostedGateway{name: payment.StripeGatewayName})
	orders.orders["42"] = models.Order{ID: "42", Amount: "59.00", Status: "pending", StripeSessionID: "cs_test_42"}
	orders.orders["43"] = models.Order{ID: "43", Status: models.OrderStatusAccepted, StripeSessionID: "cs_test_43"}

	settled, err := cs.CompletePayment(context.Background(), models.PaymentOutcome{
		PaymentID: "cs_test_42", Paid: true, Gateway: payment.StripeGatewayName, Verified: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.OrderID != "42" || settled.Amount != 59 || orders.statusUpdates[0].OrderID != "42" {
		t.Fatalf("unexpected settlement %+v", settled)
	}

	if _, err := cs.CompletePayment(context.Background(), models.PaymentOutcome{
		PaymentID: "cs_test_43", Paid: false, Gateway: payment.StripeGatewayName, Verified: true,
	}); !errors.Is(err, ErrHoldNotFound) {
		t.Fatalf("settled orders must not flip, got %v", err)
	}
	if len(orders.statusUpdates) != 1 {
		t.Fatalf("unexpected status updates %+v", orders.statusUpdates)
	}
}

func TestStripeOnlyRegistryRejectsSandbox(t *testing.T) {
	stripe := &hostedGateway{name: payment.StripeGatewayName}
	cs, orders, _ := newHostedCheckout(stripe)

	req := tamperedCheckout()
	req.Gateway = payment.SandboxGatewayName
	if _, err := cs.Checkout(context.Background(), req); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(orders.created) != 0 || stripe.calls != 0 {
		t.Fatalf("rejected gateway must not open a payment or an order")
	}

	resp, err := cs.Checkout(context.Background(), tamperedCheckout())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Gateway != payment.StripeGatewayName || resp.Status != models.OrderStatusPending {
		t.Fatalf("default gateway should be stripe, got %+v", resp)
	}
}
