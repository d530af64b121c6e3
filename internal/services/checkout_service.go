package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/database"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/payment"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/pricing"
)

// DefaultHoldTTL is how long a pending checkout waits for its payment
const DefaultHoldTTL = 15 * time.Minute

// ErrHoldNotFound is returned when a payment outcome matches no pending checkout
var ErrHoldNotFound = errors.New("checkout hold not found or expired")

// CheckoutService turns a booking intent into a paid order
type CheckoutService struct {
	catalog  *CatalogService
	orders   OrderAPI
	gateways *payment.Registry
	cache    Cache
	pricing  pricing.Engine
	currency string
	holdTTL  time.Duration
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(catalog *CatalogService, orders OrderAPI, gateways *payment.Registry, cache Cache, engine pricing.Engine, currency string) *CheckoutService {
	return &CheckoutService{
		catalog:  catalog,
		orders:   orders,
		gateways: gateways,
		cache:    cache,
		pricing:  engine,
		currency: currency,
		holdTTL:  DefaultHoldTTL,
	}
}

// Checkout re-prices the intent, opens a payment and records the order
func (cs *CheckoutService) Checkout(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := validateCustomer(req.Customer); err != nil {
		return nil, err
	}

	// Step 1: re-price from the current rate card; client totals are ignored
	intent, err := cs.reprice(ctx, req.Intent)
	if err != nil {
		return nil, err
	}
	amount, err := cs.pricing.Quote(intent)
	if err != nil {
		return nil, domain.ValidationError{Field: "total", Msg: "cannot be priced", Err: err}
	}
	amount = pricing.Round2(amount)

	gateway, err := cs.gateways.Get(req.Gateway)
	if err != nil {
		return nil, domain.ValidationError{Field: "gateway", Msg: err.Error()}
	}

	log.Printf("Checkout for %s at %s, %d vehicle(s), amount %.2f via %s",
		req.Customer.Email, intent.Name, intent.VehicleCount(), amount, gateway.Name())

	// Step 2: hold the checkout until the gateway answers
	now := time.Now()
	hold := &models.CheckoutHold{
		HoldID:    uuid.New().String(),
		Intent:    intent,
		Amount:    amount,
		Gateway:   gateway.Name(),
		CreatedAt: now,
		ExpiresAt: now.Add(cs.holdTTL),
	}
	holdKey := database.GenerateCheckoutHoldKey(hold.HoldID)
	if err := cs.cache.SetJSON(ctx, holdKey, hold, cs.holdTTL); err != nil {
		return nil, fmt.Errorf("failed to create checkout hold: %w", err)
	}

	// Step 3: open the payment
	paymentResp, err := gateway.CreatePayment(ctx, &models.PaymentRequest{
		Reference:   hold.HoldID,
		Amount:      amount,
		Currency:    cs.currency,
		Description: fmt.Sprintf("%s parking at %s, %d day(s)", intent.Name, intent.Location, intent.Duration),
		Email:       req.Customer.Email,
		Metadata: map[string]string{
			"rate_card_id": intent.RateCardID,
			"location":     intent.Location,
		},
	})
	if err != nil {
		cs.releaseHold(ctx, hold)
		return nil, fmt.Errorf("payment gateway %s failed: %w", gateway.Name(), err)
	}
	hold.PaymentID = paymentResp.PaymentID

	// Step 4: record the order with the status the payment implies
	status := orderStatusForPayment(paymentResp.Status)
	orderID, err := cs.orders.CreateOrder(ctx, models.CreateOrderRequest{
		Amount:          amount,
		Status:          status,
		BookingDetails:  models.DetailsFromIntent(intent, req.Customer, req.Vehicles),
		UserEmail:       req.Customer.Email,
		UserFirstName:   req.Customer.FirstName,
		StripeSessionID: paymentResp.PaymentID,
	})
	if err != nil {
		cs.releaseHold(ctx, hold)
		return nil, err
	}
	hold.OrderID = orderID

	response := &models.CheckoutResponse{
		OrderID:     orderID,
		HoldID:      hold.HoldID,
		Status:      status,
		Amount:      amount,
		Gateway:     gateway.Name(),
		PaymentID:   paymentResp.PaymentID,
		RedirectURL: paymentResp.RedirectURL,
		Message:     paymentResp.Message,
	}

	// Step 5: keep the hold only while the payment is still open
	if status == models.OrderStatusPending {
		if err := cs.cache.SetJSON(ctx, holdKey, hold, time.Until(hold.ExpiresAt)); err != nil {
			log.Printf("Failed to update checkout hold %s: %v", hold.HoldID, err)
		}
		if hold.PaymentID != "" {
			paymentKey := database.GeneratePaymentHoldKey(hold.Gateway, hold.PaymentID)
			if err := cs.cache.SetJSON(ctx, paymentKey, hold.HoldID, time.Until(hold.ExpiresAt)); err != nil {
				log.Printf("Failed to index checkout hold %s: %v", hold.HoldID, err)
			}
		}
		if response.Message == "" {
			response.Message = "Payment pending"
		}
	} else {
		cs.releaseHold(ctx, hold)
	}

	log.Printf("Order %s created as %s for hold %s", orderID, status, hold.HoldID)
	return response, nil
}

// CompletePayment settles a pending checkout from a gateway outcome.
// The outcome must match a hold opened on the same gateway; a verified
// provider event may also settle a pending order whose hold expired.
func (cs *CheckoutService) CompletePayment(ctx context.Context, outcome models.PaymentOutcome) (*models.CheckoutResponse, error) {
	hold, err := cs.findHold(ctx, outcome)
	if errors.Is(err, ErrHoldNotFound) && outcome.Verified {
		hold, err = cs.findPendingOrder(ctx, outcome)
	}
	if err != nil {
		return nil, err
	}

	status := models.OrderStatusFailed
	if outcome.Paid {
		status = models.OrderStatusAccepted
	}
	if err := cs.orders.UpdateOrderStatus(ctx, hold.OrderID, status); err != nil {
		return nil, err
	}
	cs.releaseHold(ctx, hold)

	log.Printf("Payment for order %s settled as %s via %s", hold.OrderID, status, hold.Gateway)
	return &models.CheckoutResponse{
		OrderID:   hold.OrderID,
		HoldID:    hold.HoldID,
		Status:    status,
		Amount:    hold.Amount,
		Gateway:   hold.Gateway,
		PaymentID: hold.PaymentID,
	}, nil
}

func (cs *CheckoutService) reprice(ctx context.Context, intent models.BookingIntent) (models.BookingIntent, error) {
	if intent.RateCardID == "" {
		return models.BookingIntent{}, domain.ValidationError{Field: "rateCardId", Msg: "is required"}
	}
	card, err := cs.catalog.RateCard(ctx, intent.RateCardID)
	if err != nil {
		return models.BookingIntent{}, err
	}
	intent.Name = card.Name
	intent.Location = card.Location
	intent.Country = card.Country
	intent.Type = card.Type
	intent.Base = float64(card.Price)

	promo, found, err := cs.catalog.LookupPromo(ctx, intent.PromoCode)
	if err != nil {
		return models.BookingIntent{}, err
	}
	if intent.PromoCode != "" && !found {
		return models.BookingIntent{}, domain.ValidationError{Field: "promoCode", Msg: fmt.Sprintf("unknown promo code %q", intent.PromoCode)}
	}

	grand, err := cs.catalog.GrandDiscount(ctx)
	if err != nil {
		log.Printf("Grand discount unavailable at checkout, pricing without it: %v", err)
		grand = 0
	}
	return cs.pricing.Reprice(intent, promo, grand)
}

// findHold resolves the pending checkout by hold id, then by payment id,
// and only returns it when the outcome came from the hold's own gateway
func (cs *CheckoutService) findHold(ctx context.Context, outcome models.PaymentOutcome) (*models.CheckoutHold, error) {
	if outcome.Gateway == "" {
		return nil, ErrHoldNotFound
	}

	holdID := outcome.HoldID
	if holdID == "" && outcome.PaymentID != "" {
		var indexed string
		err := cs.cache.GetJSON(ctx, database.GeneratePaymentHoldKey(outcome.Gateway, outcome.PaymentID), &indexed)
		if err != nil && !errors.Is(err, database.ErrCacheMiss) {
			return nil, fmt.Errorf("failed to read payment index: %w", err)
		}
		holdID = indexed
	}
	if holdID == "" {
		return nil, ErrHoldNotFound
	}

	var hold models.CheckoutHold
	if err := cs.cache.GetJSON(ctx, database.GenerateCheckoutHoldKey(holdID), &hold); err != nil {
		if errors.Is(err, database.ErrCacheMiss) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to read checkout hold: %w", err)
	}

	switch {
	case hold.Gateway != outcome.Gateway:
		log.Printf("Outcome from %s does not match hold %s on %s", outcome.Gateway, hold.HoldID, hold.Gateway)
		return nil, ErrHoldNotFound
	case hold.Gateway != payment.SandboxGatewayName && !outcome.Verified:
		log.Printf("Unverified outcome for hold %s on %s", hold.HoldID, hold.Gateway)
		return nil, ErrHoldNotFound
	case hold.PaymentID != "" && outcome.PaymentID != "" && hold.PaymentID != outcome.PaymentID:
		log.Printf("Payment %s does not match hold %s", outcome.PaymentID, hold.HoldID)
		return nil, ErrHoldNotFound
	case hold.OrderID == "":
		return nil, ErrHoldNotFound
	}
	return &hold, nil
}

// findPendingOrder settles a verified outcome whose hold already expired,
// matching the provider's payment id against the recorded orders
func (cs *CheckoutService) findPendingOrder(ctx context.Context, outcome models.PaymentOutcome) (*models.CheckoutHold, error) {
	if outcome.PaymentID == "" {
		return nil, ErrHoldNotFound
	}
	orders, err := cs.orders.FetchOrders(ctx)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.StripeSessionID != outcome.PaymentID {
			continue
		}
		if st, _ := models.ParseOrderStatus(string(o.Status)); st != models.OrderStatusPending {
			log.Printf("Order %s for payment %s is already %s", o.ID, outcome.PaymentID, o.Status)
			return nil, ErrHoldNotFound
		}
		amount, _ := o.AmountValue()
		return &models.CheckoutHold{
			HoldID:    outcome.HoldID,
			OrderID:   o.ID.String(),
			Amount:    amount,
			Gateway:   outcome.Gateway,
			PaymentID: outcome.PaymentID,
		}, nil
	}
	return nil, ErrHoldNotFound
}

func (cs *CheckoutService) releaseHold(ctx context.Context, hold *models.CheckoutHold) {
	keys := []string{database.GenerateCheckoutHoldKey(hold.HoldID)}
	if hold.PaymentID != "" {
		keys = append(keys, database.GeneratePaymentHoldKey(hold.Gateway, hold.PaymentID))
	}
	if err := cs.cache.Delete(ctx, keys...); err != nil {
		log.Printf("Failed to remove checkout hold %s: %v", hold.HoldID, err)
	}
}

func orderStatusForPayment(paymentStatus string) models.OrderStatus {
	switch paymentStatus {
	case models.PaymentStatusSuccess:
		return models.OrderStatusAccepted
	case models.PaymentStatusPending:
		return models.OrderStatusPending
	default:
		return models.OrderStatusFailed
	}
}

func validateCustomer(c models.Customer) error {
	if strings.TrimSpace(c.FirstName) == "" {
		return domain.ValidationError{Field: "firstName", Msg: "is required"}
	}
	email := strings.TrimSpace(c.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.ValidationError{Field: "email", Msg: "must be a valid email address"}
	}
	return nil
}
