// Package pricing turns a rate card, a duration, an optional discount, a
// vehicle count and the cancellation add-on into a chargeable amount.
//
// Amounts keep full float precision internally. Rounding to two decimals
// happens only at presentation boundaries (Round2, FormatAmount).
package pricing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/utils"
)

// DefaultCancellationFee is the flat per-order cancellation cover surcharge
const DefaultCancellationFee = 2.00

// DiscountPolicy decides how a promo code and the grand discount combine.
// The two sources never stack.
type DiscountPolicy string

const (
	// PolicyGreaterOf applies whichever of promo and grand discount is larger
	PolicyGreaterOf DiscountPolicy = "greater_of"
	// PolicyPromoOverrides applies a promo when present, otherwise the grand discount
	PolicyPromoOverrides DiscountPolicy = "promo_overrides"
)

// ParsePolicy maps a config value to a policy, defaulting to PolicyGreaterOf
func ParsePolicy(raw string) DiscountPolicy {
	switch DiscountPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case PolicyPromoOverrides:
		return PolicyPromoOverrides
	default:
		return PolicyGreaterOf
	}
}

// Config is the immutable engine configuration
type Config struct {
	CancellationFee float64
	Policy          DiscountPolicy
}

// Engine computes prices. It holds no mutable state.
type Engine struct {
	cfg Config
}

// New creates a pricing engine
func New(cfg Config) Engine {
	if cfg.Policy == "" {
		cfg.Policy = PolicyGreaterOf
	}
	return Engine{cfg: cfg}
}

// Default returns an engine with the standard fee and policy
func Default() Engine {
	return New(Config{CancellationFee: DefaultCancellationFee, Policy: PolicyGreaterOf})
}

// Config returns the engine configuration
func (e Engine) Config() Config { return e.cfg }

// Discount is a percentage discount from a promo code or the grand discount
type Discount struct {
	Percent float64
	Code    string
}

// UnitPrice is the result of applying a discount to a base rate
type UnitPrice struct {
	DiscountedUnit   float64
	DiscountAbsolute float64
	DiscountPercent  float64
}

// ComputeUnitPrice applies a discount to a base rate. A nil discount is the
// identity. The percent is clamped to [0,100]; a negative or non-finite base
// rate is rejected.
func (e Engine) ComputeUnitPrice(baseRate float64, promo *Discount) (UnitPrice, error) {
	if !finite(baseRate) {
		return UnitPrice{}, domain.ValidationError{Field: "base_rate", Msg: "not a number", Err: domain.ErrInvalidAmount}
	}
	if baseRate < 0 {
		return UnitPrice{}, domain.ValidationError{Field: "base_rate", Msg: "must not be negative"}
	}
	if promo == nil {
		return UnitPrice{DiscountedUnit: baseRate}, nil
	}

	pct := clampPercent(promo.Percent)
	discounted := baseRate * (1 - pct/100)
	return UnitPrice{
		DiscountedUnit:   discounted,
		DiscountAbsolute: baseRate - discounted,
		DiscountPercent:  pct,
	}, nil
}

// ComputeDuration returns the stay length in whole days, rounding a partial
// day up. It works on the full timestamp difference, so spans across month
// boundaries are counted correctly.
func (e Engine) ComputeDuration(dropoff, pickup time.Time) (int, error) {
	if dropoff.IsZero() || pickup.IsZero() {
		return 0, domain.ValidationError{Field: "dates", Msg: "dropoff and pickup are required"}
	}
	span := pickup.Sub(dropoff)
	if span <= 0 {
		return 0, domain.ValidationError{Field: "pickup", Msg: "must be after dropoff"}
	}
	return int(math.Ceil(span.Hours() / 24)), nil
}

// ComputeDurationISO parses the storefront's ISO datetimes and computes the duration
func (e Engine) ComputeDurationISO(dropoffISO, pickupISO string) (int, error) {
	dropoff, err := utils.ParseDateTime(dropoffISO)
	if err != nil {
		return 0, domain.ValidationError{Field: "dropoff", Msg: "invalid datetime", Err: err}
	}
	pickup, err := utils.ParseDateTime(pickupISO)
	if err != nil {
		return 0, domain.ValidationError{Field: "pickup", Msg: "invalid datetime", Err: err}
	}
	return e.ComputeDuration(dropoff, pickup)
}

// ComputeFinalTotal multiplies the unit total by the vehicle count and adds
// the flat cancellation fee once per order, after the multiplication.
func (e Engine) ComputeFinalTotal(unitTotal float64, vehicleCount int, cancellation bool) (float64, error) {
	if !finite(unitTotal) || unitTotal < 0 {
		return 0, fmt.Errorf("unit total %v: %w", unitTotal, domain.ErrInvalidAmount)
	}
	if vehicleCount < 1 {
		vehicleCount = 1
	}

	total := unitTotal * float64(vehicleCount)
	if cancellation {
		total += e.cfg.CancellationFee
	}
	return total, nil
}

// SelectDiscount picks the discount that applies under the engine's policy.
// It returns nil when neither source discounts anything.
func (e Engine) SelectDiscount(promo *models.PromoCode, grandPercent float64) *Discount {
	var promoDiscount *Discount
	if promo != nil && promo.DiscountPercent > 0 {
		promoDiscount = &Discount{Percent: clampPercent(float64(promo.DiscountPercent)), Code: promo.Code}
	}
	grand := clampPercent(grandPercent)

	switch e.cfg.Policy {
	case PolicyPromoOverrides:
		if promoDiscount != nil {
			return promoDiscount
		}
	default:
		if promoDiscount != nil && promoDiscount.Percent >= grand {
			return promoDiscount
		}
	}

	if grand > 0 {
		return &Discount{Percent: grand}
	}
	return nil
}

// BuildBookingIntent prices a rate card for a search and returns the
// serializable intent handed to checkout.
func (e Engine) BuildBookingIntent(card models.RateCard, req models.SearchRequest, promo *models.PromoCode, grandPercent float64) (models.BookingIntent, error) {
	duration, err := e.ComputeDurationISO(req.Dropoff, req.Pickup)
	if err != nil {
		return models.BookingIntent{}, err
	}

	discount := e.SelectDiscount(promo, grandPercent)
	unit, err := e.ComputeUnitPrice(float64(card.Price), discount)
	if err != nil {
		return models.BookingIntent{}, err
	}

	intent := models.BookingIntent{
		RateCardID:      string(card.ID),
		Name:            card.Name,
		Location:        card.Location,
		Country:         card.Country,
		Type:            card.Type,
		Dropoff:         req.Dropoff,
		Pickup:          req.Pickup,
		Duration:        duration,
		Base:            float64(card.Price),
		Discount:        unit.DiscountAbsolute,
		DiscountPercent: unit.DiscountPercent,
		Total:           unit.DiscountedUnit,
		Cancellation:    req.Cancellation,
		Vehicle:         req.Vehicles,
	}
	if discount != nil {
		intent.PromoCode = discount.Code
	}
	return intent, nil
}

// Quote returns the final chargeable amount for an intent
func (e Engine) Quote(intent models.BookingIntent) (float64, error) {
	return e.ComputeFinalTotal(intent.Total, intent.VehicleCount(), intent.Cancellation)
}

// Reprice recomputes an intent's unit figures from its base rate and the
// discount currently available, so client-supplied totals are never trusted.
func (e Engine) Reprice(intent models.BookingIntent, promo *models.PromoCode, grandPercent float64) (models.BookingIntent, error) {
	duration, err := e.ComputeDurationISO(intent.Dropoff, intent.Pickup)
	if err != nil {
		return models.BookingIntent{}, err
	}
	discount := e.SelectDiscount(promo, grandPercent)
	unit, err := e.ComputeUnitPrice(intent.Base, discount)
	if err != nil {
		return models.BookingIntent{}, err
	}

	intent.Duration = duration
	intent.Discount = unit.DiscountAbsolute
	intent.DiscountPercent = unit.DiscountPercent
	intent.Total = unit.DiscountedUnit
	intent.PromoCode = ""
	if discount != nil {
		intent.PromoCode = discount.Code
	}
	return intent, nil
}

// ParseAmount parses an amount coming from a form or a route parameter.
// Unlike a silent zero default, anything that is not a finite number fails.
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty amount: %w", domain.ErrInvalidAmount)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return 0, fmt.Errorf("amount %q: %w", raw, domain.ErrInvalidAmount)
	}
	return f, nil
}

// Round2 rounds to two decimals for presentation
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount keeps consistent decimal formatting for currency fields
func FormatAmount(v float64) string {
	return fmt.Sprintf("%.2f", Round2(v))
}

func clampPercent(p float64) float64 {
	switch {
	case !finite(p) || p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
