// Package payment opens payments with a checkout provider and turns the
// provider's callbacks into payment outcomes.
package payment

import (
	"context"
	"fmt"
	"sort"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
)

// Gateway opens a payment for a pending checkout
type Gateway interface {
	Name() string
	CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error)
}

// Registry holds the configured gateways by name
type Registry struct {
	gateways map[string]Gateway
	fallback string
}

// NewRegistry creates a registry; the first gateway is the default
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		if g == nil {
			continue
		}
		if r.fallback == "" {
			r.fallback = g.Name()
		}
		r.gateways[g.Name()] = g
	}
	return r
}

// Get returns the named gateway, or the default one when name is empty
func (r *Registry) Get(name string) (Gateway, error) {
	if name == "" {
		name = r.fallback
	}
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("unknown payment gateway %q", name)
	}
	return g, nil
}

// Names lists the configured gateways
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToMinorUnits converts an amount to pence/cents for provider APIs
func ToMinorUnits(amount float64) int64 {
	if amount <= 0 {
		return 0
	}
	return int64(amount*100 + 0.5)
}
