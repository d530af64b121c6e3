package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// BookingIntent is the priced snapshot handed from search to checkout.
// Discount is an absolute amount; Total is the discounted unit total for a
// single vehicle without the cancellation add-on.
type BookingIntent struct {
	RateCardID      string  `json:"rateCardId,omitempty"`
	Name            string  `json:"name"`
	Location        string  `json:"location"`
	Country         string  `json:"country"`
	Type            string  `json:"type"`
	Dropoff         string  `json:"dropoff"`
	Pickup          string  `json:"pickup"`
	Duration        int     `json:"duration"`
	Base            float64 `json:"base"`
	PromoCode       string  `json:"promoCode,omitempty"`
	Discount        float64 `json:"discount"`
	DiscountPercent float64 `json:"discountPercent"`
	Total           float64 `json:"total"`
	Cancellation    bool    `json:"cancellation"`
	Vehicle         int     `json:"vehicle,omitempty"`
}

// VehicleCount returns the vehicle multiplier; absent means one
func (b *BookingIntent) VehicleCount() int {
	if b.Vehicle < 1 {
		return 1
	}
	return b.Vehicle
}

// Customer represents the person a booking is made for
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
}

// FullName joins first and last name
func (c Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// Vehicle represents one parked vehicle
type Vehicle struct {
	Registration Loose `json:"registration"`
	Make         Loose `json:"make"`
	Model        Loose `json:"model"`
	Color        Loose `json:"color"`

	raw map[string]json.RawMessage
}

var vehicleJSONFields = []looseField[Vehicle]{
	{"registration", kindString, func(v *Vehicle) *Loose { return &v.Registration }},
	{"make", kindString, func(v *Vehicle) *Loose { return &v.Make }},
	{"model", kindString, func(v *Vehicle) *Loose { return &v.Model }},
	{"color", kindString, func(v *Vehicle) *Loose { return &v.Color }},
}

func (v *Vehicle) UnmarshalJSON(data []byte) error {
	type plain Vehicle
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Vehicle(p)
	v.raw = raw
	return nil
}

// MarshalJSON writes the vehicle back with every key it was received with
func (v Vehicle) MarshalJSON() ([]byte, error) {
	out := copyRaw(v.raw, len(vehicleJSONFields))
	for _, f := range vehicleJSONFields {
		if err := mergeLoose(out, v.raw, f.key, *f.get(&v), f.kind); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// IsZero reports whether no vehicle field is set
func (v Vehicle) IsZero() bool {
	return strings.TrimSpace(string(v.Registration)) == "" &&
		strings.TrimSpace(string(v.Make)) == "" &&
		strings.TrimSpace(string(v.Model)) == "" &&
		strings.TrimSpace(string(v.Color)) == ""
}

// BookingDetails is the canonical form of an order's booking_details blob:
// the booking intent plus customer, flight and vehicle data. The API sends
// it either as an object or as a JSON-encoded string, and older orders carry
// a single flat vehicle instead of a vehicles list. UnmarshalJSON folds all
// of those shapes into this one record, and MarshalJSON writes it back in
// the shape and JSON types it arrived in, unknown keys included.
type BookingDetails struct {
	Name            Loose   `json:"name"`
	Location        Loose   `json:"location"`
	Country         Loose   `json:"country"`
	Type            Loose   `json:"type"`
	Dropoff         Loose   `json:"dropoff"`
	Pickup          Loose   `json:"pickup"`
	Duration        Loose   `json:"duration"`
	Base            Loose   `json:"base"`
	PromoCode       Loose   `json:"promoCode"`
	Discount        Loose   `json:"discount"`
	DiscountPercent Loose   `json:"discountPercent"`
	Total           Loose   `json:"total"`
	Cancellation    Loose   `json:"cancellation"`
	Vehicle         FlexInt `json:"vehicle"`

	FirstName Loose `json:"firstName"`
	LastName  Loose `json:"lastName"`
	Email     Loose `json:"email"`
	Contact   Loose `json:"contact"`

	DepartureTerminal Loose `json:"departureTerminal"`
	ArrivalTerminal   Loose `json:"arrivalTerminal"`
	DepartureFlightNo Loose `json:"departureFlightNo"`
	ArrivalFlightNo   Loose `json:"arrivalFlightNo"`

	Vehicles []Vehicle `json:"vehicles"`

	// every key as received; nil for details built in code
	raw map[string]json.RawMessage
	// received as a JSON-encoded string
	encoded bool
}

var detailJSONFields = []looseField[BookingDetails]{
	{"name", kindString, func(d *BookingDetails) *Loose { return &d.Name }},
	{"location", kindString, func(d *BookingDetails) *Loose { return &d.Location }},
	{"country", kindString, func(d *BookingDetails) *Loose { return &d.Country }},
	{"type", kindString, func(d *BookingDetails) *Loose { return &d.Type }},
	{"dropoff", kindString, func(d *BookingDetails) *Loose { return &d.Dropoff }},
	{"pickup", kindString, func(d *BookingDetails) *Loose { return &d.Pickup }},
	{"duration", kindNumber, func(d *BookingDetails) *Loose { return &d.Duration }},
	{"base", kindNumber, func(d *BookingDetails) *Loose { return &d.Base }},
	{"promoCode", kindString, func(d *BookingDetails) *Loose { return &d.PromoCode }},
	{"discount", kindNumber, func(d *BookingDetails) *Loose { return &d.Discount }},
	{"discountPercent", kindNumber, func(d *BookingDetails) *Loose { return &d.DiscountPercent }},
	{"total", kindNumber, func(d *BookingDetails) *Loose { return &d.Total }},
	{"cancellation", kindBool, func(d *BookingDetails) *Loose { return &d.Cancellation }},
	{"firstName", kindString, func(d *BookingDetails) *Loose { return &d.FirstName }},
	{"lastName", kindString, func(d *BookingDetails) *Loose { return &d.LastName }},
	{"email", kindString, func(d *BookingDetails) *Loose { return &d.Email }},
	{"contact", kindString, func(d *BookingDetails) *Loose { return &d.Contact }},
	{"departureTerminal", kindString, func(d *BookingDetails) *Loose { return &d.DepartureTerminal }},
	{"arrivalTerminal", kindString, func(d *BookingDetails) *Loose { return &d.ArrivalTerminal }},
	{"departureFlightNo", kindString, func(d *BookingDetails) *Loose { return &d.DepartureFlightNo }},
	{"arrivalFlightNo", kindString, func(d *BookingDetails) *Loose { return &d.ArrivalFlightNo }},
}

// modelledDetailKeys are the keys BookingDetails owns; anything else is
// carried through untouched
var modelledDetailKeys = func() map[string]bool {
	keys := map[string]bool{"vehicle": true, "vehicles": true}
	for _, f := range detailJSONFields {
		keys[f.key] = true
	}
	for _, f := range vehicleJSONFields {
		keys[f.key] = true
	}
	return keys
}()

func (d *BookingDetails) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*d = BookingDetails{}
		return nil
	}

	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			*d = BookingDetails{}
			return nil
		}
		if err := d.UnmarshalJSON([]byte(inner)); err != nil {
			return err
		}
		d.encoded = true
		return nil
	}

	type plain BookingDetails
	var aux struct {
		plain
		Registration Loose `json:"registration"`
		Make         Loose `json:"make"`
		Model        Loose `json:"model"`
		Color        Loose `json:"color"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = BookingDetails(aux.plain)
	d.raw = raw
	if len(d.Vehicles) == 0 {
		flat := Vehicle{Registration: aux.Registration, Make: aux.Make, Model: aux.Model, Color: aux.Color}
		if !flat.IsZero() {
			d.Vehicles = []Vehicle{flat}
		}
	}
	return nil
}

// MarshalJSON writes the details back over the keys they were received
// with. Unchanged values keep their original bytes, edited values keep
// their original JSON type, and keys never received stay out while empty.
func (d BookingDetails) MarshalJSON() ([]byte, error) {
	out := copyRaw(d.raw, len(detailJSONFields)+2)
	for _, f := range detailJSONFields {
		if err := mergeLoose(out, d.raw, f.key, *f.get(&d), f.kind); err != nil {
			return nil, err
		}
	}

	count := Loose(strconv.Itoa(int(d.Vehicle)))
	if prev, had := d.raw["vehicle"]; d.raw != nil && d.Vehicle == 0 {
		if text, _ := looseText(prev); !had || text == "" {
			count = ""
		}
	}
	if err := mergeLoose(out, d.raw, "vehicle", count, kindNumber); err != nil {
		return nil, err
	}

	// older orders keep their single vehicle as flat keys
	_, hadList := d.raw["vehicles"]
	flat := false
	for _, f := range vehicleJSONFields {
		if _, ok := d.raw[f.key]; ok {
			flat = true
		}
	}
	if flat && !hadList {
		var first Vehicle
		if len(d.Vehicles) > 0 {
			first = d.Vehicles[0]
		}
		for _, f := range vehicleJSONFields {
			if err := mergeLoose(out, d.raw, f.key, *f.get(&first), f.kind); err != nil {
				return nil, err
			}
		}
	}
	if d.raw == nil || hadList || len(d.Vehicles) > 1 || (!flat && len(d.Vehicles) > 0) {
		list := d.Vehicles
		if list == nil {
			list = []Vehicle{}
		}
		enc, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		out["vehicles"] = enc
	}

	body, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	if d.encoded {
		return json.Marshal(string(body))
	}
	return body, nil
}

// Rebase lays an edit over the persisted details: keys the edit does not
// model are carried from persisted unless the edit sent them too, and
// edited fields are written in persisted's JSON types and shape.
func (d BookingDetails) Rebase(persisted BookingDetails) BookingDetails {
	if persisted.raw == nil {
		return d
	}
	raw := copyRaw(persisted.raw, 0)
	for k, v := range d.raw {
		if !modelledDetailKeys[k] {
			raw[k] = v
		}
	}
	d.raw = raw
	d.encoded = persisted.encoded
	return d
}

// CustomerName joins first and last name from the details
func (d *BookingDetails) CustomerName() string {
	return Customer{FirstName: string(d.FirstName), LastName: string(d.LastName)}.FullName()
}

// DetailsFromIntent builds booking details for a new order
func DetailsFromIntent(intent BookingIntent, customer Customer, vehicles []Vehicle) BookingDetails {
	return BookingDetails{
		Name:            Loose(intent.Name),
		Location:        Loose(intent.Location),
		Country:         Loose(intent.Country),
		Type:            Loose(intent.Type),
		Dropoff:         Loose(intent.Dropoff),
		Pickup:          Loose(intent.Pickup),
		Duration:        looseFloat(float64(intent.Duration)),
		Base:            looseFloat(intent.Base),
		PromoCode:       Loose(intent.PromoCode),
		Discount:        looseFloat(intent.Discount),
		DiscountPercent: looseFloat(intent.DiscountPercent),
		Total:           looseFloat(intent.Total),
		Cancellation:    Loose(strconv.FormatBool(intent.Cancellation)),
		Vehicle:         FlexInt(intent.VehicleCount()),
		FirstName:       Loose(customer.FirstName),
		LastName:        Loose(customer.LastName),
		Email:           Loose(customer.Email),
		Contact:         Loose(customer.Contact),
		Vehicles:        freshVehicles(vehicles),
	}
}

// freshVehicles drops whatever extra keys a client sent with its vehicles
func freshVehicles(vehicles []Vehicle) []Vehicle {
	out := make([]Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, Vehicle{Registration: v.Registration, Make: v.Make, Model: v.Model, Color: v.Color})
	}
	return out
}
