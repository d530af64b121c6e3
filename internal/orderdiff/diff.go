// Package orderdiff computes the field-level changes between two snapshots
// of the same order. An empty result means the save is a no-op: nothing is
// persisted and no customer is notified.
package orderdiff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/utils"
)

// Change is one field that differs between the two snapshots
type Change struct {
	Field string `json:"field"`
	Label string `json:"label"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// VehicleCountField is the synthetic field emitted when the vehicle list changes length
const VehicleCountField = "vehicles.count"

type fieldKind int

const (
	kindText fieldKind = iota
	kindDateTime
)

type field struct {
	key   string
	label string
	kind  fieldKind
	get   func(o *models.Order) string
}

// Compared in this order: order zone, contact zone, booking detail zone.
var orderFields = []field{
	{"amount", "Amount", kindText, func(o *models.Order) string { return string(o.Amount) }},
	{"status", "Status", kindText, func(o *models.Order) string { return strings.ToUpper(string(o.Status)) }},

	{"name", "Customer name", kindText, func(o *models.Order) string { return o.BookingDetails.CustomerName() }},
	{"email", "Email", kindText, func(o *models.Order) string { return string(o.BookingDetails.Email) }},
	{"contact", "Contact number", kindText, func(o *models.Order) string { return string(o.BookingDetails.Contact) }},

	{"dropoff", "Drop-off", kindDateTime, func(o *models.Order) string { return string(o.BookingDetails.Dropoff) }},
	{"pickup", "Pick-up", kindDateTime, func(o *models.Order) string { return string(o.BookingDetails.Pickup) }},
	{"departureTerminal", "Departure terminal", kindText, func(o *models.Order) string { return string(o.BookingDetails.DepartureTerminal) }},
	{"arrivalTerminal", "Arrival terminal", kindText, func(o *models.Order) string { return string(o.BookingDetails.ArrivalTerminal) }},
	{"departureFlightNo", "Departure flight", kindText, func(o *models.Order) string { return string(o.BookingDetails.DepartureFlightNo) }},
	{"arrivalFlightNo", "Arrival flight", kindText, func(o *models.Order) string { return string(o.BookingDetails.ArrivalFlightNo) }},
}

type vehicleField struct {
	key   string
	label string
	get   func(v models.Vehicle) string
}

var vehicleFields = []vehicleField{
	{"registration", "Registration", func(v models.Vehicle) string { return string(v.Registration) }},
	{"make", "Make", func(v models.Vehicle) string { return string(v.Make) }},
	{"model", "Model", func(v models.Vehicle) string { return string(v.Model) }},
	{"color", "Colour", func(v models.Vehicle) string { return string(v.Color) }},
}

// Diff returns the changes from original to current in a fixed order. It is
// a pure function of its two arguments.
func Diff(original, current models.Order) []Change {
	changes := []Change{}

	for _, f := range orderFields {
		from := normalize(f.get(&original), f.kind)
		to := normalize(f.get(&current), f.kind)
		if c, ok := compare(f.key, f.label, from, to); ok {
			changes = append(changes, c)
		}
	}

	return append(changes, diffVehicles(original.BookingDetails.Vehicles, current.BookingDetails.Vehicles)...)
}

// HasChanges reports whether a save would change anything
func HasChanges(original, current models.Order) bool {
	return len(Diff(original, current)) > 0
}

// diffVehicles compares positionally: index i against index i, up to the
// longer list. A missing vehicle compares as all-empty fields.
func diffVehicles(from, to []models.Vehicle) []Change {
	var changes []Change

	if len(from) != len(to) {
		changes = append(changes, Change{
			Field: VehicleCountField,
			Label: "Number of vehicles",
			From:  strconv.Itoa(len(from)),
			To:    strconv.Itoa(len(to)),
		})
	}

	n := max(len(from), len(to))
	for i := 0; i < n; i++ {
		var a, b models.Vehicle
		if i < len(from) {
			a = from[i]
		}
		if i < len(to) {
			b = to[i]
		}
		for _, f := range vehicleFields {
			key := fmt.Sprintf("vehicles[%d].%s", i, f.key)
			label := fmt.Sprintf("Vehicle %d %s", i+1, f.label)
			if c, ok := compare(key, label, normalize(f.get(a), kindText), normalize(f.get(b), kindText)); ok {
				changes = append(changes, c)
			}
		}
	}
	return changes
}

func compare(key, label, from, to string) (Change, bool) {
	if from == to {
		return Change{}, false
	}
	if from == "" && to == "" {
		return Change{}, false
	}
	return Change{Field: key, Label: label, From: from, To: to}, true
}

func normalize(v string, kind fieldKind) string {
	v = strings.TrimSpace(v)
	if kind == kindDateTime {
		return utils.CanonicalMinute(v)
	}
	return v
}
