package orderdiff

import (
	"encoding/json"
	"testing"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
)

func mustOrder(t *testing.T, raw string) models.Order {
	t.Helper()
	var o models.Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	return o
}

const sampleOrder = `{
	"id": 41,
	"amount": "59.00",
	"status": "ACCEPTED",
	"user_email": "jo@example.com",
	"booking_details": {
		"name": "Meet & Greet",
		"firstName": "Jo",
		"lastName": "Bloggs",
		"email": "jo@example.com",
		"contact": "07700900123",
		"dropoff": "2024-01-30T09:00:00.000Z",
		"pickup": "2024-02-02T09:00:00.000Z",
		"departureTerminal": "T5",
		"arrivalTerminal": "T5",
		"departureFlightNo": "BA123",
		"arrivalFlightNo": "BA124",
		"vehicles": [{"registration": "AB12 CDE", "make": "Ford", "model": "Focus", "color": "Blue"}]
	}
}`

func TestDiffOfSnapshotWithItselfIsEmpty(t *testing.T) {
	o := mustOrder(t, sampleOrder)
	if got := Diff(o, o); len(got) != 0 {
		t.Fatalf("expected no changes, got %+v", got)
	}
	if HasChanges(o, o) {
		t.Fatalf("HasChanges should be false")
	}
}

func TestDiffTreatsNullAndEmptyAsEqual(t *testing.T) {
	a := mustOrder(t, `{"booking_details": {"pickup": null}}`)
	b := mustOrder(t, `{"booking_details": {"pickup": ""}}`)
	if got := Diff(a, b); len(got) != 0 {
		t.Fatalf("expected no changes, got %+v", got)
	}
}

func TestDiffToleratesNumberVersusString(t *testing.T) {
	a := mustOrder(t, `{"amount": 5, "booking_details": {"contact": 7700900123}}`)
	b := mustOrder(t, `{"amount": "5", "booking_details": {"contact": "7700900123"}}`)
	if got := Diff(a, b); len(got) != 0 {
		t.Fatalf("expected no changes, got %+v", got)
	}
}

func TestDiffIgnoresStatusCase(t *testing.T) {
	a := mustOrder(t, `{"status": "accepted"}`)
	b := mustOrder(t, `{"status": " ACCEPTED"}`)
	if got := Diff(a, b); len(got) != 0 {
		t.Fatalf("expected no changes, got %+v", got)
	}

	c := mustOrder(t, `{"status": "cancelled"}`)
	got := Diff(a, c)
	if len(got) != 1 || got[0].From != "ACCEPTED" || got[0].To != "CANCELLED" {
		t.Fatalf("unexpected changes %+v", got)
	}
}

func TestDiffNormalizesDatetimesToMinute(t *testing.T) {
	a := mustOrder(t, `{"booking_details": {"dropoff": "2024-01-30T09:00:00.000Z"}}`)
	b := mustOrder(t, `{"booking_details": {"dropoff": "2024-01-30T09:00"}}`)
	if got := Diff(a, b); len(got) != 0 {
		t.Fatalf("expected no changes, got %+v", got)
	}

	c := mustOrder(t, `{"booking_details": {"dropoff": "2024-01-30T10:15"}}`)
	got := Diff(a, c)
	if len(got) != 1 {
		t.Fatalf("expected one change, got %+v", got)
	}
	want := Change{Field: "dropoff", Label: "Drop-off", From: "2024-01-30 09:00", To: "2024-01-30 10:15"}
	if got[0] != want {
		t.Fatalf("got %+v want %+v", got[0], want)
	}
}

func TestDiffOrderingAcrossZones(t *testing.T) {
	original := mustOrder(t, sampleOrder)
	current := mustOrder(t, sampleOrder)
	current.Amount = "64.00"
	current.Status = models.OrderStatusCancelled
	current.BookingDetails.Contact = "07700900999"
	current.BookingDetails.ArrivalFlightNo = "BA999"

	got := Diff(original, current)
	wantFields := []string{"amount", "status", "contact", "arrivalFlightNo"}
	if len(got) != len(wantFields) {
		t.Fatalf("got %d changes want %d: %+v", len(got), len(wantFields), got)
	}
	for i, f := range wantFields {
		if got[i].Field != f {
			t.Fatalf("change %d: got field %s want %s", i, got[i].Field, f)
		}
	}
	if got[0].From != "59.00" || got[0].To != "64.00" {
		t.Fatalf("unexpected amount change %+v", got[0])
	}
}

func TestDiffCustomerName(t *testing.T) {
	original := mustOrder(t, sampleOrder)
	current := mustOrder(t, sampleOrder)
	current.BookingDetails.LastName = "Smith"

	got := Diff(original, current)
	if len(got) != 1 || got[0].Field != "name" || got[0].From != "Jo Bloggs" || got[0].To != "Jo Smith" {
		t.Fatalf("unexpected changes %+v", got)
	}
}

func TestDiffVehicleAdded(t *testing.T) {
	v1 := models.Vehicle{Registration: "AB12 CDE", Make: "Ford", Model: "Focus", Color: "Blue"}
	v2 := models.Vehicle{Registration: "XY34 ZZZ", Make: "Kia"}

	original := models.Order{BookingDetails: models.BookingDetails{Vehicles: []models.Vehicle{v1}}}
	current := models.Order{BookingDetails: models.BookingDetails{Vehicles: []models.Vehicle{v1, v2}}}

	got := Diff(original, current)
	if len(got) != 3 {
		t.Fatalf("expected count record plus two fields of vehicle 2, got %+v", got)
	}
	if got[0].Field != VehicleCountField || got[0].From != "1" || got[0].To != "2" {
		t.Fatalf("first record should be the vehicle count, got %+v", got[0])
	}
	for _, c := range got[1:] {
		if c.Field != "vehicles[1].registration" && c.Field != "vehicles[1].make" {
			t.Fatalf("unexpected record %+v", c)
		}
		if c.From != "" {
			t.Fatalf("new vehicle fields should change from empty, got %+v", c)
		}
	}
}

func TestDiffVehicleRemovedAndEdited(t *testing.T) {
	v1 := models.Vehicle{Registration: "AB12 CDE"}
	v2 := models.Vehicle{Registration: "XY34 ZZZ"}

	original := models.Order{BookingDetails: models.BookingDetails{Vehicles: []models.Vehicle{v1, v2}}}
	current := models.Order{BookingDetails: models.BookingDetails{Vehicles: []models.Vehicle{{Registration: "AB12 CDF"}}}}

	got := Diff(original, current)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %+v", got)
	}
	if got[1].Field != "vehicles[0].registration" || got[1].To != "AB12 CDF" {
		t.Fatalf("unexpected record %+v", got[1])
	}
	if got[2].Field != "vehicles[1].registration" || got[2].From != "XY34 ZZZ" || got[2].To != "" {
		t.Fatalf("unexpected record %+v", got[2])
	}
}

func TestDiffFlatVehicleMatchesVehiclesList(t *testing.T) {
	flat := mustOrder(t, `{"booking_details": "{\"registration\":\"AB12 CDE\",\"make\":\"Ford\"}"}`)
	list := mustOrder(t, `{"booking_details": {"vehicles":[{"registration":"AB12 CDE","make":"Ford"}]}}`)
	if got := Diff(flat, list); len(got) != 0 {
		t.Fatalf("expected no changes, got %+v", got)
	}
}
