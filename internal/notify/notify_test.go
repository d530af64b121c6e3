package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/orderdiff"
)

var sampleChanges = []orderdiff.Change{
	{Field: "amount", Label: "Amount", From: "59.00", To: "64.00"},
	{Field: "departureFlightNo", Label: "Departure flight", From: "", To: "<BA123>"},
}

func TestChangesHTML(t *testing.T) {
	got := ChangesHTML(sampleChanges)
	want := "<ul>" +
		"<li><strong>Amount</strong>: 59.00 &rarr; 64.00</li>" +
		"<li><strong>Departure flight</strong>: N/A &rarr; &lt;BA123&gt;</li>" +
		"</ul>"
	if got != want {
		t.Fatalf("got %s\nwant %s", got, want)
	}
}

func TestTemplateParams(t *testing.T) {
	p := TemplateParams(OrderChanged{
		Email:         "jo@example.com",
		UserName:      "Jo Bloggs",
		OrderID:       "41",
		Changes:       sampleChanges,
		PreviousTotal: "59.00",
		NewTotal:      "64.00",
	})
	if p["email"] != "jo@example.com" || p["user_name"] != "Jo Bloggs" || p["order_id"] != "41" {
		t.Fatalf("unexpected params %v", p)
	}
	if p["previous_total"] != "59.00" || p["new_total"] != "64.00" {
		t.Fatalf("unexpected totals %v", p)
	}
	if !strings.HasPrefix(p["changes_list"], "<ul>") {
		t.Fatalf("changes_list should be HTML, got %q", p["changes_list"])
	}
}

func TestTemplateProviderPostsParams(t *testing.T) {
	var got templateSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tp := NewTemplateProvider(TemplateProviderConfig{Endpoint: srv.URL, ServiceID: "svc", TemplateID: "tpl", UserID: "pub"})
	err := tp.NotifyOrderChanged(context.Background(), OrderChanged{Email: "jo@example.com", OrderID: "41", Changes: sampleChanges})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ServiceID != "svc" || got.TemplateID != "tpl" || got.UserID != "pub" {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.TemplateParams["email"] != "jo@example.com" || got.TemplateParams["changes_list"] == "" {
		t.Fatalf("unexpected params %+v", got.TemplateParams)
	}
}

func TestTemplateProviderFailureIsNotificationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tp := NewTemplateProvider(TemplateProviderConfig{Endpoint: srv.URL})
	err := tp.NotifyOrderChanged(context.Background(), OrderChanged{Email: "jo@example.com", OrderID: "41"})
	if !domain.IsNotification(err) {
		t.Fatalf("expected notification error, got %v", err)
	}

	if err := tp.NotifyOrderChanged(context.Background(), OrderChanged{OrderID: "41"}); !domain.IsNotification(err) {
		t.Fatalf("missing recipient should be a notification error, got %v", err)
	}
}

func TestSMTPBuildMessage(t *testing.T) {
	s := NewSMTPNotifier(SMTPConfig{Host: "smtp.example.com", From: "bookings@example.com"})
	m, err := s.buildMessage(OrderChanged{Email: "jo@example.com", UserName: "Jo", OrderID: "41", Changes: sampleChanges, NewTotal: "64.00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "jo@example.com") || !strings.Contains(out, "booking #41 has been updated") {
		t.Fatalf("unexpected message:\n%s", out)
	}

	if _, err := s.buildMessage(OrderChanged{OrderID: "41"}); err == nil {
		t.Fatalf("expected error for missing recipient")
	}
}

func TestSMTPSendFailureIsNotificationError(t *testing.T) {
	s := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "bookings@example.com"})
	err := s.NotifyOrderChanged(context.Background(), OrderChanged{Email: "jo@example.com", OrderID: "41"})
	if !domain.IsNotification(err) {
		t.Fatalf("expected notification error, got %v", err)
	}
}
