// Package notify tells customers that an admin changed their booking.
// Notifications are best-effort: every failure comes back as a
// domain.NotificationError and never blocks the save that triggered it.
package notify

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/orderdiff"
)

// OrderChanged is the content of an order change notification
type OrderChanged struct {
	Email         string
	UserName      string
	OrderID       string
	Changes       []orderdiff.Change
	PreviousTotal string
	NewTotal      string
}

// Notifier sends order change notifications
type Notifier interface {
	NotifyOrderChanged(ctx context.Context, msg OrderChanged) error
}

const emptyValue = "N/A"

// ChangesHTML renders the change list as an HTML list. Values are escaped
// and empty values show as N/A.
func ChangesHTML(changes []orderdiff.Change) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, c := range changes {
		fmt.Fprintf(&b, "<li><strong>%s</strong>: %s &rarr; %s</li>",
			html.EscapeString(c.Label), displayValue(c.From), displayValue(c.To))
	}
	b.WriteString("</ul>")
	return b.String()
}

// TemplateParams flattens a notification into the parameter object the
// email template expects
func TemplateParams(msg OrderChanged) map[string]string {
	return map[string]string{
		"email":          msg.Email,
		"user_name":      msg.UserName,
		"order_id":       msg.OrderID,
		"changes_list":   ChangesHTML(msg.Changes),
		"previous_total": msg.PreviousTotal,
		"new_total":      msg.NewTotal,
	}
}

func displayValue(v string) string {
	if strings.TrimSpace(v) == "" {
		return emptyValue
	}
	return html.EscapeString(v)
}

// LogNotifier only logs notifications. Used when no email channel is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyOrderChanged(_ context.Context, msg OrderChanged) error {
	log.Printf("Order %s changed (%d changes), no email channel configured for %s", msg.OrderID, len(msg.Changes), msg.Email)
	return nil
}
