package notify

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/wneessen/go-mail"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
)

// SMTPConfig holds the mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPNotifier sends notifications as HTML email over SMTP
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTPNotifier creates an SMTP notifier
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPNotifier{cfg: cfg}
}

// NotifyOrderChanged renders and sends the change email
func (s *SMTPNotifier) NotifyOrderChanged(ctx context.Context, msg OrderChanged) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return domain.NotificationError{Channel: "smtp", Err: err}
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return domain.NotificationError{Channel: "smtp", Err: err}
	}

	log.Println("Sending change notification to", msg.Email)
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return domain.NotificationError{Channel: "smtp", Err: err}
	}
	return nil
}

func (s *SMTPNotifier) buildMessage(msg OrderChanged) (*mail.Msg, error) {
	if msg.Email == "" {
		return nil, fmt.Errorf("order %s has no recipient email", msg.OrderID)
	}

	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, err
	}
	if err := m.To(msg.Email); err != nil {
		return nil, err
	}
	m.Subject(fmt.Sprintf("Your parking booking #%s has been updated", msg.OrderID))
	m.SetBodyString(mail.TypeTextHTML, renderEmailHTML(msg))
	return m, nil
}

func renderEmailHTML(msg OrderChanged) string {
	p := TemplateParams(msg)
	name := p["user_name"]
	if name == "" {
		name = "customer"
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>Booking updated</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Your booking #%s has been updated</h2>
		<p>Hello %s,</p>
		<p>The following details of your parking booking were changed:</p>
		%s
		<p>Previous total: <strong>%s</strong><br>New total: <strong>%s</strong></p>
	</div>
</body>
</html>`,
		html.EscapeString(p["order_id"]), html.EscapeString(name), p["changes_list"], displayValue(p["previous_total"]), displayValue(p["new_total"]))
}
