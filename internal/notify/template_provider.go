package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
)

// TemplateProviderConfig identifies the template at the email provider
type TemplateProviderConfig struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	UserID     string
}

// TemplateProvider sends notifications through a hosted transactional
// email template
type TemplateProvider struct {
	cfg        TemplateProviderConfig
	httpClient *http.Client
}

// NewTemplateProvider creates a template provider notifier
func NewTemplateProvider(cfg TemplateProviderConfig) *TemplateProvider {
	return &TemplateProvider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type templateSendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// NotifyOrderChanged posts the template parameters to the provider
func (tp *TemplateProvider) NotifyOrderChanged(ctx context.Context, msg OrderChanged) error {
	if msg.Email == "" {
		return domain.NotificationError{Channel: "template", Err: fmt.Errorf("order %s has no recipient email", msg.OrderID)}
	}

	jsonData, err := json.Marshal(templateSendRequest{
		ServiceID:      tp.cfg.ServiceID,
		TemplateID:     tp.cfg.TemplateID,
		UserID:         tp.cfg.UserID,
		TemplateParams: TemplateParams(msg),
	})
	if err != nil {
		return domain.NotificationError{Channel: "template", Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tp.cfg.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return domain.NotificationError{Channel: "template", Err: fmt.Errorf("failed to create HTTP request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := tp.httpClient.Do(httpReq)
	if err != nil {
		return domain.NotificationError{Channel: "template", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.NotificationError{Channel: "template", Err: fmt.Errorf("provider returned status %d", resp.StatusCode)}
	}

	log.Printf("Change notification for order %s sent to %s", msg.OrderID, msg.Email)
	return nil
}
