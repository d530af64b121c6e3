// Package apiclient talks to the remote PHP JSON API that owns rate cards,
// promo codes, the grand discount and orders.
//
// Reads go through the retry policy. Writes are sent once: a failed write is
// reported to the caller, who keeps its local state and may resubmit.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/domain"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/models"
	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/retry"
)

// Script paths on the remote API
const (
	pathParkings          = "/parkings.php"
	pathPromoCodes        = "/promo_codes.php"
	pathGrandDiscount     = "/grand_discount.php"
	pathOrders            = "/orders.php"
	pathUpdateOrderStatus = "/update_order_status.php"
)

// Client is a typed client for the remote API
type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      retry.Policy
}

// NewClient creates a new API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: retry.Default(),
	}
}

// WithRetry replaces the read retry policy
func (c *Client) WithRetry(p retry.Policy) *Client {
	c.retry = p
	return c
}

// envelope is the {ok, data, error} wrapper most scripts answer with
type envelope struct {
	OK      *bool           `json:"ok"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (e envelope) errorMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// FetchRateCards returns every rate card
func (c *Client) FetchRateCards(ctx context.Context) ([]models.RateCard, error) {
	return retry.Value(ctx, c.retry, "fetch rate cards", func(ctx context.Context) ([]models.RateCard, error) {
		var cards []models.RateCard
		if err := c.getJSON(ctx, "fetch rate cards", pathParkings, nil, &cards); err != nil {
			return nil, err
		}
		return cards, nil
	})
}

// FetchPromoCodes returns every promo code with its usage counters
func (c *Client) FetchPromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	return retry.Value(ctx, c.retry, "fetch promo codes", func(ctx context.Context) ([]models.PromoCode, error) {
		var codes []models.PromoCode
		if err := c.getJSON(ctx, "fetch promo codes", pathPromoCodes, nil, &codes); err != nil {
			return nil, err
		}
		return codes, nil
	})
}

// FetchGrandDiscount returns the site-wide discount percent. The script
// answers with a bare decimal; an empty body means no discount.
func (c *Client) FetchGrandDiscount(ctx context.Context) (float64, error) {
	const op = "fetch grand discount"
	return retry.Value(ctx, c.retry, op, func(ctx context.Context) (float64, error) {
		body, err := c.do(ctx, op, http.MethodGet, pathGrandDiscount, nil, nil)
		if err != nil {
			return 0, err
		}
		return parseGrandDiscount(op, body)
	})
}

// UpdateGrandDiscount sets the site-wide discount percent
func (c *Client) UpdateGrandDiscount(ctx context.Context, percent float64) error {
	payload := map[string]interface{}{
		"action":          "update",
		"discount_number": percent,
	}
	return c.postJSON(ctx, "update grand discount", pathGrandDiscount, payload, nil)
}

// DeleteGrandDiscount removes the site-wide discount
func (c *Client) DeleteGrandDiscount(ctx context.Context) error {
	payload := map[string]string{"action": "delete"}
	return c.postJSON(ctx, "delete grand discount", pathGrandDiscount, payload, nil)
}

// FetchOrders returns all orders
func (c *Client) FetchOrders(ctx context.Context) ([]models.Order, error) {
	return retry.Value(ctx, c.retry, "fetch orders", func(ctx context.Context) ([]models.Order, error) {
		var orders []models.Order
		if err := c.getJSON(ctx, "fetch orders", pathOrders, nil, &orders); err != nil {
			return nil, err
		}
		return orders, nil
	})
}

// FetchOrder returns one order by id
func (c *Client) FetchOrder(ctx context.Context, orderID string) (*models.Order, error) {
	op := fmt.Sprintf("fetch order %s", orderID)
	return retry.Value(ctx, c.retry, op, func(ctx context.Context) (*models.Order, error) {
		var order models.Order
		if err := c.getJSON(ctx, op, pathOrders, url.Values{"id": {orderID}}, &order); err != nil {
			return nil, err
		}
		return &order, nil
	})
}

// CreateOrder persists a new order and returns its id
func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (string, error) {
	req.Action = "create"
	var created struct {
		ID models.Loose `json:"id"`
	}
	if err := c.postJSON(ctx, "create order", pathOrders, req, &created); err != nil {
		return "", err
	}
	return created.ID.String(), nil
}

// UpdateOrderDetails persists an admin edit of an order
func (c *Client) UpdateOrderDetails(ctx context.Context, req models.UpdateOrderDetailsRequest) error {
	req.Action = "update_details"
	return c.postJSON(ctx, fmt.Sprintf("update order %s", req.OrderID), pathOrders, req, nil)
}

// UpdateOrderStatus changes an order's status
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	req := models.UpdateOrderStatusRequest{OrderID: orderID, Status: status}
	return c.postJSON(ctx, fmt.Sprintf("update order %s status", orderID), pathUpdateOrderStatus, req, nil)
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, dest interface{}) error {
	body, err := c.do(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decodeData(op, body, dest)
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, dest interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", op, err)
	}
	body, err := c.do(ctx, op, http.MethodPost, path, nil, jsonData)
	if err != nil {
		return err
	}
	return decodeData(op, body, dest)
}

// do sends one request and maps transport and status failures onto the
// error taxonomy: transport errors and 5xx are NetworkError, 4xx is APIError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, domain.NetworkError{Op: op, StatusCode: resp.StatusCode}
	case resp.StatusCode >= http.StatusBadRequest:
		var env envelope
		_ = json.Unmarshal(body, &env)
		msg := env.errorMessage()
		if msg == "" {
			msg = fmt.Sprintf("%s failed with status %d", op, resp.StatusCode)
		}
		return nil, domain.APIError{Op: op, StatusCode: resp.StatusCode, Msg: msg}
	}
	return body, nil
}

// decodeData accepts either a bare JSON value or an {ok, data, error}
// envelope. ok:false becomes an APIError carrying the server message.
func decodeData(op string, body []byte, dest interface{}) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		if dest == nil {
			return nil
		}
		return domain.APIError{Op: op, Msg: fmt.Sprintf("%s: empty response", op)}
	}

	raw := json.RawMessage(body)
	if body[0] == '{' {
		var env envelope
		if err := json.Unmarshal(body, &env); err == nil && env.OK != nil {
			if !*env.OK {
				msg := env.errorMessage()
				if msg == "" {
					msg = fmt.Sprintf("%s was rejected", op)
				}
				return domain.APIError{Op: op, Msg: msg}
			}
			raw = env.Data
		}
	}

	if dest == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func parseGrandDiscount(op string, body []byte) (float64, error) {
	s := strings.TrimSpace(string(body))
	if s == "" || s == "null" {
		return 0, nil
	}
	if f, err := strconv.ParseFloat(strings.Trim(s, `"`), 64); err == nil {
		return f, nil
	}

	var raw json.RawMessage
	if err := decodeData(op, body, &raw); err != nil {
		return 0, err
	}
	var amount models.Amount
	if err := json.Unmarshal(raw, &amount); err == nil {
		return float64(amount), nil
	}
	var wrapped struct {
		Discount models.Amount `json:"discount"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return 0, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return float64(wrapped.Discount), nil
}
