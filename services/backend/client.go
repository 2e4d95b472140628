package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"checkout-payment-api/models"
)

const RequestTimeout = 15 * time.Second

// Client consumes the order-management backend: fresh reads of the active
// customer and active order, plus the single completion mutation. Reads are
// never cached; each call hits the backend.
type Client struct {
	baseURL      string
	channelToken string
	client       *http.Client
}

func NewClient(baseURL, channelToken string) *Client {
	return &Client{
		baseURL:      baseURL,
		channelToken: channelToken,
		client: &http.Client{
			Timeout: RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode backend request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build backend request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.channelToken != "" {
		req.Header.Set("Channel-Token", c.channelToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return errNotFound
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backend response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode backend response: %v", err)
		}
	}
	return nil
}

var errNotFound = fmt.Errorf("backend: not found")

// ActiveCustomer fetches the signed-in customer. (nil, nil) when there is
// no active customer for the session.
func (c *Client) ActiveCustomer(ctx context.Context) (*models.Customer, error) {
	var customer models.Customer
	if err := c.do(ctx, http.MethodGet, "/active-customer", nil, &customer); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	if customer.FirstName == "" && customer.EmailAddress == "" {
		return nil, nil
	}
	return &customer, nil
}

// ActiveOrder fetches the order being checked out. (nil, nil) when there is
// no active order.
func (c *Client) ActiveOrder(ctx context.Context) (*models.Order, error) {
	var order models.Order
	if err := c.do(ctx, http.MethodGet, "/active-order", nil, &order); err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	if order.Code == "" {
		return nil, nil
	}
	return &order, nil
}

// AddPaymentToOrder submits the completion mutation. The response is the
// backend's tagged result: the order, or one of the typed rejections. The
// caller sends exactly one of these per checkout session.
func (c *Client) AddPaymentToOrder(ctx context.Context, method string, metadata map[string]interface{}) (*models.AddPaymentResult, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	body := map[string]interface{}{
		"input": map[string]interface{}{
			"method":   method,
			"metadata": metadata,
		},
	}

	var result models.AddPaymentResult
	if err := c.do(ctx, http.MethodPost, "/order/add-payment", body, &result); err != nil {
		return nil, err
	}
	if result.Type == "" {
		return nil, fmt.Errorf("backend add-payment response missing result type")
	}
	return &result, nil
}
