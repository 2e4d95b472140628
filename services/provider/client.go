package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"checkout-payment-api/models"
	"checkout-payment-api/types"
)

const (
	StageEndpoint      = "https://stage.tonder.io/api/v1"
	ProductionEndpoint = "https://app.tonder.io/api/v1"
	RequestTimeout     = 30 * time.Second
)

// Client talks to the payment-provider session API. One Client is owned
// exclusively by one checkout session and is released exactly once via
// Teardown.
type Client struct {
	apiKey      string
	environment string
	returnURL   string
	client      *http.Client
	transport   *http.Transport

	mu          sync.Mutex
	secureToken string
	closed      bool
}

func NewClient(apiKey, environment, returnURL string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		apiKey:      apiKey,
		environment: environment,
		returnURL:   returnURL,
		transport:   transport,
		client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: transport,
		},
	}
}

func (c *Client) baseURL() string {
	if c.environment == "production" {
		return ProductionEndpoint
	}
	return StageEndpoint
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// do sends one JSON request and decodes the response into out (when out is
// non-nil). All provider calls flow through here.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.isClosed() {
		return models.ErrSessionClosed
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode provider request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build provider request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode provider response: %v", err)
		}
	}

	return nil
}

// ConfigureCheckout registers the customer with the provider and stores the
// session token used by the remaining calls.
func (c *Client) ConfigureCheckout(ctx context.Context, customer models.CustomerInfo) error {
	var resp configureResponse
	body := configureRequest{
		Customer:  customer,
		ReturnURL: c.returnURL,
	}
	if err := c.do(ctx, http.MethodPost, "/checkout/configure", body, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	c.secureToken = resp.SecureToken
	c.mu.Unlock()
	return nil
}

// InjectCheckout asks the provider to initialize the widget session and
// blocks until the provider reports it ready.
func (c *Client) InjectCheckout(ctx context.Context) error {
	var resp injectResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/init", c.tokenBody(), &resp); err != nil {
		return err
	}
	if !resp.Ready {
		return fmt.Errorf("provider widget reported not ready: %s", resp.Message)
	}
	return nil
}

// Verify3DSTransaction asks the provider for the outcome of a pending 3DS
// challenge. A nil result means no challenge is associated with the session.
func (c *Client) Verify3DSTransaction(ctx context.Context) (*types.ChallengeResult, error) {
	var resp challengeResponse
	if err := c.do(ctx, http.MethodGet, "/transactions/3ds-status", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Transaction == nil {
		return nil, nil
	}
	return resp.Transaction, nil
}

// Payment submits the payment request built by the session manager.
func (c *Client) Payment(ctx context.Context, req models.ProviderPaymentRequest) (*types.PaymentOutcome, error) {
	var outcome types.PaymentOutcome
	if err := c.do(ctx, http.MethodPost, "/checkout/pay", req, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// Teardown releases the widget session. Callable from any state, including
// with calls still in flight; it never fails and leaves the client unusable.
func (c *Client) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.secureToken = ""
	c.mu.Unlock()

	c.transport.CloseIdleConnections()
}

func (c *Client) tokenBody() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]string{"secure_token": c.secureToken}
}
