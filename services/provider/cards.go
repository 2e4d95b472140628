package provider

import (
	"context"
	"net/http"

	"checkout-payment-api/types"
)

// GetCustomerPaymentMethods lists the alternative payment methods available
// for the session's customer.
func (c *Client) GetCustomerPaymentMethods(ctx context.Context) ([]types.PaymentMethod, error) {
	var resp paymentMethodsResponse
	if err := c.do(ctx, http.MethodGet, "/payment-methods", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// GetCustomerCards lists the customer's vaulted cards. The provider may
// answer with no card store at all for guest customers; that surfaces as a
// nil response, not an error.
func (c *Client) GetCustomerCards(ctx context.Context) (*types.CustomerCardsResponse, error) {
	var resp types.CustomerCardsResponse
	if err := c.do(ctx, http.MethodGet, "/cards", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Cards) == 0 {
		return nil, nil
	}
	return &resp, nil
}

// SaveCustomerCard vaults a card for later one-click payments.
func (c *Client) SaveCustomerCard(ctx context.Context, card types.SaveCardRequest) error {
	return c.do(ctx, http.MethodPost, "/cards", card, nil)
}

// RemoveCustomerCard deletes a vaulted card.
func (c *Client) RemoveCustomerCard(ctx context.Context, cardID string) error {
	return c.do(ctx, http.MethodDelete, "/cards/"+cardID, nil, nil)
}
