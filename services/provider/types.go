package provider

import (
	"checkout-payment-api/models"
	"checkout-payment-api/types"
)

// Wire envelopes for the provider session endpoints.

type configureRequest struct {
	Customer  models.CustomerInfo `json:"customer"`
	ReturnURL string              `json:"return_url"`
}

type configureResponse struct {
	SecureToken string `json:"secure_token"`
}

type injectResponse struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

type challengeResponse struct {
	Transaction *types.ChallengeResult `json:"transaction,omitempty"`
}

type paymentMethodsResponse struct {
	Results []types.PaymentMethod `json:"results"`
}
