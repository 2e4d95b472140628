package types

// ChallengeStatus is the provider's terminal/non-terminal status for a 3DS
// challenge verification.
type ChallengeStatus string

const (
	ChallengeSuccess  ChallengeStatus = "Success"
	ChallengeDeclined ChallengeStatus = "Declined"
	ChallengePending  ChallengeStatus = "Pending"
	ChallengeFailed   ChallengeStatus = "Failed"
)

// ChallengeResult is returned by the provider when a 3DS challenge has been
// resolved. A nil result means there was no pending challenge for the session.
type ChallengeResult struct {
	TransactionID string          `json:"transaction_id"`
	Status        ChallengeStatus `json:"transaction_status"`
}

// PaymentOutcome is the provider's response to a payment submission.
type PaymentOutcome struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	RedirectURL   string `json:"redirect_url,omitempty"`
}

// PaymentMethod is an alternative payment method offered by the provider
// (wallets, bank transfer, cash networks).
type PaymentMethod struct {
	ID            string `json:"id"`
	PaymentMethod string `json:"payment_method"`
	Label         string `json:"label"`
	Category      string `json:"category,omitempty"`
	Priority      int    `json:"priority,omitempty"`
}

// CustomerCard is a card previously vaulted with the provider.
type CustomerCard struct {
	ID              string `json:"id"`
	CardScheme      string `json:"card_scheme"`
	LastFour        string `json:"last_four"`
	ExpirationYear  string `json:"expiration_year"`
	ExpirationMonth string `json:"expiration_month"`
	CardholderName  string `json:"cardholder_name"`
}

// CustomerCardsResponse wraps the provider's saved-cards listing.
type CustomerCardsResponse struct {
	Cards []CustomerCard `json:"cards"`
}

// SaveCardRequest vaults a card with the provider for later one-click use.
type SaveCardRequest struct {
	CardNumber      string `json:"card_number"`
	CVV             string `json:"cvv"`
	ExpirationYear  string `json:"expiration_year"`
	ExpirationMonth string `json:"expiration_month"`
	CardholderName  string `json:"cardholder_name"`
}
