package checkout

import (
	"sync"

	"checkout-payment-api/models"
)

// PaymentMethodSelector holds the multi-method variant's two independently
// settable selections: a saved card and a generic provider method. Both may
// be set at once; Resolve applies the precedence rule: the stored card
// wins. Same selections always resolve to the same request shape.
type PaymentMethodSelector struct {
	mu             sync.Mutex
	selectedCard   string
	selectedMethod string
}

func NewPaymentMethodSelector() *PaymentMethodSelector {
	return &PaymentMethodSelector{}
}

func (s *PaymentMethodSelector) SelectCard(cardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedCard = cardID
}

func (s *PaymentMethodSelector) SelectMethod(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedMethod = method
}

func (s *PaymentMethodSelector) DeselectCard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedCard = ""
}

func (s *PaymentMethodSelector) DeselectMethod() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedMethod = ""
}

// Resolve returns the effective selection. ok is false when nothing is
// selected; pay then requires the caller to provide a selection itself.
func (s *PaymentMethodSelector) Resolve() (models.PaymentSelection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedCard != "" {
		return models.SelectStoredCard(s.selectedCard), true
	}
	if s.selectedMethod != "" {
		return models.SelectProviderMethod(s.selectedMethod), true
	}
	return models.PaymentSelection{}, false
}
