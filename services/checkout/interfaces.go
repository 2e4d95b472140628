package checkout

import (
	"context"

	"checkout-payment-api/models"
	"checkout-payment-api/types"
)

// SessionManager is the provider session state machine driven by the
// orchestrator.
type SessionManager interface {
	Configure(ctx context.Context, customer models.CustomerInfo) error
	Inject(ctx context.Context) error
	BeginChallengeWatch()
	VerifyChallenge(ctx context.Context) (*types.ChallengeResult, error)
	Pay(ctx context.Context, selection models.PaymentSelection, payload models.CheckoutPayload) (*types.PaymentOutcome, error)
	Teardown()
	State() models.SessionState
}

// BackendAPI is the order-management backend surface the orchestrator
// consumes: two fresh reads and one completion mutation.
type BackendAPI interface {
	ActiveCustomer(ctx context.Context) (*models.Customer, error)
	ActiveOrder(ctx context.Context) (*models.Order, error)
	AddPaymentToOrder(ctx context.Context, method string, metadata map[string]interface{}) (*models.AddPaymentResult, error)
}

// SessionStore persists the checkout session audit trail: state changes,
// the active-order marker, and the terminal completion result.
type SessionStore interface {
	RecordSessionState(sessionID string, state models.SessionState) error
	SetActiveOrderMarker(sessionID, orderCode string) error
	ClearActiveOrderMarker(sessionID string) error
	SaveCompletionResult(sessionID, trigger string, result models.OrderCompletionResult) error
}

// CardAPI is the provider's saved-card and payment-method surface, exposed
// to the card-management handlers per session.
type CardAPI interface {
	GetCustomerPaymentMethods(ctx context.Context) ([]types.PaymentMethod, error)
	GetCustomerCards(ctx context.Context) (*types.CustomerCardsResponse, error)
	SaveCustomerCard(ctx context.Context, card types.SaveCardRequest) error
	RemoveCustomerCard(ctx context.Context, cardID string) error
}
