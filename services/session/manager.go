package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"checkout-payment-api/models"
	"checkout-payment-api/types"
)

// ProviderSession is the slice of the provider client the manager drives.
type ProviderSession interface {
	ConfigureCheckout(ctx context.Context, customer models.CustomerInfo) error
	InjectCheckout(ctx context.Context) error
	Verify3DSTransaction(ctx context.Context) (*types.ChallengeResult, error)
	Payment(ctx context.Context, req models.ProviderPaymentRequest) (*types.PaymentOutcome, error)
	Teardown()
}

// Manager owns the provider session lifecycle for one checkout session:
// configure, inject, challenge watch, pay, teardown. The session state is
// mutated only here. Teardown bumps a generation counter; results of calls
// that were in flight across a teardown are discarded, never acted upon.
type Manager struct {
	provider ProviderSession

	mu       sync.Mutex
	state    models.SessionState
	customer models.CustomerInfo
	gen      uint64
	torn     bool
}

func NewManager(p ProviderSession) *Manager {
	return &Manager{
		provider: p,
		state:    models.SessionUninitialized,
	}
}

func (m *Manager) State() models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Configure registers the customer with the provider. Re-configuring an
// already configured session is a no-op on state; configuring after a
// payment failure resets the session for another attempt.
func (m *Manager) Configure(ctx context.Context, customer models.CustomerInfo) error {
	m.mu.Lock()
	if m.torn {
		m.mu.Unlock()
		return models.ErrSessionClosed
	}
	switch m.state {
	case models.SessionUninitialized, models.SessionConfigured, models.SessionFailed:
	default:
		st := m.state
		m.mu.Unlock()
		return &models.InvalidStateError{Op: "configure", State: st}
	}
	gen := m.gen
	m.mu.Unlock()

	if err := m.provider.ConfigureCheckout(ctx, customer); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn || m.gen != gen {
		return models.ErrSessionClosed
	}
	m.customer = customer
	m.state = models.SessionConfigured
	return nil
}

// Inject mounts the provider widget and blocks until the provider reports
// it ready. On failure the session stays configured so injection can be
// retried.
func (m *Manager) Inject(ctx context.Context) error {
	m.mu.Lock()
	if m.torn {
		m.mu.Unlock()
		return models.ErrSessionClosed
	}
	if m.state != models.SessionConfigured {
		st := m.state
		m.mu.Unlock()
		return &models.InvalidStateError{Op: "inject", State: st}
	}
	gen := m.gen
	m.mu.Unlock()

	if err := m.provider.InjectCheckout(ctx); err != nil {
		// Session remains configured; the caller may retry.
		return &models.InjectionError{Cause: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn || m.gen != gen {
		return models.ErrSessionClosed
	}
	m.state = models.SessionInjected
	return nil
}

// BeginChallengeWatch marks the session as awaiting an asynchronous 3DS
// challenge resolution. VerifyChallenge itself never transitions state.
func (m *Manager) BeginChallengeWatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == models.SessionInjected {
		m.state = models.SessionAwaitingChallenge
	}
}

// VerifyChallenge asks the provider whether a 3DS challenge resolved. It is
// purely observational and may resolve after the user already paid; a nil
// result means no challenge is pending for the session.
func (m *Manager) VerifyChallenge(ctx context.Context) (*types.ChallengeResult, error) {
	m.mu.Lock()
	if m.torn {
		m.mu.Unlock()
		return nil, models.ErrSessionClosed
	}
	gen := m.gen
	m.mu.Unlock()

	result, err := m.provider.Verify3DSTransaction(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn || m.gen != gen {
		return nil, models.ErrSessionClosed
	}
	return result, nil
}

// Pay submits the payment. Valid while injected or awaiting a challenge.
// Exactly one of card/payment_method goes on the wire, derived from the
// selection. On provider rejection the session moves to failed and the
// error is returned wrapped as a PaymentError.
func (m *Manager) Pay(ctx context.Context, selection models.PaymentSelection, payload models.CheckoutPayload) (*types.PaymentOutcome, error) {
	m.mu.Lock()
	if m.torn {
		m.mu.Unlock()
		return nil, models.ErrSessionClosed
	}
	if !m.state.CanSubmitPayment() {
		st := m.state
		m.mu.Unlock()
		return nil, &models.InvalidStateError{Op: "pay", State: st}
	}

	req, err := buildPaymentRequest(selection, payload)
	if err != nil {
		m.mu.Unlock()
		return nil, &models.PaymentError{Cause: err}
	}

	m.state = models.SessionSubmitting
	gen := m.gen
	m.mu.Unlock()

	outcome, payErr := m.provider.Payment(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.torn || m.gen != gen {
		// Teardown happened mid-flight; discard whatever came back.
		log.Printf("Discarding payment result that settled after teardown")
		return nil, models.ErrSessionClosed
	}
	if payErr != nil {
		m.state = models.SessionFailed
		return nil, &models.PaymentError{Cause: payErr}
	}
	m.state = models.SessionCompleted
	return outcome, nil
}

// Teardown releases the provider session. Callable from any state, any
// number of times, concurrently with outstanding calls; it never fails.
func (m *Manager) Teardown() {
	m.mu.Lock()
	if m.torn {
		m.mu.Unlock()
		return
	}
	m.torn = true
	m.gen++
	m.mu.Unlock()

	m.provider.Teardown()
}

// buildPaymentRequest maps the selection variant onto the provider wire
// shape. Card takes precedence over a generic method by construction: the
// selection is already a single variant when it reaches here.
func buildPaymentRequest(selection models.PaymentSelection, payload models.CheckoutPayload) (models.ProviderPaymentRequest, error) {
	req := models.ProviderPaymentRequest{
		Customer: payload.Customer,
		Currency: payload.Currency,
		Cart:     payload.Cart,
	}

	switch selection.Kind {
	case models.SelectionNone:
		// Inline widget flow; the provider collects card data itself.
	case models.SelectionStoredCard:
		if selection.StoredCardID == "" {
			return req, errors.New("stored card selection without card id")
		}
		req.Card = selection.StoredCardID
	case models.SelectionProviderMethod:
		if selection.Method == "" {
			return req, errors.New("provider method selection without identifier")
		}
		req.PaymentMethod = selection.Method
	case models.SelectionInlineCard:
		if selection.Card == nil {
			return req, errors.New("inline card selection without card details")
		}
		if !ValidateCard(*selection.Card) {
			return req, errors.New("invalid card data: please check card number, expiration date and CVV")
		}
		req.Card = selection.Card
	default:
		return req, errors.New("unknown payment selection")
	}

	return req, nil
}
