package checkout

import (
	"context"
	"sync"

	"checkout-payment-api/models"
	"checkout-payment-api/types"
)

// fakeBackend scripts the order-management backend.
type fakeBackend struct {
	mu          sync.Mutex
	customer    *models.Customer
	customerErr error
	order       *models.Order
	orderErr    error
	addResult   *models.AddPaymentResult
	addErr      error
	addCalls    int
}

func (f *fakeBackend) ActiveCustomer(ctx context.Context) (*models.Customer, error) {
	return f.customer, f.customerErr
}

func (f *fakeBackend) ActiveOrder(ctx context.Context) (*models.Order, error) {
	return f.order, f.orderErr
}

func (f *fakeBackend) AddPaymentToOrder(ctx context.Context, method string, metadata map[string]interface{}) (*models.AddPaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	return f.addResult, f.addErr
}

func (f *fakeBackend) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls
}

// fakeStore records the session audit trail in memory.
type fakeStore struct {
	mu          sync.Mutex
	states      []models.SessionState
	markers     map[string]string
	clears      int
	completions []models.OrderCompletionResult
}

func newFakeStore() *fakeStore {
	return &fakeStore{markers: make(map[string]string)}
}

func (f *fakeStore) RecordSessionState(sessionID string, state models.SessionState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	return nil
}

func (f *fakeStore) SetActiveOrderMarker(sessionID, orderCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers[sessionID] = orderCode
	return nil
}

func (f *fakeStore) ClearActiveOrderMarker(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.markers, sessionID)
	f.clears++
	return nil
}

func (f *fakeStore) SaveCompletionResult(sessionID, trigger string, result models.OrderCompletionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, result)
	return nil
}

func (f *fakeStore) marker(sessionID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, ok := f.markers[sessionID]
	return code, ok
}

func (f *fakeStore) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

// fakeSession is a scriptable SessionManager. VerifyChallenge blocks until
// the test sends a challenge result (or closes the channel), which lets
// tests order the two completion triggers deterministically.
type fakeSession struct {
	mu         sync.Mutex
	state      models.SessionState
	customer   models.CustomerInfo
	configErr  error
	injectErr  error
	payOutcome *types.PaymentOutcome
	payErr     error
	payStarted chan struct{}
	payRelease chan struct{}
	verifyCh   chan *types.ChallengeResult
	torn       bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		state:      models.SessionUninitialized,
		payOutcome: &types.PaymentOutcome{TransactionID: "tx-1", Status: "Success"},
		verifyCh:   make(chan *types.ChallengeResult, 1),
	}
}

func (f *fakeSession) Configure(ctx context.Context, customer models.CustomerInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn {
		return models.ErrSessionClosed
	}
	if f.configErr != nil {
		return f.configErr
	}
	f.customer = customer
	f.state = models.SessionConfigured
	return nil
}

func (f *fakeSession) Inject(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.injectErr != nil {
		return &models.InjectionError{Cause: f.injectErr}
	}
	f.state = models.SessionInjected
	return nil
}

func (f *fakeSession) BeginChallengeWatch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == models.SessionInjected {
		f.state = models.SessionAwaitingChallenge
	}
}

func (f *fakeSession) VerifyChallenge(ctx context.Context) (*types.ChallengeResult, error) {
	result, ok := <-f.verifyCh
	if !ok {
		return nil, nil
	}
	f.mu.Lock()
	torn := f.torn
	f.mu.Unlock()
	if torn {
		return nil, models.ErrSessionClosed
	}
	return result, nil
}

func (f *fakeSession) Pay(ctx context.Context, selection models.PaymentSelection, payload models.CheckoutPayload) (*types.PaymentOutcome, error) {
	if f.payStarted != nil {
		close(f.payStarted)
	}
	if f.payRelease != nil {
		<-f.payRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.torn {
		return nil, models.ErrSessionClosed
	}
	if f.payErr != nil {
		f.state = models.SessionFailed
		return nil, &models.PaymentError{Cause: f.payErr}
	}
	f.state = models.SessionCompleted
	return f.payOutcome, nil
}

func (f *fakeSession) Teardown() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.torn = true
}

func (f *fakeSession) State() models.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}
