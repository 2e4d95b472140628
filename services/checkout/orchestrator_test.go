package checkout

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-payment-api/models"
	"checkout-payment-api/types"
)

func settledBackend() *fakeBackend {
	return &fakeBackend{
		addResult: &models.AddPaymentResult{
			Type:  models.AddPaymentResultOrder,
			Order: &models.Order{Code: "C1", State: models.OrderPaymentSettled},
		},
	}
}

func newTestOrchestrator(t *testing.T, session *fakeSession, backend *fakeBackend, store *fakeStore) *Orchestrator {
	t.Helper()
	o, err := New(Config{
		SessionID:        "s1",
		Session:          session,
		Backend:          backend,
		Store:            store,
		MarkerClearDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return o
}

func TestStartContinuesWithDefaultsWhenBothFetchesFail(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	backend.customerErr = assert.AnError
	backend.orderErr = assert.AnError
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	require.NoError(t, o.Start(context.Background()))

	snap := o.Snapshot()
	require.NotNil(t, snap.Payload)
	assert.Equal(t, "Adrian", snap.Payload.Customer.FirstName)
	assert.Equal(t, "MXN", snap.Payload.Currency)
}

func TestStartInjectionFailureIsRetryable(t *testing.T) {
	session := newFakeSession()
	session.injectErr = assert.AnError
	o := newTestOrchestrator(t, session, settledBackend(), newFakeStore())

	err := o.Start(context.Background())
	var injErr *models.InjectionError
	require.ErrorAs(t, err, &injErr)
	assert.Equal(t, models.SessionConfigured, session.State())

	session.injectErr = nil
	require.NoError(t, o.Start(context.Background()))
	require.Eventually(t, func() bool {
		return session.State() == models.SessionAwaitingChallenge
	}, time.Second, 5*time.Millisecond)
}

func TestChallengeSuccessCompletesOnce(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	store := newFakeStore()
	o := newTestOrchestrator(t, session, backend, store)

	require.NoError(t, o.Start(context.Background()))
	session.verifyCh <- &types.ChallengeResult{TransactionID: "tx-3ds", Status: types.ChallengeSuccess}

	require.Eventually(t, func() bool {
		return backend.submitCount() == 1
	}, time.Second, 5*time.Millisecond)

	// The explicit trigger arrives second and must be swallowed by the guard.
	_, err := o.Pay(context.Background(), models.PaymentSelection{})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.submitCount())
	assert.Equal(t, TriggerChallenge, o.guard.Winner())
}

func TestPayThenChallengeCompletesOnce(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	require.NoError(t, o.Start(context.Background()))

	outcome, err := o.Pay(context.Background(), models.PaymentSelection{})
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, 1, backend.submitCount())
	assert.Equal(t, TriggerExplicitPay, o.guard.Winner())

	session.verifyCh <- &types.ChallengeResult{TransactionID: "tx-3ds", Status: types.ChallengeSuccess}

	// Give the watch goroutine time to observe and lose the race.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, backend.submitCount())
	assert.Equal(t, TriggerExplicitPay, o.guard.Winner())
}

func TestSimultaneousTriggersCompleteOnce(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	require.NoError(t, o.Start(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = o.Pay(context.Background(), models.PaymentSelection{})
	}()
	session.verifyCh <- &types.ChallengeResult{TransactionID: "tx-3ds", Status: types.ChallengeSuccess}
	wg.Wait()

	require.Eventually(t, func() bool {
		return o.guard.Completed()
	}, time.Second, 5*time.Millisecond)
	// A short grace period in case the losing trigger is still in flight.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, backend.submitCount())
}

func TestChallengeNonSuccessDoesNotComplete(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	require.NoError(t, o.Start(context.Background()))
	session.verifyCh <- &types.ChallengeResult{TransactionID: "tx-3ds", Status: types.ChallengeDeclined}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, backend.submitCount())
	assert.False(t, o.guard.Completed())
}

func TestChallengeReturnConfirmedByProviderCompletes(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	session.verifyCh <- &types.ChallengeResult{TransactionID: "tx-3ds", Status: types.ChallengeSuccess}
	o.HandleChallengeResult(context.Background(), types.ChallengeSuccess)
	assert.Equal(t, 1, backend.submitCount())
	assert.Equal(t, TriggerChallenge, o.guard.Winner())

	// Replays skip the provider round-trip once the session completed.
	o.HandleChallengeResult(context.Background(), types.ChallengeSuccess)
	assert.Equal(t, 1, backend.submitCount())
}

func TestForgedChallengeReturnDoesNotConsumeCompletion(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	// The caller claims success but the provider knows of no challenge.
	session.verifyCh <- nil
	o.HandleChallengeResult(context.Background(), types.ChallengeSuccess)
	assert.Equal(t, 0, backend.submitCount())
	assert.False(t, o.guard.Completed())

	// The legitimate pay trigger still reconciles afterwards.
	require.NoError(t, o.Start(context.Background()))
	_, err := o.Pay(context.Background(), models.PaymentSelection{})
	require.NoError(t, err)
	assert.Equal(t, 1, backend.submitCount())
	assert.Equal(t, TriggerExplicitPay, o.guard.Winner())
	snap := o.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, models.CompletionSettled, snap.Result.Kind)
}

func TestChallengeReturnDeniedByProviderIsIgnored(t *testing.T) {
	session := newFakeSession()
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	session.verifyCh <- &types.ChallengeResult{TransactionID: "tx-3ds", Status: types.ChallengeDeclined}
	o.HandleChallengeResult(context.Background(), types.ChallengeSuccess)
	assert.Equal(t, 0, backend.submitCount())
	assert.False(t, o.guard.Completed())
}

func TestTeardownMidPayDiscardsCompletion(t *testing.T) {
	session := newFakeSession()
	session.payStarted = make(chan struct{})
	session.payRelease = make(chan struct{})
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	require.NoError(t, o.Start(context.Background()))

	errCh := make(chan error, 1)
	go func() {
		_, err := o.Pay(context.Background(), models.PaymentSelection{})
		errCh <- err
	}()

	<-session.payStarted
	o.Teardown()
	close(session.payRelease)

	require.ErrorIs(t, <-errCh, models.ErrSessionClosed)
	assert.Equal(t, 0, backend.submitCount())
	assert.False(t, o.guard.Completed())
}

func TestPayFailureDoesNotReachBackend(t *testing.T) {
	session := newFakeSession()
	session.payErr = assert.AnError
	backend := settledBackend()
	o := newTestOrchestrator(t, session, backend, newFakeStore())

	require.NoError(t, o.Start(context.Background()))

	_, err := o.Pay(context.Background(), models.PaymentSelection{})
	var payErr *models.PaymentError
	require.ErrorAs(t, err, &payErr)
	assert.Equal(t, 0, backend.submitCount())
}

func TestPayFallsBackToSelectorSelection(t *testing.T) {
	session := newFakeSession()
	o := newTestOrchestrator(t, session, settledBackend(), newFakeStore())
	require.NoError(t, o.Start(context.Background()))

	o.Selector().SelectCard("card-9")
	_, err := o.Pay(context.Background(), models.PaymentSelection{})
	require.NoError(t, err)
}

func TestSnapshotCarriesResultAndEffects(t *testing.T) {
	session := newFakeSession()
	store := newFakeStore()
	store.SetActiveOrderMarker("s1", "C1")
	o := newTestOrchestrator(t, session, settledBackend(), store)

	require.NoError(t, o.Start(context.Background()))
	_, err := o.Pay(context.Background(), models.PaymentSelection{})
	require.NoError(t, err)

	snap := o.Snapshot()
	require.NotNil(t, snap.Result)
	assert.Equal(t, models.CompletionSettled, snap.Result.Kind)
	require.Len(t, snap.Effects, 2)
	assert.Equal(t, "confirmation/C1", snap.Effects[0].Target)
	assert.Equal(t, models.EffectReload, snap.Effects[1].Kind)

	require.Len(t, store.completions, 1)
	_, ok := store.marker("s1")
	assert.False(t, ok)
}

func TestStartAfterTeardownFails(t *testing.T) {
	session := newFakeSession()
	o := newTestOrchestrator(t, session, settledBackend(), newFakeStore())

	o.Teardown()
	require.ErrorIs(t, o.Start(context.Background()), models.ErrSessionClosed)
}
