package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-payment-api/models"
)

func testReconciler(backend *fakeBackend, store *fakeStore) *OrderReconciler {
	r := NewOrderReconciler(backend, store, "s1")
	r.markerDelay = 20 * time.Millisecond
	return r
}

func TestSubmitSettledClearsMarkerAfterDelayAndEmitsEffects(t *testing.T) {
	backend := &fakeBackend{
		addResult: &models.AddPaymentResult{
			Type:  models.AddPaymentResultOrder,
			Order: &models.Order{Code: "C1", State: models.OrderPaymentSettled},
		},
	}
	store := newFakeStore()
	store.SetActiveOrderMarker("s1", "C1")
	r := testReconciler(backend, store)

	start := time.Now()
	result, effects, err := r.Submit(context.Background(), DefaultCompletionMethod, nil)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, models.CompletionSettled, result.Kind)
	assert.Equal(t, "C1", result.OrderCode)

	_, ok := store.marker("s1")
	assert.False(t, ok, "active-order marker should be cleared")

	require.Len(t, effects, 2)
	assert.Equal(t, models.EffectNavigate, effects[0].Kind)
	assert.Equal(t, "confirmation/C1", effects[0].Target)
	assert.Equal(t, models.EffectReload, effects[1].Kind)
}

func TestSubmitAuthorizedMapsToAuthorized(t *testing.T) {
	backend := &fakeBackend{
		addResult: &models.AddPaymentResult{
			Type:  models.AddPaymentResultOrder,
			Order: &models.Order{Code: "C2", State: models.OrderPaymentAuthorized},
		},
	}
	r := testReconciler(backend, newFakeStore())

	result, effects, err := r.Submit(context.Background(), DefaultCompletionMethod, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CompletionAuthorized, result.Kind)
	assert.Len(t, effects, 2)
}

func TestSubmitNonTerminalStateIsExplicitPending(t *testing.T) {
	backend := &fakeBackend{
		addResult: &models.AddPaymentResult{
			Type:  models.AddPaymentResultOrder,
			Order: &models.Order{Code: "C3", State: models.OrderArrangingPayment},
		},
	}
	store := newFakeStore()
	store.SetActiveOrderMarker("s1", "C3")
	r := testReconciler(backend, store)

	result, effects, err := r.Submit(context.Background(), DefaultCompletionMethod, nil)
	require.NoError(t, err)

	assert.Equal(t, models.CompletionPending, result.Kind)
	assert.Equal(t, models.OrderArrangingPayment, result.OrderState)
	assert.Empty(t, effects)
	_, ok := store.marker("s1")
	assert.True(t, ok, "marker must stay while the order is pending")
}

func TestSubmitDeclinedSurfacesMessageAndLeavesMarker(t *testing.T) {
	backend := &fakeBackend{
		addResult: &models.AddPaymentResult{
			Type:    models.AddPaymentDeclinedErr,
			Message: "insufficient funds",
		},
	}
	store := newFakeStore()
	store.SetActiveOrderMarker("s1", "C1")
	r := testReconciler(backend, store)

	result, effects, err := r.Submit(context.Background(), DefaultCompletionMethod, nil)
	require.NoError(t, err)

	assert.Equal(t, models.CompletionDeclined, result.Kind)
	assert.Equal(t, "insufficient funds", result.Reason)
	assert.Empty(t, effects)
	assert.Equal(t, 0, store.clearCount())
	_, ok := store.marker("s1")
	assert.True(t, ok)
}

func TestSubmitErrorVariantMapping(t *testing.T) {
	cases := []struct {
		backendType string
		want        models.CompletionKind
	}{
		{models.AddPaymentFailedErr, models.CompletionFailed},
		{models.AddPaymentOrderPaymentStateErr, models.CompletionStateConflict},
		{models.AddPaymentOrderTransitionErr, models.CompletionStateConflict},
	}

	for _, tc := range cases {
		t.Run(tc.backendType, func(t *testing.T) {
			backend := &fakeBackend{
				addResult: &models.AddPaymentResult{Type: tc.backendType, Message: "nope"},
			}
			r := testReconciler(backend, newFakeStore())

			result, effects, err := r.Submit(context.Background(), DefaultCompletionMethod, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, result.Kind)
			assert.Equal(t, "nope", result.Reason)
			assert.Empty(t, effects)
		})
	}
}

func TestSubmitUnknownResultTypeFails(t *testing.T) {
	backend := &fakeBackend{
		addResult: &models.AddPaymentResult{Type: "SomethingNew"},
	}
	r := testReconciler(backend, newFakeStore())

	_, _, err := r.Submit(context.Background(), DefaultCompletionMethod, nil)
	require.Error(t, err)
}
