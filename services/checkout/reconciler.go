package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"checkout-payment-api/models"
)

// DefaultMarkerClearDelay is the fixed wait before the session's
// active-order marker is cleared after settlement. The delay lets a
// concurrent UI refresh observe the pre-clear state before the marker goes
// away. It is an ordering hack; an explicit acknowledgement from the data
// layer should replace it once available.
const DefaultMarkerClearDelay = 500 * time.Millisecond

// OrderReconciler submits the completion mutation and interprets the
// backend's tagged result. It sends exactly one request per call; the
// orchestrator only calls it after winning the completion guard.
type OrderReconciler struct {
	backend     BackendAPI
	store       SessionStore
	sessionID   string
	markerDelay time.Duration
}

func NewOrderReconciler(backend BackendAPI, store SessionStore, sessionID string) *OrderReconciler {
	return &OrderReconciler{
		backend:     backend,
		store:       store,
		sessionID:   sessionID,
		markerDelay: DefaultMarkerClearDelay,
	}
}

// Submit completes the order on the backend. For a settled or authorized
// order it clears the active-order marker after the fixed delay and
// returns the navigation effects in emission order: confirmation first,
// then reload. Rejections carry the backend's message in the result.
func (r *OrderReconciler) Submit(ctx context.Context, method string, metadata map[string]interface{}) (models.OrderCompletionResult, []models.Effect, error) {
	result, err := r.backend.AddPaymentToOrder(ctx, method, metadata)
	if err != nil {
		return models.OrderCompletionResult{}, nil, err
	}

	switch result.Type {
	case models.AddPaymentResultOrder:
		if result.Order == nil {
			return models.OrderCompletionResult{}, nil, fmt.Errorf("backend sent order result without order body")
		}
		return r.reconcileOrder(result.Order)

	case models.AddPaymentDeclinedErr:
		return models.OrderCompletionResult{
			Kind:   models.CompletionDeclined,
			Reason: result.Message,
		}, nil, nil

	case models.AddPaymentFailedErr:
		return models.OrderCompletionResult{
			Kind:   models.CompletionFailed,
			Reason: result.Message,
		}, nil, nil

	case models.AddPaymentOrderPaymentStateErr, models.AddPaymentOrderTransitionErr:
		return models.OrderCompletionResult{
			Kind:   models.CompletionStateConflict,
			Reason: result.Message,
		}, nil, nil

	default:
		return models.OrderCompletionResult{}, nil, fmt.Errorf("unknown add-payment result type %q", result.Type)
	}
}

func (r *OrderReconciler) reconcileOrder(order *models.Order) (models.OrderCompletionResult, []models.Effect, error) {
	switch order.State {
	case models.OrderPaymentSettled, models.OrderPaymentAuthorized:
		kind := models.CompletionSettled
		if order.State == models.OrderPaymentAuthorized {
			kind = models.CompletionAuthorized
		}

		time.Sleep(r.markerDelay)
		if r.store != nil {
			if err := r.store.ClearActiveOrderMarker(r.sessionID); err != nil {
				log.Printf("Failed to clear active-order marker for session %s: %v", r.sessionID, err)
			}
		}

		effects := []models.Effect{
			models.NavigateEffect("confirmation/" + order.Code),
			models.ReloadEffect(),
		}
		return models.OrderCompletionResult{
			Kind:       kind,
			OrderCode:  order.Code,
			OrderState: order.State,
		}, effects, nil

	default:
		// The order came back in a non-terminal payment state. Surfaced as
		// an explicit pending result; the marker and session are left
		// untouched.
		return models.OrderCompletionResult{
			Kind:       models.CompletionPending,
			OrderCode:  order.Code,
			OrderState: order.State,
		}, nil, nil
	}
}
