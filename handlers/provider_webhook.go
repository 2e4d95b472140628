package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"checkout-payment-api/queue"
	"checkout-payment-api/services/checkout"
	"checkout-payment-api/types"
)

// WebhookHandler receives the provider's redirect back from a 3DS
// challenge. It is the second arrival path for the challenge trigger; the
// session's completion guard absorbs the duplicate when the in-process
// watch already won.
type WebhookHandler struct {
	registry *checkout.Registry
	queue    *queue.Queue
}

func NewWebhookHandler(registry *checkout.Registry, q *queue.Queue) *WebhookHandler {
	return &WebhookHandler{
		registry: registry,
		queue:    q,
	}
}

// HandleChallengeReturn processes the provider's post-challenge redirect.
// The browser gets an immediate HTML answer; the completion itself runs in
// background against the session. The form's status field is only a hint:
// the orchestrator re-verifies the outcome with the provider before it
// completes, so a forged or premature POST cannot consume the session's
// single completion.
func (h *WebhookHandler) HandleChallengeReturn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		log.Printf("Error parsing challenge return form: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	sessionID := r.FormValue("checkout_id")
	transactionID := r.FormValue("transaction_id")
	status := types.ChallengeStatus(r.FormValue("transaction_status"))

	log.Printf("Received challenge return for session %s: transaction=%s, status=%s",
		sessionID, transactionID, status)

	// Answer the browser right away; the redirect target polls the status
	// endpoint for the outcome.
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(`
		<!DOCTYPE html>
		<html>
		<head>
			<title>Payment Verification</title>
			<meta http-equiv="refresh" content="0;url=/checkout/processing?session=` + sessionID + `">
		</head>
		<body>
			<p>Verifying your payment. Redirecting...</p>
		</body>
		</html>
	`))

	go h.processChallengeReturn(sessionID, status)
}

func (h *WebhookHandler) processChallengeReturn(sessionID string, status types.ChallengeStatus) {
	sess, found := h.registry.Get(sessionID)
	if !found {
		log.Printf("Challenge return for unknown session %s ignored", sessionID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sess.Orchestrator.HandleChallengeResult(ctx, status)

	if h.queue != nil {
		snap := sess.Orchestrator.Snapshot()
		if snap.Result != nil && snap.Result.Settled() {
			err := h.queue.Enqueue(ctx, queue.JobTypeRecordOutcome, map[string]interface{}{
				"session_id": sessionID,
				"trigger":    string(checkout.TriggerChallenge),
				"result":     snap.Result,
			})
			if err != nil {
				log.Printf("[Session: %s] Failed to enqueue outcome record: %v", sessionID, err)
			}
		}
	}
}
