package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"checkout-payment-api/config"
	"checkout-payment-api/database"
	"checkout-payment-api/middleware"
	"checkout-payment-api/models"
	"checkout-payment-api/queue"
	"checkout-payment-api/services/auth"
	"checkout-payment-api/services/backend"
	"checkout-payment-api/services/checkout"
	"checkout-payment-api/services/provider"
	"checkout-payment-api/services/session"
	"checkout-payment-api/utils"
)

const sessionCookieName = "checkout_session"

// CheckoutHandler owns the session lifecycle routes. Each started session
// gets its own provider client; the registry routes subsequent requests
// to it.
type CheckoutHandler struct {
	registry    *checkout.Registry
	db          *database.Connection
	backend     *backend.Client
	queue       *queue.Queue
	tokens      *auth.SessionTokenService
	cookies     *sessions.CookieStore
	providerCfg config.ProviderConfig
	sessionTTL  time.Duration
}

func NewCheckoutHandler(
	registry *checkout.Registry,
	db *database.Connection,
	bc *backend.Client,
	q *queue.Queue,
	tokens *auth.SessionTokenService,
	cookies *sessions.CookieStore,
	providerCfg config.ProviderConfig,
	sessionTTL time.Duration,
) (*CheckoutHandler, error) {
	if registry == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	if bc == nil {
		return nil, fmt.Errorf("backend client is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("session token service is required")
	}

	return &CheckoutHandler{
		registry:    registry,
		db:          db,
		backend:     bc,
		queue:       q,
		tokens:      tokens,
		cookies:     cookies,
		providerCfg: providerCfg,
		sessionTTL:  sessionTTL,
	}, nil
}

// StartCheckout creates a session, assembles the payload and brings the
// provider widget up. The returned bearer token authorizes every later
// call against this session.
func (h *CheckoutHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.New().String()
	log.Printf("[Session: %s] Starting checkout", sessionID)

	providerClient := provider.NewClient(
		h.providerCfg.APIKey,
		h.providerCfg.Environment,
		h.providerCfg.ReturnURL,
	)

	orch, err := checkout.New(checkout.Config{
		SessionID: sessionID,
		Session:   session.NewManager(providerClient),
		Backend:   h.backend,
		Store:     h.db,
	})
	if err != nil {
		log.Printf("[Session: %s] Failed to build orchestrator: %v", sessionID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := orch.Start(r.Context()); err != nil {
		log.Printf("[Session: %s] Checkout start failed: %v", sessionID, err)
		orch.Teardown()

		var injErr *models.InjectionError
		if errors.As(err, &injErr) {
			utils.SendErrorResponse(w, http.StatusBadGateway, "Payment widget could not be initialized")
			return
		}
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to start checkout")
		return
	}

	h.registry.Put(&checkout.Session{
		ID:           sessionID,
		Orchestrator: orch,
		Cards:        providerClient,
		CreatedAt:    time.Now(),
	})

	if h.queue != nil {
		err := h.queue.EnqueueDelayed(r.Context(), queue.JobTypeReapSession,
			map[string]interface{}{"session_id": sessionID}, h.sessionTTL)
		if err != nil {
			log.Printf("[Session: %s] Failed to schedule session reap: %v", sessionID, err)
		}
	}

	token, err := h.tokens.IssueSessionToken(sessionID, h.sessionTTL)
	if err != nil {
		log.Printf("[Session: %s] Failed to issue session token: %v", sessionID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if h.cookies != nil {
		cookie, _ := h.cookies.Get(r, sessionCookieName)
		cookie.Values["session_id"] = sessionID
		cookie.Options.MaxAge = int(h.sessionTTL.Seconds())
		cookie.Options.HttpOnly = true
		if err := cookie.Save(r, w); err != nil {
			log.Printf("[Session: %s] Failed to save session cookie: %v", sessionID, err)
		}
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Checkout session started",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"token":      token,
			"snapshot":   orch.Snapshot(),
		},
	})
}

type payRequest struct {
	StoredCardID  string              `json:"stored_card_id"`
	PaymentMethod string              `json:"payment_method"`
	Card          *models.CardDetails `json:"card"`
}

// selection maps the request body onto the tagged variant; inline card
// details win over a stored card id, which wins over a provider method.
func (p payRequest) selection() models.PaymentSelection {
	switch {
	case p.Card != nil:
		return models.SelectInlineCard(*p.Card)
	case p.StoredCardID != "":
		return models.SelectStoredCard(p.StoredCardID)
	case p.PaymentMethod != "":
		return models.SelectProviderMethod(p.PaymentMethod)
	default:
		return models.PaymentSelection{}
	}
}

// Pay is the explicit completion trigger.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req payRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
			return
		}
	}

	outcome, err := sess.Orchestrator.Pay(r.Context(), req.selection())
	if err != nil {
		log.Printf("[Session: %s] Payment failed: %v", sess.ID, err)

		var stateErr *models.InvalidStateError
		var payErr *models.PaymentError
		switch {
		case errors.Is(err, models.ErrSessionClosed):
			utils.SendErrorResponse(w, http.StatusGone, "Checkout session is closed")
		case errors.As(err, &stateErr):
			utils.SendErrorResponse(w, http.StatusConflict, err.Error())
		case errors.As(err, &payErr):
			utils.SendErrorResponse(w, http.StatusPaymentRequired, "Payment was not accepted")
		default:
			utils.SendErrorResponse(w, http.StatusInternalServerError, "Payment processing failed")
		}
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Payment submitted",
		Data: map[string]interface{}{
			"outcome":  outcome,
			"snapshot": sess.Orchestrator.Snapshot(),
		},
	})
}

type selectRequest struct {
	StoredCardID   *string `json:"stored_card_id"`
	PaymentMethod  *string `json:"payment_method"`
	DeselectCard   bool    `json:"deselect_card"`
	DeselectMethod bool    `json:"deselect_method"`
}

// Select updates the sticky card/method selection consulted when Pay is
// called without an explicit selection.
func (h *CheckoutHandler) Select(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.sessionFromRequest(w, r)
	if !ok {
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	selector := sess.Orchestrator.Selector()
	if req.DeselectCard {
		selector.DeselectCard()
	}
	if req.DeselectMethod {
		selector.DeselectMethod()
	}
	if req.StoredCardID != nil && *req.StoredCardID != "" {
		selector.SelectCard(*req.StoredCardID)
	}
	if req.PaymentMethod != nil && *req.PaymentMethod != "" {
		selector.SelectMethod(*req.PaymentMethod)
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Selection updated",
	})
}

// Status returns the session snapshot: state, completion result and the
// pending navigation effects in emission order. Sessions no longer held
// in memory fall back to the persisted state.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionIDFromContext(r.Context())
	sess, found := h.registry.Get(sessionID)
	if found {
		utils.SendSuccessResponse(w, models.APIResponse{
			Status:  "success",
			Message: "Session status",
			Data:    sess.Orchestrator.Snapshot(),
		})
		return
	}

	if h.db != nil {
		state, err := h.db.GetSessionState(sessionID)
		if err == nil {
			utils.SendSuccessResponse(w, models.APIResponse{
				Status:  "success",
				Message: "Session status",
				Data: map[string]interface{}{
					"session_id": sessionID,
					"state":      state,
					"live":       false,
				},
			})
			return
		}
		if !errors.Is(err, sql.ErrNoRows) {
			log.Printf("[Session: %s] Failed to read persisted state: %v", sessionID, err)
			utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	utils.SendErrorResponse(w, http.StatusNotFound, "Checkout session not found")
}

// Teardown releases the session unconditionally and forgets it.
func (h *CheckoutHandler) Teardown(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionIDFromContext(r.Context())
	sess, found := h.registry.Get(sessionID)
	var state models.SessionState
	if found {
		state = sess.Orchestrator.State()
		sess.Orchestrator.Teardown()
		h.registry.Remove(sessionID)
	}
	// A session torn down after completing or failing keeps its terminal
	// state; only unsettled sessions are marked abandoned.
	if h.db != nil && !state.Terminal() {
		if err := h.db.MarkSessionAbandoned(sessionID); err != nil {
			log.Printf("[Session: %s] Failed to mark session abandoned: %v", sessionID, err)
		}
	}

	if h.cookies != nil {
		cookie, _ := h.cookies.Get(r, sessionCookieName)
		cookie.Options.MaxAge = -1
		if err := cookie.Save(r, w); err != nil {
			log.Printf("[Session: %s] Failed to expire session cookie: %v", sessionID, err)
		}
	}

	log.Printf("[Session: %s] Teardown complete (known: %v)", sessionID, found)
	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Checkout session closed",
	})
}

func (h *CheckoutHandler) sessionFromRequest(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	sessionID := middleware.GetSessionIDFromContext(r.Context())
	sess, found := h.registry.Get(sessionID)
	if !found {
		utils.SendErrorResponse(w, http.StatusNotFound, "Checkout session not found")
		return nil, false
	}
	return sess, true
}
