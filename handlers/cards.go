package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"checkout-payment-api/middleware"
	"checkout-payment-api/models"
	"checkout-payment-api/services/checkout"
	"checkout-payment-api/types"
	"checkout-payment-api/utils"
)

// CardsHandler exposes the provider's saved-card and payment-method
// surface for the session's customer. All routes pass through to the
// provider client owned by the session.
type CardsHandler struct {
	registry *checkout.Registry
}

func NewCardsHandler(registry *checkout.Registry) (*CardsHandler, error) {
	if registry == nil {
		return nil, fmt.Errorf("session registry is required")
	}
	return &CardsHandler{registry: registry}, nil
}

func (h *CardsHandler) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.cardsFromRequest(w, r)
	if !ok {
		return
	}

	methods, err := sess.Cards.GetCustomerPaymentMethods(r.Context())
	if err != nil {
		h.sendProviderError(w, sess.ID, "list payment methods", err)
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Payment methods",
		Data:    methods,
	})
}

func (h *CardsHandler) GetCards(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.cardsFromRequest(w, r)
	if !ok {
		return
	}

	cards, err := sess.Cards.GetCustomerCards(r.Context())
	if err != nil {
		h.sendProviderError(w, sess.ID, "list cards", err)
		return
	}

	// An empty list is a normal answer, not an error.
	if cards == nil {
		cards = &types.CustomerCardsResponse{Cards: []types.CustomerCard{}}
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Saved cards",
		Data:    cards,
	})
}

func (h *CardsHandler) SaveCard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.cardsFromRequest(w, r)
	if !ok {
		return
	}

	var req types.SaveCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := sess.Cards.SaveCustomerCard(r.Context(), req); err != nil {
		h.sendProviderError(w, sess.ID, "save card", err)
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Card saved",
	})
}

func (h *CardsHandler) RemoveCard(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.cardsFromRequest(w, r)
	if !ok {
		return
	}

	cardID := mux.Vars(r)["id"]
	if cardID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Card id is required")
		return
	}

	if err := sess.Cards.RemoveCustomerCard(r.Context(), cardID); err != nil {
		h.sendProviderError(w, sess.ID, "remove card", err)
		return
	}

	// Dropping the card breaks any sticky selection pointing at it.
	sess.Orchestrator.Selector().DeselectCard()

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Card removed",
	})
}

func (h *CardsHandler) cardsFromRequest(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	sessionID := middleware.GetSessionIDFromContext(r.Context())
	sess, found := h.registry.Get(sessionID)
	if !found {
		utils.SendErrorResponse(w, http.StatusNotFound, "Checkout session not found")
		return nil, false
	}
	return sess, true
}

func (h *CardsHandler) sendProviderError(w http.ResponseWriter, sessionID, op string, err error) {
	log.Printf("[Session: %s] Provider %s failed: %v", sessionID, op, err)
	if errors.Is(err, models.ErrSessionClosed) {
		utils.SendErrorResponse(w, http.StatusGone, "Checkout session is closed")
		return
	}
	utils.SendErrorResponse(w, http.StatusBadGateway, "Payment provider request failed")
}
