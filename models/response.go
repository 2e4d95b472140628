package models

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SessionSnapshot is the status view of one checkout session returned to
// the UI: current state, the completion result once produced, and the
// navigation effects in emission order.
type SessionSnapshot struct {
	SessionID string                 `json:"session_id"`
	State     string                 `json:"state"`
	Payload   *CheckoutPayload       `json:"payload,omitempty"`
	Result    *OrderCompletionResult `json:"result,omitempty"`
	Effects   []Effect               `json:"effects,omitempty"`
}
