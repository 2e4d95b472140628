// models/session_state.go
package models

// SessionState is the payment-provider session lifecycle. It is owned
// exclusively by the session manager and mutated only by its methods.
type SessionState int

const (
	SessionUninitialized SessionState = iota
	SessionConfigured
	SessionInjected
	SessionAwaitingChallenge
	SessionSubmitting
	SessionCompleted
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionUninitialized:
		return "uninitialized"
	case SessionConfigured:
		return "configured"
	case SessionInjected:
		return "injected"
	case SessionAwaitingChallenge:
		return "awaiting_challenge"
	case SessionSubmitting:
		return "submitting"
	case SessionCompleted:
		return "completed"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s SessionState) IsValid() bool {
	return s >= SessionUninitialized && s <= SessionFailed
}

// CanSubmitPayment reports whether an explicit pay call is accepted in this
// state. Pay is re-entrant while a challenge verification is outstanding.
func (s SessionState) CanSubmitPayment() bool {
	return s == SessionInjected || s == SessionAwaitingChallenge
}

func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}
