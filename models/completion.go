package models

// CompletionKind discriminates the interpreted outcome of one completion
// submission. Pending covers orders left in a non-terminal payment state by
// the backend; it is an explicit variant, never a silent no-op.
type CompletionKind int

const (
	CompletionSettled CompletionKind = iota
	CompletionAuthorized
	CompletionPending
	CompletionDeclined
	CompletionFailed
	CompletionStateConflict
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionSettled:
		return "settled"
	case CompletionAuthorized:
		return "authorized"
	case CompletionPending:
		return "pending"
	case CompletionDeclined:
		return "declined"
	case CompletionFailed:
		return "failed"
	case CompletionStateConflict:
		return "state_conflict"
	default:
		return "unknown"
	}
}

// OrderCompletionResult is produced exactly once per checkout session and is
// terminal. Reason carries the backend's message for the rejection variants.
type OrderCompletionResult struct {
	Kind       CompletionKind `json:"kind"`
	OrderCode  string         `json:"order_code,omitempty"`
	OrderState OrderState     `json:"order_state,omitempty"`
	Reason     string         `json:"reason,omitempty"`
}

// Settled reports whether the payment was captured or authorized.
func (r OrderCompletionResult) Settled() bool {
	return r.Kind == CompletionSettled || r.Kind == CompletionAuthorized
}

// EffectKind is a navigation effect the orchestrator signals to the UI.
type EffectKind string

const (
	EffectNavigate EffectKind = "navigate"
	EffectReload   EffectKind = "reload"
)

// Effect is an ordered UI side effect emitted after settlement: first a
// navigation to the confirmation view, then a full client reload.
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Target string     `json:"target,omitempty"`
}

func NavigateEffect(target string) Effect {
	return Effect{Kind: EffectNavigate, Target: target}
}

func ReloadEffect() Effect {
	return Effect{Kind: EffectReload}
}
