package models

// SelectionKind discriminates the payment selection variants. At most one
// variant is active at a time; selecting a new one clears the others.
type SelectionKind int

const (
	SelectionNone SelectionKind = iota
	SelectionStoredCard
	SelectionProviderMethod
	SelectionInlineCard
)

func (k SelectionKind) String() string {
	switch k {
	case SelectionNone:
		return "none"
	case SelectionStoredCard:
		return "stored_card"
	case SelectionProviderMethod:
		return "provider_method"
	case SelectionInlineCard:
		return "inline_card"
	default:
		return "unknown"
	}
}

// CardDetails carries raw card input for an inline payment.
type CardDetails struct {
	CardNumber      string `json:"card_number"`
	ExpirationMonth string `json:"expiration_month"`
	ExpirationYear  string `json:"expiration_year"`
	CVV             string `json:"cvv"`
	CardholderName  string `json:"cardholder_name"`
}

// PaymentSelection is a tagged variant: stored card id, provider method
// identifier, or inline card details. Only the field matching Kind is set.
type PaymentSelection struct {
	Kind         SelectionKind `json:"kind"`
	StoredCardID string        `json:"stored_card_id,omitempty"`
	Method       string        `json:"payment_method,omitempty"`
	Card         *CardDetails  `json:"card,omitempty"`
}

func SelectStoredCard(id string) PaymentSelection {
	return PaymentSelection{Kind: SelectionStoredCard, StoredCardID: id}
}

func SelectProviderMethod(method string) PaymentSelection {
	return PaymentSelection{Kind: SelectionProviderMethod, Method: method}
}

func SelectInlineCard(card CardDetails) PaymentSelection {
	return PaymentSelection{Kind: SelectionInlineCard, Card: &card}
}

func (s PaymentSelection) IsZero() bool {
	return s.Kind == SelectionNone
}

// ProviderPaymentRequest is the wire shape of a provider payment call. Card
// is either a stored-card id (string) or a CardDetails object, matching the
// provider contract; exactly one of Card and PaymentMethod may be set.
type ProviderPaymentRequest struct {
	Customer      CustomerInfo `json:"customer"`
	Currency      string       `json:"currency"`
	Cart          Cart         `json:"cart"`
	Card          interface{}  `json:"card,omitempty"`
	PaymentMethod string       `json:"payment_method,omitempty"`
}
