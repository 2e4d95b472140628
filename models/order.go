package models

// OrderState is the order-management backend's order state string.
type OrderState string

const (
	OrderPaymentSettled    OrderState = "PaymentSettled"
	OrderPaymentAuthorized OrderState = "PaymentAuthorized"
	OrderArrangingPayment  OrderState = "ArrangingPayment"
)

// Customer is the backend's active-customer record. All monetary-free; only
// identity fields are consumed by the assembler.
type Customer struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
}

// OrderAddress is the shipping address attached to the active order. Fields
// may be empty when the customer has not filled them in yet.
type OrderAddress struct {
	Country     string `json:"country"`
	StreetLine1 string `json:"streetLine1"`
	City        string `json:"city"`
	Province    string `json:"province"`
	PostalCode  string `json:"postalCode"`
	PhoneNumber string `json:"phoneNumber"`
}

// ProductVariant identifies the purchasable variant on an order line.
type ProductVariant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderLine is one line of the active order. Monetary amounts are minor
// currency units (cents), per the backend contract.
type OrderLine struct {
	ProductVariant   ProductVariant `json:"productVariant"`
	Quantity         int            `json:"quantity"`
	UnitPriceWithTax int64          `json:"unitPriceWithTax"`
	LinePriceWithTax int64          `json:"linePriceWithTax"`
}

// Order is the backend's active order for the checkout session.
type Order struct {
	Code            string        `json:"code"`
	State           OrderState    `json:"state"`
	CurrencyCode    string        `json:"currencyCode"`
	TotalWithTax    int64         `json:"totalWithTax"`
	Lines           []OrderLine   `json:"lines"`
	ShippingAddress *OrderAddress `json:"shippingAddress,omitempty"`
}

// Result discriminators of the backend's add-payment mutation.
const (
	AddPaymentResultOrder          = "Order"
	AddPaymentOrderPaymentStateErr = "OrderPaymentStateError"
	AddPaymentDeclinedErr          = "PaymentDeclinedError"
	AddPaymentFailedErr            = "PaymentFailedError"
	AddPaymentOrderTransitionErr   = "OrderStateTransitionError"
)

// AddPaymentResult is the tagged wire response of the backend completion
// mutation: either the updated order or one of the typed rejections.
type AddPaymentResult struct {
	Type      string `json:"type"`
	Order     *Order `json:"order,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}
