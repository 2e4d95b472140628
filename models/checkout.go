package models

// CustomerInfo is the customer block of the checkout payload sent to the
// payment provider.
type CustomerInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Country   string `json:"country"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	PostCode  string `json:"postCode"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// CartItem mirrors the provider's cart line shape. Monetary fields are in
// major currency units; conversion from the backend's minor units happens
// once, in the assembler.
type CartItem struct {
	Description      string  `json:"description"`
	Quantity         int     `json:"quantity"`
	UnitPrice        float64 `json:"price_unit"`
	Discount         float64 `json:"discount"`
	Taxes            float64 `json:"taxes"`
	ProductReference string  `json:"product_reference"`
	Name             string  `json:"name"`
	LineTotal        float64 `json:"amount_total"`
}

type Cart struct {
	Total float64    `json:"total"`
	Items []CartItem `json:"items"`
}

// CheckoutPayload is the full payment request body assembled for the
// provider: customer identity, currency and cart contents.
type CheckoutPayload struct {
	Customer CustomerInfo `json:"customer"`
	Currency string       `json:"currency"`
	Cart     Cart         `json:"cart"`
}

// DefaultCheckoutPayload returns the hardcoded fallback payload. Live
// customer and order data overwrite it field by field; fields absent
// upstream keep these values.
func DefaultCheckoutPayload() CheckoutPayload {
	return CheckoutPayload{
		Customer: CustomerInfo{
			FirstName: "Adrian",
			LastName:  "Martinez",
			Country:   "Mexico",
			Address:   "Pinos 507, Col El Tecuan",
			City:      "Durango",
			State:     "Durango",
			PostCode:  "34105",
			Email:     "adrian@email.com",
			Phone:     "8161234567",
		},
		Currency: "MXN",
		Cart: Cart{
			Total: 399,
			Items: []CartItem{
				{
					Description:      "Black T-Shirt",
					Quantity:         1,
					UnitPrice:        1,
					Discount:         0,
					Taxes:            0,
					ProductReference: "1",
					Name:             "T-Shirt",
					LineTotal:        399,
				},
			},
		},
	}
}
