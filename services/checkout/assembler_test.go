package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-payment-api/models"
)

func TestAssembleBothFetchesFailFallsBackToDefaults(t *testing.T) {
	backend := &fakeBackend{
		customerErr: errors.New("customer service down"),
		orderErr:    errors.New("order service down"),
	}
	assembler := NewDataAssembler(backend, nil, "s1")
	defaults := models.DefaultCheckoutPayload()

	payload, err := assembler.Assemble(context.Background(), defaults)

	var fetchErr *models.DataFetchError
	require.ErrorAs(t, err, &fetchErr)
	// Never fewer populated fields than the defaults.
	assert.Equal(t, defaults, payload)
}

func TestAssembleCustomerOnlyOverlay(t *testing.T) {
	backend := &fakeBackend{
		customer: &models.Customer{FirstName: "Lucia", LastName: "Reyes", EmailAddress: "lucia@example.com"},
		orderErr: errors.New("order service down"),
	}
	assembler := NewDataAssembler(backend, nil, "s1")
	defaults := models.DefaultCheckoutPayload()

	payload, err := assembler.Assemble(context.Background(), defaults)
	require.NoError(t, err)

	assert.Equal(t, "Lucia", payload.Customer.FirstName)
	assert.Equal(t, "Reyes", payload.Customer.LastName)
	assert.Equal(t, "lucia@example.com", payload.Customer.Email)
	// Fields the customer fetch does not carry keep the defaults.
	assert.Equal(t, defaults.Customer.Address, payload.Customer.Address)
	assert.Equal(t, defaults.Cart, payload.Cart)
}

func TestAssembleOrderOverlayConvertsMinorUnits(t *testing.T) {
	backend := &fakeBackend{
		order: &models.Order{
			Code:         "C1",
			State:        models.OrderArrangingPayment,
			CurrencyCode: "MXN",
			TotalWithTax: 39900,
			Lines: []models.OrderLine{
				{
					ProductVariant:   models.ProductVariant{ID: "42", Name: "Black T-Shirt"},
					Quantity:         2,
					UnitPriceWithTax: 19950,
					LinePriceWithTax: 39900,
				},
			},
			ShippingAddress: &models.OrderAddress{
				Country:     "Mexico",
				StreetLine1: "Av Reforma 1",
				City:        "CDMX",
			},
		},
		customerErr: errors.New("customer service down"),
	}
	store := newFakeStore()
	assembler := NewDataAssembler(backend, store, "s1")

	payload, err := assembler.Assemble(context.Background(), models.DefaultCheckoutPayload())
	require.NoError(t, err)

	assert.Equal(t, 399.0, payload.Cart.Total)
	require.Len(t, payload.Cart.Items, 1)
	assert.Equal(t, 199.5, payload.Cart.Items[0].UnitPrice)
	assert.Equal(t, 399.0, payload.Cart.Items[0].LineTotal)
	assert.Equal(t, "42", payload.Cart.Items[0].ProductReference)

	// Address fields fall back to empty, never to the default address.
	assert.Equal(t, "Av Reforma 1", payload.Customer.Address)
	assert.Equal(t, "", payload.Customer.State)
	assert.Equal(t, "", payload.Customer.PostCode)
	assert.Equal(t, "", payload.Customer.Phone)

	code, ok := store.marker("s1")
	require.True(t, ok)
	assert.Equal(t, "C1", code)
}

func TestAssembleOrderWithoutAddressBlanksAddressFields(t *testing.T) {
	backend := &fakeBackend{
		order: &models.Order{Code: "C2", TotalWithTax: 100},
	}
	assembler := NewDataAssembler(backend, nil, "s1")

	payload, err := assembler.Assemble(context.Background(), models.DefaultCheckoutPayload())
	require.NoError(t, err)

	assert.Equal(t, "", payload.Customer.Country)
	assert.Equal(t, "", payload.Customer.Address)
	assert.Equal(t, "", payload.Customer.City)
}

func TestAssemblePreservesLineOrder(t *testing.T) {
	backend := &fakeBackend{
		order: &models.Order{
			Code: "C3",
			Lines: []models.OrderLine{
				{ProductVariant: models.ProductVariant{ID: "1", Name: "first"}},
				{ProductVariant: models.ProductVariant{ID: "2", Name: "second"}},
				{ProductVariant: models.ProductVariant{ID: "3", Name: "third"}},
			},
		},
	}
	assembler := NewDataAssembler(backend, nil, "s1")

	payload, err := assembler.Assemble(context.Background(), models.DefaultCheckoutPayload())
	require.NoError(t, err)

	require.Len(t, payload.Cart.Items, 3)
	assert.Equal(t, "first", payload.Cart.Items[0].Name)
	assert.Equal(t, "second", payload.Cart.Items[1].Name)
	assert.Equal(t, "third", payload.Cart.Items[2].Name)
}
