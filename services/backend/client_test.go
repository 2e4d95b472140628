package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-payment-api/models"
)

func TestActiveCustomerAbsentIsNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1")
	customer, err := c.ActiveCustomer(context.Background())
	require.NoError(t, err)
	assert.Nil(t, customer)
}

func TestActiveCustomerDecodesAndSendsChannelToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token-1", r.Header.Get("Channel-Token"))
		assert.Equal(t, "/active-customer", r.URL.Path)
		json.NewEncoder(w).Encode(models.Customer{
			FirstName:    "Ana",
			LastName:     "Lopez",
			EmailAddress: "ana@example.com",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "token-1")
	customer, err := c.ActiveCustomer(context.Background())
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "Ana", customer.FirstName)
	assert.Equal(t, "ana@example.com", customer.EmailAddress)
}

func TestActiveOrderAbsentIsNilNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	order, err := c.ActiveOrder(context.Background())
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestAddPaymentToOrderDecodesTaggedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/order/add-payment", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		input, ok := body["input"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "standard-payment", input["method"])

		json.NewEncoder(w).Encode(models.AddPaymentResult{
			Type:    models.AddPaymentDeclinedErr,
			Message: "insufficient funds",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	result, err := c.AddPaymentToOrder(context.Background(), "standard-payment", nil)
	require.NoError(t, err)
	assert.Equal(t, models.AddPaymentDeclinedErr, result.Type)
	assert.Equal(t, "insufficient funds", result.Message)
}

func TestAddPaymentToOrderMissingTypeFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.AddPaymentToOrder(context.Background(), "standard-payment", nil)
	require.Error(t, err)
}

func TestBackendErrorStatusSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.ActiveOrder(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
