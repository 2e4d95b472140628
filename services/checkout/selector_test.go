package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout-payment-api/models"
)

func TestSelectorNothingSelected(t *testing.T) {
	s := NewPaymentMethodSelector()
	_, ok := s.Resolve()
	assert.False(t, ok)
}

func TestSelectorCardTakesPrecedence(t *testing.T) {
	s := NewPaymentMethodSelector()
	s.SelectMethod("oxxo")
	s.SelectCard("card-7")

	// Both set: the stored card wins, deterministically.
	for i := 0; i < 3; i++ {
		sel, ok := s.Resolve()
		require.True(t, ok)
		assert.Equal(t, models.SelectionStoredCard, sel.Kind)
		assert.Equal(t, "card-7", sel.StoredCardID)
	}
}

func TestSelectorMethodWhenCardDeselected(t *testing.T) {
	s := NewPaymentMethodSelector()
	s.SelectCard("card-7")
	s.SelectMethod("spei")
	s.DeselectCard()

	sel, ok := s.Resolve()
	require.True(t, ok)
	assert.Equal(t, models.SelectionProviderMethod, sel.Kind)
	assert.Equal(t, "spei", sel.Method)

	s.DeselectMethod()
	_, ok = s.Resolve()
	assert.False(t, ok)
}
