package checkout

import (
	"context"
	"log"

	"checkout-payment-api/models"
	"checkout-payment-api/utils"
)

// DataAssembler merges the fallback payload with live customer and order
// data. The two fetches run concurrently and have no ordering dependency;
// one of them failing is tolerated, that half of the payload keeps the
// defaults.
type DataAssembler struct {
	backend   BackendAPI
	store     SessionStore
	sessionID string
}

func NewDataAssembler(backend BackendAPI, store SessionStore, sessionID string) *DataAssembler {
	return &DataAssembler{backend: backend, store: store, sessionID: sessionID}
}

// Assemble overlays live data onto defaults field by field. It fails with a
// DataFetchError only when both fetches reject; the returned payload is
// then the untouched defaults.
func (a *DataAssembler) Assemble(ctx context.Context, defaults models.CheckoutPayload) (models.CheckoutPayload, error) {
	type customerFetch struct {
		customer *models.Customer
		err      error
	}
	type orderFetch struct {
		order *models.Order
		err   error
	}

	customerCh := make(chan customerFetch, 1)
	orderCh := make(chan orderFetch, 1)

	go func() {
		customer, err := a.backend.ActiveCustomer(ctx)
		customerCh <- customerFetch{customer, err}
	}()
	go func() {
		order, err := a.backend.ActiveOrder(ctx)
		orderCh <- orderFetch{order, err}
	}()

	cf := <-customerCh
	of := <-orderCh

	if cf.err != nil && of.err != nil {
		return defaults, &models.DataFetchError{CustomerErr: cf.err, OrderErr: of.err}
	}
	if cf.err != nil {
		log.Printf("Active customer fetch failed, keeping default customer: %v", cf.err)
	}
	if of.err != nil {
		log.Printf("Active order fetch failed, keeping default cart: %v", of.err)
	}

	payload := defaults

	if cf.customer != nil {
		payload.Customer.FirstName = cf.customer.FirstName
		payload.Customer.LastName = cf.customer.LastName
		payload.Customer.Email = cf.customer.EmailAddress
	}

	if of.order != nil {
		payload.Cart = cartFromOrder(of.order)
		if of.order.CurrencyCode != "" {
			payload.Currency = of.order.CurrencyCode
		}

		// Address fields come from the order even when empty; they never
		// fall back to the default payload's address.
		var addr models.OrderAddress
		if of.order.ShippingAddress != nil {
			addr = *of.order.ShippingAddress
		}
		payload.Customer.Country = addr.Country
		payload.Customer.Address = addr.StreetLine1
		payload.Customer.City = addr.City
		payload.Customer.State = addr.Province
		payload.Customer.PostCode = addr.PostalCode
		payload.Customer.Phone = addr.PhoneNumber

		if a.store != nil {
			if err := a.store.SetActiveOrderMarker(a.sessionID, of.order.Code); err != nil {
				log.Printf("Failed to record active-order marker for session %s: %v", a.sessionID, err)
			}
		}
	}

	return payload, nil
}

// cartFromOrder maps backend order lines onto the provider cart shape,
// converting minor-unit amounts to major units exactly once. Line order is
// preserved as returned by the backend.
func cartFromOrder(order *models.Order) models.Cart {
	items := make([]models.CartItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, models.CartItem{
			Description:      line.ProductVariant.Name,
			Quantity:         line.Quantity,
			UnitPrice:        utils.MinorToMajor(line.UnitPriceWithTax),
			Discount:         0,
			Taxes:            0,
			ProductReference: line.ProductVariant.ID,
			Name:             line.ProductVariant.Name,
			LineTotal:        utils.MinorToMajor(line.LinePriceWithTax),
		})
	}
	return models.Cart{
		Total: utils.MinorToMajor(order.TotalWithTax),
		Items: items,
	}
}
