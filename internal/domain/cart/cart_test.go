//go:build unit

package cart_test

import (
	"testing"

	"order-pipeline/internal/domain/cart"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func validCart() cart.Cart {
	return cart.Cart{
		ID: "cart-1",
		Items: []cart.Item{
			{ProductID: "p1", Quantity: 2, Pricing: cart.Pricing{UnitPriceCents: 100, LineTotalCents: 200}},
			{ProductID: "p2", Quantity: 1, Pricing: cart.Pricing{UnitPriceCents: 50, LineTotalCents: 50}},
		},
	}
}

func TestCartValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*cart.Cart)
		errIs  error
	}{
		{name: "valid cart", mutate: func(*cart.Cart) {}},
		{name: "blank id", mutate: func(c *cart.Cart) { c.ID = "  " }, errIs: cart.ErrEmptyCartID},
		{name: "no items", mutate: func(c *cart.Cart) { c.Items = nil }, errIs: cart.ErrEmptyCart},
		{name: "missing product id", mutate: func(c *cart.Cart) { c.Items[1].ProductID = "" }, errIs: cart.ErrInvalidProductID},
		{name: "zero quantity", mutate: func(c *cart.Cart) { c.Items[0].Quantity = 0 }, errIs: cart.ErrInvalidQuantity},
		{name: "negative quantity", mutate: func(c *cart.Cart) { c.Items[0].Quantity = -1 }, errIs: cart.ErrInvalidQuantity},
		{name: "negative unit price", mutate: func(c *cart.Cart) { c.Items[0].Pricing.UnitPriceCents = -1 }, errIs: cart.ErrNegativePrice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCart()
			tc.mutate(&c)
			err := c.Validate()
			if tc.errIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.errIs)
		})
	}
}

func TestCartDemand(t *testing.T) {
	t.Run("sums repeated products across lines", func(t *testing.T) {
		c := validCart()
		c.Items = append(c.Items, cart.Item{
			ProductID: "p1",
			Quantity:  3,
			Options:   []cart.Option{{Name: "color", Value: "red"}},
		})

		want := map[string]int{"p1": 5, "p2": 1}
		if diff := cmp.Diff(want, c.Demand()); diff != "" {
			t.Errorf("Demand mismatch (-want +got):\n%s", diff)
		}
	})
}
