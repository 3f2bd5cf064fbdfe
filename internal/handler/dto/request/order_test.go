//go:build unit

package request_test

import (
	"testing"

	reqdto "order-pipeline/internal/handler/dto/request"
	"order-pipeline/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrderRequestToInput(t *testing.T) {
	t.Run("blank contact fields count as not supplied", func(t *testing.T) {
		req := builder.NewOrderBuilder().BuildRequestDTO()
		blank := "   "
		phone := " 555-0100 "
		req.Customer.Email = &blank
		req.Customer.Phone = &phone

		in := req.ToInput("t1", "key-1")

		assert.Nil(t, in.Customer.Contact.Email)
		require.NotNil(t, in.Customer.Contact.Phone)
		assert.Equal(t, "555-0100", *in.Customer.Contact.Phone)
	})

	t.Run("carries tenant, key and cents verbatim", func(t *testing.T) {
		b := builder.NewOrderBuilder()
		in := b.BuildRequestDTO().ToInput("t1", "key-1")

		assert.Equal(t, "t1", in.TenantID)
		assert.Equal(t, "key-1", in.IdempotencyKey)
		assert.Equal(t, b.CartID, in.Cart.ID)
		require.Len(t, in.Cart.Items, 2)
		assert.Equal(t, int64(600), in.Cart.Items[0].Pricing.LineTotalCents)
		assert.Equal(t, int64(50), in.Cart.Items[0].Options[0].PriceDeltaCents)
		assert.Equal(t, b.Pricing(), in.Pricing)
	})
}
