//go:build unit

package product_test

import (
	"errors"
	"testing"

	"order-pipeline/internal/domain/product"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryReserve(t *testing.T) {
	t.Run("tracked stock is decremented", func(t *testing.T) {
		inv := product.Inventory{ProductID: "p1", Quantity: 5, TrackingEnabled: true}

		next, err := inv.Reserve(3)
		require.NoError(t, err)
		assert.Equal(t, 2, next.Quantity)
		assert.Equal(t, 5, inv.Quantity, "receiver must not change")
	})

	t.Run("exact stock reaches zero", func(t *testing.T) {
		next, err := product.Inventory{ProductID: "p1", Quantity: 3, TrackingEnabled: true}.Reserve(3)
		require.NoError(t, err)
		assert.Zero(t, next.Quantity)
	})

	t.Run("shortage names the product", func(t *testing.T) {
		_, err := product.Inventory{ProductID: "p1", Quantity: 3, TrackingEnabled: true}.Reserve(5)

		var short *product.InsufficientInventoryError
		require.True(t, errors.As(err, &short))
		assert.Equal(t, "p1", short.ProductID)
		assert.Equal(t, 5, short.Requested)
		assert.Equal(t, 3, short.Available)
	})

	t.Run("untracked stock is never checked", func(t *testing.T) {
		inv := product.Inventory{ProductID: "p1", Quantity: 0, TrackingEnabled: false}
		next, err := inv.Reserve(100)
		require.NoError(t, err)
		assert.Equal(t, inv, next)
	})

	t.Run("non-positive quantity rejected", func(t *testing.T) {
		_, err := product.Inventory{ProductID: "p1", Quantity: 3, TrackingEnabled: true}.Reserve(0)
		assert.ErrorIs(t, err, product.ErrInvalidQuantity)
	})
}

func TestInventoryRestock(t *testing.T) {
	t.Run("reverses a reservation", func(t *testing.T) {
		inv := product.Inventory{ProductID: "p1", Quantity: 5, TrackingEnabled: true}
		reserved, err := inv.Reserve(4)
		require.NoError(t, err)

		restored, err := reserved.Restock(4)
		require.NoError(t, err)
		assert.Equal(t, inv, restored)
	})

	t.Run("untracked stock unchanged", func(t *testing.T) {
		inv := product.Inventory{ProductID: "p1", Quantity: 7}
		next, err := inv.Restock(2)
		require.NoError(t, err)
		assert.Equal(t, 7, next.Quantity)
	})
}
