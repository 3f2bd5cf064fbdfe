package product

import (
	"errors"
	"fmt"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// InsufficientInventoryError names the product so the caller can fix the cart.
type InsufficientInventoryError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Inventory is the stock counter owned by a product.
// Tracked inventory never goes below zero.
type Inventory struct {
	ProductID       string
	Quantity        int
	TrackingEnabled bool
}

// Reserve returns the inventory after taking qty units.
// Untracked inventory is returned unchanged.
func (inv Inventory) Reserve(qty int) (Inventory, error) {
	if qty <= 0 {
		return inv, ErrInvalidQuantity
	}
	if !inv.TrackingEnabled {
		return inv, nil
	}
	if inv.Quantity < qty {
		return inv, &InsufficientInventoryError{
			ProductID: inv.ProductID,
			Requested: qty,
			Available: inv.Quantity,
		}
	}
	inv.Quantity -= qty
	return inv, nil
}

// Restock is the inverse of Reserve.
func (inv Inventory) Restock(qty int) (Inventory, error) {
	if qty <= 0 {
		return inv, ErrInvalidQuantity
	}
	if !inv.TrackingEnabled {
		return inv, nil
	}
	inv.Quantity += qty
	return inv, nil
}
