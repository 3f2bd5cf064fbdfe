package cart

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCartID      = errors.New("cart id is required")
	ErrEmptyCart        = errors.New("cart has no items")
	ErrInvalidProductID = errors.New("product id is required")
	ErrInvalidQuantity  = errors.New("quantity must be positive")
	ErrNegativePrice    = errors.New("price cannot be negative")
)

// Cart is the typed snapshot of a shopping cart submitted for checkout.
type Cart struct {
	ID    string
	Items []Item
}

type Item struct {
	ProductID string
	Quantity  int
	Options   []Option
	Pricing   Pricing
}

// Option is a customer-selected variant such as size or engraving text.
type Option struct {
	Name            string `json:"name"`
	Value           string `json:"value"`
	PriceDeltaCents int64  `json:"priceDeltaCents"`
}

// Pricing is taken from the client as-is; it is never recomputed server side.
type Pricing struct {
	UnitPriceCents int64
	LineTotalCents int64
}

func (c Cart) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCartID
	}
	if len(c.Items) == 0 {
		return ErrEmptyCart
	}
	for i, it := range c.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func (it Item) Validate() error {
	if strings.TrimSpace(it.ProductID) == "" {
		return ErrInvalidProductID
	}
	if it.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if it.Pricing.UnitPriceCents < 0 || it.Pricing.LineTotalCents < 0 {
		return ErrNegativePrice
	}
	return nil
}

// Demand sums quantities per product. Carts may list the same product twice
// with different options, and stock is checked against the combined amount.
func (c Cart) Demand() map[string]int {
	out := make(map[string]int, len(c.Items))
	for _, it := range c.Items {
		out[it.ProductID] += it.Quantity
	}
	return out
}
