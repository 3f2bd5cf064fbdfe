//go:build unit || e2e

package builder

import (
	"time"

	"order-pipeline/internal/domain/cart"
	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/domain/order"
	reqdto "order-pipeline/internal/handler/dto/request"
	"order-pipeline/internal/usecase/commands"
	"order-pipeline/internal/usecase/queries"

	"github.com/google/uuid"
)

const DefaultTenant = "tenant-a"

type OrderBuilder struct {
	TenantID       string
	IdempotencyKey string
	CartID         string
	Items          []cart.Item
	CustomerID     *uuid.UUID
	Contact        customer.Contact
	Adjustments    []order.Adjustment
	CreatedAt      time.Time
}

// NewOrderBuilder starts from a two-line cart for a manual customer.
func NewOrderBuilder() *OrderBuilder {
	name := "Jane Doe"
	email := "jane@example.com"
	return &OrderBuilder{
		TenantID:       DefaultTenant,
		IdempotencyKey: uuid.NewString(),
		CartID:         "cart-" + uuid.NewString()[:8],
		Items: []cart.Item{
			{
				ProductID: "prod-apple",
				Quantity:  2,
				Options:   []cart.Option{{Name: "size", Value: "L", PriceDeltaCents: 50}},
				Pricing:   cart.Pricing{UnitPriceCents: 300, LineTotalCents: 600},
			},
			{
				ProductID: "prod-bread",
				Quantity:  1,
				Pricing:   cart.Pricing{UnitPriceCents: 450, LineTotalCents: 450},
			},
		},
		Contact: customer.Contact{
			Name:  &name,
			Email: &email,
			DeliveryAddress: &customer.Address{
				Line1:      "1 Main St",
				City:       "Springfield",
				PostalCode: "12345",
				Country:    "US",
			},
		},
		Adjustments: []order.Adjustment{{Code: "PROMO10", Label: "10% off", AmountCents: -105}},
		CreatedAt:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func (b *OrderBuilder) With(mutate func(*OrderBuilder)) *OrderBuilder {
	mutate(b)
	return b
}

func (b *OrderBuilder) WithTenant(tenantID string) *OrderBuilder {
	b.TenantID = tenantID
	return b
}

func (b *OrderBuilder) WithKey(key string) *OrderBuilder {
	b.IdempotencyKey = key
	return b
}

func (b *OrderBuilder) WithCart(cartID string) *OrderBuilder {
	b.CartID = cartID
	return b
}

func (b *OrderBuilder) WithItem(productID string, qty int) *OrderBuilder {
	b.Items = append(b.Items, cart.Item{
		ProductID: productID,
		Quantity:  qty,
		Pricing:   cart.Pricing{UnitPriceCents: 100, LineTotalCents: int64(qty) * 100},
	})
	return b
}

func (b *OrderBuilder) WithOnlyItem(productID string, qty int) *OrderBuilder {
	b.Items = nil
	return b.WithItem(productID, qty)
}

// WithExistingCustomer references a stored customer. contact may be empty.
func (b *OrderBuilder) WithExistingCustomer(id uuid.UUID, contact customer.Contact) *OrderBuilder {
	b.CustomerID = &id
	b.Contact = contact
	return b
}

func (b *OrderBuilder) Pricing() order.PricingSummary {
	var subtotal, adj int64
	for _, it := range b.Items {
		subtotal += it.Pricing.LineTotalCents
	}
	for _, a := range b.Adjustments {
		adj += a.AmountCents
	}
	return order.PricingSummary{
		SubtotalCents:   subtotal,
		Adjustments:     b.Adjustments,
		FinalTotalCents: subtotal + adj,
	}
}

// Build methods
func (b *OrderBuilder) BuildInput() commands.PlaceOrderInput {
	return commands.PlaceOrderInput{
		TenantID:       b.TenantID,
		IdempotencyKey: b.IdempotencyKey,
		Cart:           cart.Cart{ID: b.CartID, Items: b.Items},
		Customer:       customer.Identity{ID: b.CustomerID, Contact: b.Contact},
		Pricing:        b.Pricing(),
	}
}

func (b *OrderBuilder) BuildDomain(numbers order.Numbers) (*order.Order, error) {
	in := b.BuildInput()
	return order.NewOrder(order.NewOrderParams{
		TenantID:       in.TenantID,
		Numbers:        numbers,
		Cart:           in.Cart,
		Customer:       in.Customer,
		Pricing:        in.Pricing,
		IdempotencyKey: in.IdempotencyKey,
	}, b.CreatedAt)
}

func (b *OrderBuilder) BuildView() *queries.OrderView {
	o, err := b.BuildDomain(order.Numbers{OrderNumber: 1, InvoiceNumber: 1})
	if err != nil {
		panic(err)
	}
	return queries.NewOrderView(o)
}

func (b *OrderBuilder) BuildRequestDTO() reqdto.PlaceOrderRequest {
	items := make([]reqdto.CartItemRequest, 0, len(b.Items))
	for _, it := range b.Items {
		var options []reqdto.OptionRequest
		for _, o := range it.Options {
			options = append(options, reqdto.OptionRequest{Name: o.Name, Value: o.Value, PriceDelta: o.PriceDeltaCents})
		}
		items = append(items, reqdto.CartItemRequest{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Options:   options,
			Pricing: reqdto.LinePricingRequest{
				UnitPrice: it.Pricing.UnitPriceCents,
				LineTotal: it.Pricing.LineTotalCents,
			},
		})
	}

	cust := reqdto.CustomerRequest{
		CustomerID: b.CustomerID,
		Name:       b.Contact.Name,
		Phone:      b.Contact.Phone,
		Email:      b.Contact.Email,
	}
	if a := b.Contact.DeliveryAddress; a != nil {
		cust.DeliveryAddress = &reqdto.AddressRequest{
			Line1: a.Line1, Line2: a.Line2, City: a.City, PostalCode: a.PostalCode, Country: a.Country,
		}
	}

	pricing := b.Pricing()
	var adjustments []reqdto.AdjustmentRequest
	for _, a := range pricing.Adjustments {
		adjustments = append(adjustments, reqdto.AdjustmentRequest{Code: a.Code, Label: a.Label, Amount: a.AmountCents})
	}

	return reqdto.PlaceOrderRequest{
		Cart:     reqdto.CartRequest{ID: b.CartID, Items: items},
		Customer: cust,
		Pricing: reqdto.PricingRequest{
			Subtotal:    pricing.SubtotalCents,
			Adjustments: adjustments,
			FinalTotal:  pricing.FinalTotalCents,
		},
	}
}
