package request

import (
	"strings"

	"order-pipeline/internal/domain/cart"
	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/domain/order"
	"order-pipeline/internal/usecase/commands"

	"github.com/google/uuid"
)

// Monetary amounts are integer cents.
type PlaceOrderRequest struct {
	Cart     CartRequest     `json:"cart"`
	Customer CustomerRequest `json:"customer"`
	Pricing  PricingRequest  `json:"pricing"`
}

type CartRequest struct {
	ID    string            `json:"id" binding:"required,max=128"`
	Items []CartItemRequest `json:"items" binding:"required,min=1,dive"`
}

type CartItemRequest struct {
	ProductID string             `json:"productId" binding:"required,max=128"`
	Quantity  int                `json:"quantity" binding:"required,gt=0"`
	Options   []OptionRequest    `json:"options" binding:"omitempty,dive"`
	Pricing   LinePricingRequest `json:"pricing"`
}

type OptionRequest struct {
	Name       string `json:"name" binding:"required"`
	Value      string `json:"value"`
	PriceDelta int64  `json:"priceDelta"`
}

type LinePricingRequest struct {
	UnitPrice int64 `json:"unitPrice" binding:"gte=0"`
	LineTotal int64 `json:"lineTotal" binding:"gte=0"`
}

type CustomerRequest struct {
	CustomerID      *uuid.UUID      `json:"customerId,omitempty"`
	Name            *string         `json:"name,omitempty" binding:"omitempty,max=200"`
	Phone           *string         `json:"phone,omitempty" binding:"omitempty,max=50"`
	Email           *string         `json:"email,omitempty" binding:"omitempty,max=254"`
	DeliveryAddress *AddressRequest `json:"deliveryAddress,omitempty"`
}

type AddressRequest struct {
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

type PricingRequest struct {
	Subtotal    int64               `json:"subtotal" binding:"gte=0"`
	Adjustments []AdjustmentRequest `json:"adjustments" binding:"omitempty,dive"`
	FinalTotal  int64               `json:"finalTotal" binding:"gte=0"`
}

type AdjustmentRequest struct {
	Code   string `json:"code" binding:"required"`
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

func (r PlaceOrderRequest) ToInput(tenantID, idempotencyKey string) commands.PlaceOrderInput {
	items := make([]cart.Item, 0, len(r.Cart.Items))
	for _, it := range r.Cart.Items {
		options := make([]cart.Option, 0, len(it.Options))
		for _, o := range it.Options {
			options = append(options, cart.Option{
				Name:            strings.TrimSpace(o.Name),
				Value:           o.Value,
				PriceDeltaCents: o.PriceDelta,
			})
		}
		items = append(items, cart.Item{
			ProductID: strings.TrimSpace(it.ProductID),
			Quantity:  it.Quantity,
			Options:   options,
			Pricing: cart.Pricing{
				UnitPriceCents: it.Pricing.UnitPrice,
				LineTotalCents: it.Pricing.LineTotal,
			},
		})
	}

	adjustments := make([]order.Adjustment, 0, len(r.Pricing.Adjustments))
	for _, a := range r.Pricing.Adjustments {
		adjustments = append(adjustments, order.Adjustment{
			Code:        a.Code,
			Label:       a.Label,
			AmountCents: a.Amount,
		})
	}

	return commands.PlaceOrderInput{
		TenantID:       tenantID,
		IdempotencyKey: idempotencyKey,
		Cart: cart.Cart{
			ID:    strings.TrimSpace(r.Cart.ID),
			Items: items,
		},
		Customer: r.Customer.toIdentity(),
		Pricing: order.PricingSummary{
			SubtotalCents:   r.Pricing.Subtotal,
			Adjustments:     adjustments,
			FinalTotalCents: r.Pricing.FinalTotal,
		},
	}
}

func (r CustomerRequest) toIdentity() customer.Identity {
	contact := customer.Contact{
		Name:  trimmed(r.Name),
		Phone: trimmed(r.Phone),
		Email: trimmed(r.Email),
	}
	if r.DeliveryAddress != nil {
		contact.DeliveryAddress = &customer.Address{
			Line1:      r.DeliveryAddress.Line1,
			Line2:      r.DeliveryAddress.Line2,
			City:       r.DeliveryAddress.City,
			PostalCode: r.DeliveryAddress.PostalCode,
			Country:    r.DeliveryAddress.Country,
		}
	}
	return customer.Identity{ID: r.CustomerID, Contact: contact}
}

// trimmed treats blank strings as not supplied.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
