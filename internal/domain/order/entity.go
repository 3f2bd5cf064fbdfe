package order

import (
	"errors"
	"strings"
	"time"

	"order-pipeline/internal/domain/cart"
	"order-pipeline/internal/domain/customer"

	"github.com/google/uuid"
)

var (
	ErrTenantRequired       = errors.New("tenant id is required")
	ErrInvalidNumbers       = errors.New("order and invoice numbers must be positive")
	ErrCustomerAmbiguous    = errors.New("order must reference exactly one of customer id or manual customer")
	ErrOrderAlreadyCanceled = errors.New("order is already canceled")
)

type Order struct {
	id             uuid.UUID
	tenantID       string
	numbers        Numbers
	cartID         string
	customerID     *uuid.UUID
	manualCustomer *customer.Snapshot
	items          []LineItem
	pricing        PricingSummary
	status         Status
	idempotencyKey string
	createdAt      time.Time
	updatedAt      time.Time
}

type NewOrderParams struct {
	TenantID       string
	Numbers        Numbers
	Cart           cart.Cart
	Customer       customer.Identity
	Pricing        PricingSummary
	IdempotencyKey string
}

func NewOrder(p NewOrderParams, now time.Time) (*Order, error) {
	if strings.TrimSpace(p.TenantID) == "" {
		return nil, ErrTenantRequired
	}
	if p.Numbers.OrderNumber <= 0 || p.Numbers.InvoiceNumber <= 0 {
		return nil, ErrInvalidNumbers
	}
	if err := p.Cart.Validate(); err != nil {
		return nil, err
	}
	if err := p.Customer.Validate(); err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(p.Cart.Items))
	for _, it := range p.Cart.Items {
		items = append(items, LineItem{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			Options:        it.Options,
			UnitPriceCents: it.Pricing.UnitPriceCents,
			LineTotalCents: it.Pricing.LineTotalCents,
		})
	}

	var customerID *uuid.UUID
	if p.Customer.ID != nil {
		id := *p.Customer.ID
		customerID = &id
	}

	return &Order{
		id:             uuid.New(),
		tenantID:       p.TenantID,
		numbers:        p.Numbers,
		cartID:         p.Cart.ID,
		customerID:     customerID,
		manualCustomer: p.Customer.Snapshot(),
		items:          items,
		pricing:        p.Pricing,
		status:         StatusPlaced,
		idempotencyKey: p.IdempotencyKey,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func Reconstruct(
	id uuid.UUID,
	tenantID string,
	numbers Numbers,
	cartID string,
	customerID *uuid.UUID,
	manualCustomer *customer.Snapshot,
	items []LineItem,
	pricing PricingSummary,
	status Status,
	idempotencyKey string,
	createdAt, updatedAt time.Time,
) (*Order, error) {
	if (customerID == nil) == (manualCustomer == nil) {
		return nil, ErrCustomerAmbiguous
	}
	return &Order{
		id:             id,
		tenantID:       tenantID,
		numbers:        numbers,
		cartID:         cartID,
		customerID:     customerID,
		manualCustomer: manualCustomer,
		items:          items,
		pricing:        pricing,
		status:         status,
		idempotencyKey: idempotencyKey,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}, nil
}

func (o *Order) Cancel(now time.Time) error {
	if o.status == StatusCanceled {
		return ErrOrderAlreadyCanceled
	}
	o.status = StatusCanceled
	o.updatedAt = now
	return nil
}

func (o *Order) ID() uuid.UUID                      { return o.id }
func (o *Order) TenantID() string                   { return o.tenantID }
func (o *Order) Numbers() Numbers                   { return o.numbers }
func (o *Order) CartID() string                     { return o.cartID }
func (o *Order) CustomerID() *uuid.UUID             { return o.customerID }
func (o *Order) ManualCustomer() *customer.Snapshot { return o.manualCustomer }
func (o *Order) Items() []LineItem                  { return o.items }
func (o *Order) Pricing() PricingSummary            { return o.pricing }
func (o *Order) Status() Status                     { return o.status }
func (o *Order) IdempotencyKey() string             { return o.idempotencyKey }
func (o *Order) CreatedAt() time.Time               { return o.createdAt }
func (o *Order) UpdatedAt() time.Time               { return o.updatedAt }
