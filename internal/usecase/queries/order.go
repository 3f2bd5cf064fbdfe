package queries

//go:generate mockgen -source=order.go -destination=../../../tests/mock/queries/order_mock.go -package=queriesmock

import (
	"context"
	"errors"
	"time"

	"order-pipeline/internal/domain/cart"
	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/domain/order"
	"order-pipeline/internal/infra"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderView is the read model returned to clients and replayed for
// completed idempotency keys.
type OrderView struct {
	ID              uuid.UUID          `json:"id"`
	TenantID        string             `json:"tenant_id"`
	OrderNumber     int64              `json:"order_number"`
	InvoiceNumber   int64              `json:"invoice_number"`
	CartID          string             `json:"cart_id"`
	CustomerID      *uuid.UUID         `json:"customer_id,omitempty"`
	ManualCustomer  *customer.Snapshot `json:"manual_customer,omitempty"`
	Items           []OrderItemView    `json:"items"`
	SubtotalCents   int64              `json:"subtotal_cents"`
	Adjustments     []order.Adjustment `json:"adjustments"`
	FinalTotalCents int64              `json:"final_total_cents"`
	Status          string             `json:"status"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type OrderItemView struct {
	ProductID      string        `json:"product_id"`
	Quantity       int           `json:"quantity"`
	Options        []cart.Option `json:"options"`
	UnitPriceCents int64         `json:"unit_price_cents"`
	LineTotalCents int64         `json:"line_total_cents"`
}

func NewOrderView(o *order.Order) *OrderView {
	items := make([]OrderItemView, 0, len(o.Items()))
	for _, it := range o.Items() {
		options := it.Options
		if options == nil {
			options = []cart.Option{}
		}
		items = append(items, OrderItemView{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			Options:        options,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: it.LineTotalCents,
		})
	}
	adjustments := o.Pricing().Adjustments
	if adjustments == nil {
		adjustments = []order.Adjustment{}
	}
	return &OrderView{
		ID:              o.ID(),
		TenantID:        o.TenantID(),
		OrderNumber:     o.Numbers().OrderNumber,
		InvoiceNumber:   o.Numbers().InvoiceNumber,
		CartID:          o.CartID(),
		CustomerID:      o.CustomerID(),
		ManualCustomer:  o.ManualCustomer(),
		Items:           items,
		SubtotalCents:   o.Pricing().SubtotalCents,
		Adjustments:     adjustments,
		FinalTotalCents: o.Pricing().FinalTotalCents,
		Status:          o.Status().String(),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
	}
}

type OrderReadStore interface {
	FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*OrderView, error)
	FindByIdempotencyKey(ctx context.Context, tenantID, key string) (*OrderView, error)
}

type OrderQueries interface {
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*OrderView, error)
	// GetByIdempotencyKey finds the order a request key already produced.
	GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*OrderView, error)
}

type orderQueriesImpl struct {
	store OrderReadStore
}

func NewOrderQueries(store OrderReadStore) OrderQueries {
	return &orderQueriesImpl{store: store}
}

func (q *orderQueriesImpl) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*OrderView, error) {
	view, err := q.store.FindByID(ctx, tenantID, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return view, nil
}

func (q *orderQueriesImpl) GetByIdempotencyKey(ctx context.Context, tenantID, key string) (*OrderView, error) {
	view, err := q.store.FindByIdempotencyKey(ctx, tenantID, key)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return view, nil
}
