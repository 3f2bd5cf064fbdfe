package repository

import (
	"context"
	"log/slog"
	"time"

	"order-pipeline/internal/domain/cart"
	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/domain/order"
	"order-pipeline/internal/infra"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	insertOrder = `
INSERT INTO orders (
	id, tenant_id, order_number, invoice_number, cart_id, customer_id, manual_customer,
	subtotal_cents, adjustments, final_total_cents, status, idempotency_key, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9::jsonb, $10, $11, $12, $13, $14)`

	insertOrderItem = `
INSERT INTO order_items (
	order_id, position, product_id, quantity, options, unit_price_cents, line_total_cents
) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`

	selectOrderColumns = `
SELECT id, tenant_id, order_number, invoice_number, cart_id, customer_id, manual_customer,
	subtotal_cents, adjustments, final_total_cents, status, idempotency_key, created_at, updated_at
FROM orders
WHERE tenant_id = $1 AND id = $2`

	selectOrderItems = `
SELECT product_id, quantity, options, unit_price_cents, line_total_cents
FROM order_items
WHERE order_id = $1
ORDER BY position`

	updateOrderStatus = `
UPDATE orders
SET status = $3, updated_at = $4
WHERE tenant_id = $1 AND id = $2`
)

type OrderRepository struct {
	logger *slog.Logger
}

func NewOrderRepository(logger *slog.Logger) *OrderRepository {
	return &OrderRepository{logger: logger}
}

func (r *OrderRepository) Create(ctx context.Context, tx db.DBTX, o *order.Order) error {
	var manual any
	if o.ManualCustomer() != nil {
		manual = o.ManualCustomer()
	}
	manualJSON, err := pgconv.JSONB(manual)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode manual customer", err)
	}
	adjustments := o.Pricing().Adjustments
	if adjustments == nil {
		adjustments = []order.Adjustment{}
	}
	adjJSON, err := pgconv.JSONB(adjustments)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode adjustments", err)
	}

	_, err = tx.Exec(ctx, insertOrder,
		o.ID(),
		o.TenantID(),
		o.Numbers().OrderNumber,
		o.Numbers().InvoiceNumber,
		o.CartID(),
		pgconv.UUIDPtrToPgtype(o.CustomerID()),
		manualJSON,
		o.Pricing().SubtotalCents,
		adjJSON,
		o.Pricing().FinalTotalCents,
		o.Status().String(),
		o.IdempotencyKey(),
		pgconv.TimeToPgtype(o.CreatedAt()),
		pgconv.TimeToPgtype(o.UpdatedAt()),
	)
	if err != nil {
		if pgconv.IsUniqueViolation(err) {
			return infra.WrapRepoErr(r.logger, infra.KindDuplicateKey, "order already exists", err)
		}
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to insert order", err)
	}

	for i, item := range o.Items() {
		options := item.Options
		if options == nil {
			options = []cart.Option{}
		}
		optJSON, err := pgconv.JSONB(options)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode item options", err)
		}
		_, err = tx.Exec(ctx, insertOrderItem,
			o.ID(), i, item.ProductID, item.Quantity, optJSON, item.UnitPriceCents, item.LineTotalCents)
		if err != nil {
			return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to insert order item", err)
		}
	}

	return nil
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, tx db.DBTX, tenantID string, id uuid.UUID) (*order.Order, error) {
	o, err := FetchOrder(ctx, tx, selectOrderColumns+" FOR UPDATE", tenantID, id)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "order not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to lock order", err)
	}
	return o, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, tx db.DBTX, o *order.Order) error {
	tag, err := tx.Exec(ctx, updateOrderStatus, o.TenantID(), o.ID(), o.Status().String(), pgconv.TimeToPgtype(o.UpdatedAt()))
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update order status", err)
	}
	if tag.RowsAffected() != 1 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "order not found", nil)
	}
	return nil
}

// FetchOrder loads an order and its items with the given header query and
// its arguments. Shared with the read store so both sides decode rows the same way.
func FetchOrder(ctx context.Context, q db.DBTX, headerSQL string, args ...any) (*order.Order, error) {
	var (
		rowID          uuid.UUID
		rowTenant      string
		numbers        order.Numbers
		cartID         string
		customerID     *uuid.UUID
		manualRaw      []byte
		subtotal       int64
		adjRaw         []byte
		finalTotal     int64
		status         string
		idempotencyKey string
		createdAt      time.Time
		updatedAt      time.Time
	)
	err := q.QueryRow(ctx, headerSQL, args...).Scan(
		&rowID, &rowTenant, &numbers.OrderNumber, &numbers.InvoiceNumber, &cartID, &customerID, &manualRaw,
		&subtotal, &adjRaw, &finalTotal, &status, &idempotencyKey, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var manual *customer.Snapshot
	if len(manualRaw) > 0 {
		manual = &customer.Snapshot{}
		if err := pgconv.FromJSONB(manualRaw, manual); err != nil {
			return nil, err
		}
	}
	var adjustments []order.Adjustment
	if err := pgconv.FromJSONB(adjRaw, &adjustments); err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, selectOrderItems, rowID)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.LineItem, error) {
		var (
			it     order.LineItem
			optRaw []byte
		)
		if err := row.Scan(&it.ProductID, &it.Quantity, &optRaw, &it.UnitPriceCents, &it.LineTotalCents); err != nil {
			return it, err
		}
		if err := pgconv.FromJSONB(optRaw, &it.Options); err != nil {
			return it, err
		}
		return it, nil
	})
	if err != nil {
		return nil, err
	}

	return order.Reconstruct(
		rowID,
		rowTenant,
		numbers,
		cartID,
		customerID,
		manual,
		items,
		order.PricingSummary{SubtotalCents: subtotal, Adjustments: adjustments, FinalTotalCents: finalTotal},
		order.Status(status),
		idempotencyKey,
		createdAt,
		updatedAt,
	)
}
