package readstore

import (
	"context"
	"log/slog"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/infra/repository"
	"order-pipeline/internal/pkg/pgconv"
	"order-pipeline/internal/usecase/queries"

	"github.com/google/uuid"
)

const selectOrderHeader = `
SELECT id, tenant_id, order_number, invoice_number, cart_id, customer_id, manual_customer,
	subtotal_cents, adjustments, final_total_cents, status, idempotency_key, created_at, updated_at
FROM orders`

const (
	selectOrderView      = selectOrderHeader + ` WHERE tenant_id = $1 AND id = $2`
	selectOrderViewByKey = selectOrderHeader + ` WHERE tenant_id = $1 AND idempotency_key = $2`
)

type OrderReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewOrderReadStore(conn db.DBTX, logger *slog.Logger) *OrderReadStore {
	return &OrderReadStore{db: conn, logger: logger}
}

func (r *OrderReadStore) FindByID(ctx context.Context, tenantID string, id uuid.UUID) (*queries.OrderView, error) {
	o, err := repository.FetchOrder(ctx, r.db, selectOrderView, tenantID, id)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "order not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get order view by id", err)
	}
	return queries.NewOrderView(o), nil
}

func (r *OrderReadStore) FindByIdempotencyKey(ctx context.Context, tenantID, key string) (*queries.OrderView, error) {
	o, err := repository.FetchOrder(ctx, r.db, selectOrderViewByKey, tenantID, key)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "order not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to get order view by idempotency key", err)
	}
	return queries.NewOrderView(o), nil
}
