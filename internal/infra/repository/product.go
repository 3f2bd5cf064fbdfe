package repository

import (
	"context"
	"log/slog"

	"order-pipeline/internal/domain/product"
	"order-pipeline/internal/infra"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/pkg/pgconv"
	"order-pipeline/internal/usecase/shared"
)

const (
	selectInventoryForUpdate = `
SELECT quantity, tracking_enabled
FROM products
WHERE tenant_id = $1 AND id = $2
FOR UPDATE`

	updateInventoryQuantity = `
UPDATE products
SET quantity = $3, updated_at = now()
WHERE tenant_id = $1 AND id = $2`
)

// ProductRepository is the inventory ledger. Every method runs on the caller's
// transaction; the row stays locked until that transaction ends.
type ProductRepository struct {
	logger *slog.Logger
}

func NewProductRepository(logger *slog.Logger) *ProductRepository {
	return &ProductRepository{logger: logger}
}

func (r *ProductRepository) ValidateAndDecrement(ctx context.Context, tx db.DBTX, tenantID string, demand shared.ItemDemand) (product.Inventory, error) {
	inv, err := r.lockInventory(ctx, tx, tenantID, demand.ProductID)
	if err != nil {
		return product.Inventory{}, err
	}

	next, err := inv.Reserve(demand.Quantity)
	if err != nil {
		return inv, err
	}
	if !next.TrackingEnabled {
		return next, nil
	}

	if err := r.writeQuantity(ctx, tx, tenantID, next); err != nil {
		return inv, err
	}
	return next, nil
}

func (r *ProductRepository) Restore(ctx context.Context, tx db.DBTX, tenantID string, demand shared.ItemDemand) (product.Inventory, error) {
	inv, err := r.lockInventory(ctx, tx, tenantID, demand.ProductID)
	if err != nil {
		return product.Inventory{}, err
	}

	next, err := inv.Restock(demand.Quantity)
	if err != nil {
		return inv, err
	}
	if !next.TrackingEnabled {
		return next, nil
	}

	if err := r.writeQuantity(ctx, tx, tenantID, next); err != nil {
		return inv, err
	}
	return next, nil
}

func (r *ProductRepository) lockInventory(ctx context.Context, tx db.DBTX, tenantID, productID string) (product.Inventory, error) {
	inv := product.Inventory{ProductID: productID}
	err := tx.QueryRow(ctx, selectInventoryForUpdate, tenantID, productID).Scan(&inv.Quantity, &inv.TrackingEnabled)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return product.Inventory{}, infra.WrapRepoErr(r.logger, infra.KindNotFound, "product not found: "+productID, err)
		}
		return product.Inventory{}, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to lock product inventory", err)
	}
	return inv, nil
}

func (r *ProductRepository) writeQuantity(ctx context.Context, tx db.DBTX, tenantID string, inv product.Inventory) error {
	tag, err := tx.Exec(ctx, updateInventoryQuantity, tenantID, inv.ProductID, inv.Quantity)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update product inventory", err)
	}
	if tag.RowsAffected() != 1 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "product not found: "+inv.ProductID, nil)
	}
	return nil
}
