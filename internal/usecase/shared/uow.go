package shared

import (
	"context"

	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/domain/order"
	"order-pipeline/internal/domain/product"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/pkg/errs"

	"github.com/google/uuid"
)

// Marks attached by UnitOfWork implementations; match with errs.Is.
var (
	ErrTxBegin            = errs.New("failed to begin transaction")
	ErrTxCommit           = errs.New("failed to commit transaction")
	ErrTxRetriesExhausted = errs.New("transaction failed after max retries")
)

type UnitOfWork interface {
	// Within: Full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx hands out repositories for the active transaction. Every write takes the
// transaction handle explicitly; there is no way to reach the pool from here.
type Tx interface {
	Products() ProductRepository
	Customers() CustomerRepository
	Orders() OrderRepository
	DB() db.DBTX
}

// ProductRepository is the inventory ledger.
type ProductRepository interface {
	ValidateAndDecrement(ctx context.Context, tx db.DBTX, tenantID string, demand ItemDemand) (product.Inventory, error)
	Restore(ctx context.Context, tx db.DBTX, tenantID string, demand ItemDemand) (product.Inventory, error)
}

type CustomerRepository interface {
	GetForUpdate(ctx context.Context, tx db.DBTX, tenantID string, id uuid.UUID) (*customer.Customer, error)
	Update(ctx context.Context, tx db.DBTX, c *customer.Customer) error
}

type OrderRepository interface {
	Create(ctx context.Context, tx db.DBTX, o *order.Order) error
	GetForUpdate(ctx context.Context, tx db.DBTX, tenantID string, id uuid.UUID) (*order.Order, error)
	UpdateStatus(ctx context.Context, tx db.DBTX, o *order.Order) error
}
