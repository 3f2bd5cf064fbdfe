package repository

import (
	"context"
	"log/slog"
	"time"

	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/infra"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/pkg/pgconv"

	"github.com/google/uuid"
)

const (
	selectCustomerForUpdate = `
SELECT id, tenant_id, name, phone, email, delivery_address, updated_at
FROM customers
WHERE tenant_id = $1 AND id = $2
FOR UPDATE`

	updateCustomerContact = `
UPDATE customers
SET name = $3, phone = $4, email = $5, delivery_address = $6::jsonb, updated_at = $7
WHERE tenant_id = $1 AND id = $2`
)

type CustomerRepository struct {
	logger *slog.Logger
}

func NewCustomerRepository(logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{logger: logger}
}

func (r *CustomerRepository) GetForUpdate(ctx context.Context, tx db.DBTX, tenantID string, id uuid.UUID) (*customer.Customer, error) {
	var (
		rowID     uuid.UUID
		rowTenant string
		name      string
		phone     string
		email     string
		addrRaw   []byte
		updatedAt time.Time
	)
	err := tx.QueryRow(ctx, selectCustomerForUpdate, tenantID, id).
		Scan(&rowID, &rowTenant, &name, &phone, &email, &addrRaw, &updatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "customer not found", err)
		}
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to lock customer", err)
	}

	var addr *customer.Address
	if len(addrRaw) > 0 {
		addr = &customer.Address{}
		if err := pgconv.FromJSONB(addrRaw, addr); err != nil {
			return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to decode customer address", err)
		}
	}

	return customer.Reconstruct(rowID, rowTenant, name, phone, email, addr, updatedAt), nil
}

func (r *CustomerRepository) Update(ctx context.Context, tx db.DBTX, c *customer.Customer) error {
	var addr any
	if c.DeliveryAddress() != nil {
		addr = c.DeliveryAddress()
	}
	addrJSON, err := pgconv.JSONB(addr)
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to encode customer address", err)
	}

	tag, err := tx.Exec(ctx, updateCustomerContact,
		c.TenantID(), c.ID(), c.Name(), c.Phone(), c.Email(), addrJSON, c.UpdatedAt())
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update customer", err)
	}
	if tag.RowsAffected() != 1 {
		return infra.WrapRepoErr(r.logger, infra.KindNotFound, "customer not found", nil)
	}
	return nil
}
