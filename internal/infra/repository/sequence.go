package repository

import (
	"context"
	"log/slog"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/usecase/shared"
)

const nextSequenceValue = `
INSERT INTO sequence_counters (tenant_id, name, seq)
VALUES ($1, $2, 1)
ON CONFLICT (tenant_id, name) DO UPDATE SET seq = sequence_counters.seq + 1
RETURNING seq`

// SequenceRepository hands out per-tenant counters. Each call commits on its
// own; a value taken by a failed order is not reused.
type SequenceRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewSequenceRepository(conn db.DBTX, logger *slog.Logger) *SequenceRepository {
	return &SequenceRepository{db: conn, logger: logger}
}

func (r *SequenceRepository) Next(ctx context.Context, tenantID string, name shared.SequenceName) (int64, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, nextSequenceValue, tenantID, string(name)).Scan(&seq); err != nil {
		return 0, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to advance sequence "+string(name), err)
	}
	return seq, nil
}
