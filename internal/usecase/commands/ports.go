package commands

import (
	"context"
	"time"

	"order-pipeline/internal/usecase/shared"

	"github.com/google/uuid"
)

type CartLocker interface {
	Acquire(ctx context.Context, tenantID, cartID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, tenantID, cartID string) error
}

type IdempotencyStore interface {
	Reserve(ctx context.Context, tenantID, key, requestHash string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, tenantID, key string) (*shared.IdempotencyRecord, error)
	Complete(ctx context.Context, tenantID, key, requestHash string, orderID uuid.UUID, ttl time.Duration) error
	Fail(ctx context.Context, tenantID, key, requestHash string, failure shared.IdempotencyFailure, ttl time.Duration) error
}

type SequenceGenerator interface {
	Next(ctx context.Context, tenantID string, name shared.SequenceName) (int64, error)
}

type ReadCacheInvalidator interface {
	Invalidate(ctx context.Context, tenantID, cartID string) error
}

type MailDispatcher interface {
	EnqueueOrderPlaced(ctx context.Context, job shared.OrderPlacedMail) error
}

type OrderMetrics interface {
	ObservePlacement(outcome string, elapsed time.Duration)
	LockContended()
	MailEnqueueFailed()
}
