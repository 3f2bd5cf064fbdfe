package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type IdempotencyStore struct {
	rdb    redis.Cmdable
	logger *slog.Logger
}

func NewIdempotencyStore(rdb redis.Cmdable, logger *slog.Logger) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, logger: logger}
}

// Reserve writes a processing record only if none exists.
func (s *IdempotencyStore) Reserve(ctx context.Context, tenantID, key, requestHash string, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(shared.IdempotencyRecord{
		Status:      shared.IdempotencyProcessing,
		RequestHash: requestHash,
	})
	if err != nil {
		return false, err
	}
	ok, err := s.rdb.SetNX(ctx, IdempotencyKey(tenantID, key), payload, ttl).Result()
	if err != nil {
		return false, infra.WrapRepoErr(s.logger, infra.KindCacheFailure, "failed to reserve idempotency key", err)
	}
	return ok, nil
}

// Get returns nil, nil when the key is absent or expired.
func (s *IdempotencyStore) Get(ctx context.Context, tenantID, key string) (*shared.IdempotencyRecord, error) {
	raw, err := s.rdb.Get(ctx, IdempotencyKey(tenantID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr(s.logger, infra.KindCacheFailure, "failed to read idempotency key", err)
	}
	var rec shared.IdempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, infra.WrapRepoErr(s.logger, infra.KindCacheFailure, "corrupt idempotency record", err)
	}
	return &rec, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, tenantID, key, requestHash string, orderID uuid.UUID, ttl time.Duration) error {
	return s.finalize(ctx, tenantID, key, shared.IdempotencyRecord{
		Status:      shared.IdempotencyCompleted,
		RequestHash: requestHash,
		OrderID:     &orderID,
	}, ttl)
}

func (s *IdempotencyStore) Fail(ctx context.Context, tenantID, key, requestHash string, failure shared.IdempotencyFailure, ttl time.Duration) error {
	return s.finalize(ctx, tenantID, key, shared.IdempotencyRecord{
		Status:      shared.IdempotencyFailed,
		RequestHash: requestHash,
		ErrorKind:   failure.Kind,
		Error:       failure.Message,
		ErrorDetail: failure.Detail,
	}, ttl)
}

func (s *IdempotencyStore) finalize(ctx context.Context, tenantID, key string, rec shared.IdempotencyRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, IdempotencyKey(tenantID, key), payload, ttl).Err(); err != nil {
		return infra.WrapRepoErr(s.logger, infra.KindCacheFailure, "failed to finalize idempotency key", err)
	}
	return nil
}
