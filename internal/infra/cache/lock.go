package cache

import (
	"context"
	"log/slog"
	"time"

	"order-pipeline/internal/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CartLocker is a non-blocking TTL mutex per (tenant, cart). Expiry is the only
// recovery path for a holder that never releases.
type CartLocker struct {
	rdb    redis.Cmdable
	logger *slog.Logger
}

func NewCartLocker(rdb redis.Cmdable, logger *slog.Logger) *CartLocker {
	return &CartLocker{rdb: rdb, logger: logger}
}

// Acquire never waits. A cache failure reports false together with the error.
func (l *CartLocker) Acquire(ctx context.Context, tenantID, cartID string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, CartLockKey(tenantID, cartID), uuid.NewString(), ttl).Result()
	if err != nil {
		return false, infra.WrapRepoErr(l.logger, infra.KindCacheFailure, "failed to acquire cart lock", err)
	}
	return ok, nil
}

func (l *CartLocker) Release(ctx context.Context, tenantID, cartID string) error {
	if err := l.rdb.Del(ctx, CartLockKey(tenantID, cartID)).Err(); err != nil {
		return infra.WrapRepoErr(l.logger, infra.KindCacheFailure, "failed to release cart lock", err)
	}
	return nil
}
