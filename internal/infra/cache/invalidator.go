package cache

import (
	"context"
	"log/slog"

	"order-pipeline/internal/infra"

	"github.com/redis/go-redis/v9"
)

// ReadCacheInvalidator bumps the tenant's product and category cache versions
// and drops the cached cart. Readers keyed on the version see a miss.
type ReadCacheInvalidator struct {
	rdb    redis.Cmdable
	logger *slog.Logger
}

func NewReadCacheInvalidator(rdb redis.Cmdable, logger *slog.Logger) *ReadCacheInvalidator {
	return &ReadCacheInvalidator{rdb: rdb, logger: logger}
}

func (i *ReadCacheInvalidator) Invalidate(ctx context.Context, tenantID, cartID string) error {
	_, err := i.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, ProductsVersionKey(tenantID))
		p.Incr(ctx, CategoriesVersionKey(tenantID))
		p.Del(ctx, CartKey(tenantID, cartID))
		return nil
	})
	if err != nil {
		return infra.WrapRepoErr(i.logger, infra.KindCacheFailure, "failed to invalidate read caches", err)
	}
	return nil
}
