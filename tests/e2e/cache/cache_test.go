//go:build e2e

package cache

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/infra/cache"
	"order-pipeline/internal/usecase/shared"
	"order-pipeline/tests/e2e"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type CacheE2ESuite struct {
	suite.Suite
	rdb    *redis.Client
	logger *slog.Logger
	ctx    context.Context
	tenant string
}

func TestCacheE2ESuite(t *testing.T) {
	suite.Run(t, new(CacheE2ESuite))
}

func (s *CacheE2ESuite) SetupSuite() {
	s.rdb = e2e.StartRedis(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
}

func (s *CacheE2ESuite) SetupSubTest() {
	s.tenant = "t_" + uuid.NewString()[:8]
}

func (s *CacheE2ESuite) TestCartLocker() {
	locker := cache.NewCartLocker(s.rdb, s.logger)

	s.Run("second acquire fails until release", func() {
		ok, err := locker.Acquire(s.ctx, s.tenant, "cart-1", 30*time.Second)
		s.Require().NoError(err)
		s.True(ok)

		ok, err = locker.Acquire(s.ctx, s.tenant, "cart-1", 30*time.Second)
		s.Require().NoError(err)
		s.False(ok)

		s.Require().NoError(locker.Release(s.ctx, s.tenant, "cart-1"))

		ok, err = locker.Acquire(s.ctx, s.tenant, "cart-1", 30*time.Second)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("lock carries the ttl", func() {
		ok, err := locker.Acquire(s.ctx, s.tenant, "cart-ttl", 30*time.Second)
		s.Require().NoError(err)
		s.Require().True(ok)

		ttl := s.rdb.TTL(s.ctx, cache.CartLockKey(s.tenant, "cart-ttl")).Val()
		s.Greater(ttl, 25*time.Second)
		s.LessOrEqual(ttl, 30*time.Second)
	})

	s.Run("expired lock can be taken again", func() {
		ok, err := locker.Acquire(s.ctx, s.tenant, "cart-exp", 100*time.Millisecond)
		s.Require().NoError(err)
		s.Require().True(ok)

		s.Eventually(func() bool {
			ok, err := locker.Acquire(s.ctx, s.tenant, "cart-exp", time.Second)
			return err == nil && ok
		}, 2*time.Second, 50*time.Millisecond)
	})

	s.Run("locks are scoped by tenant", func() {
		ok, err := locker.Acquire(s.ctx, s.tenant, "shared-cart", 30*time.Second)
		s.Require().NoError(err)
		s.Require().True(ok)

		ok, err = locker.Acquire(s.ctx, s.tenant+"_other", "shared-cart", 30*time.Second)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("releasing a free lock is a no-op", func() {
		s.NoError(locker.Release(s.ctx, s.tenant, "never-locked"))
	})
}

func (s *CacheE2ESuite) TestIdempotencyStore() {
	store := cache.NewIdempotencyStore(s.rdb, s.logger)

	s.Run("missing key reads as nil", func() {
		rec, err := store.Get(s.ctx, s.tenant, "nope")
		s.Require().NoError(err)
		s.Nil(rec)
	})

	s.Run("reserve is exclusive and starts processing", func() {
		ok, err := store.Reserve(s.ctx, s.tenant, "k1", "hash-1", time.Minute)
		s.Require().NoError(err)
		s.True(ok)

		ok, err = store.Reserve(s.ctx, s.tenant, "k1", "hash-1", time.Minute)
		s.Require().NoError(err)
		s.False(ok)

		rec, err := store.Get(s.ctx, s.tenant, "k1")
		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.Equal(shared.IdempotencyProcessing, rec.Status)
		s.Equal("hash-1", rec.RequestHash)
		s.Nil(rec.OrderID)
	})

	s.Run("complete stores the order id", func() {
		id := uuid.New()
		_, err := store.Reserve(s.ctx, s.tenant, "k2", "hash-2", time.Minute)
		s.Require().NoError(err)
		s.Require().NoError(store.Complete(s.ctx, s.tenant, "k2", "hash-2", id, time.Hour))

		rec, err := store.Get(s.ctx, s.tenant, "k2")
		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.Equal(shared.IdempotencyCompleted, rec.Status)
		s.Require().NotNil(rec.OrderID)
		s.Equal(id, *rec.OrderID)

		ttl := s.rdb.TTL(s.ctx, cache.IdempotencyKey(s.tenant, "k2")).Val()
		s.Greater(ttl, 59*time.Minute)
	})

	s.Run("fail stores kind, message and detail with its own ttl", func() {
		_, err := store.Reserve(s.ctx, s.tenant, "k3", "hash-3", time.Minute)
		s.Require().NoError(err)
		failure := shared.IdempotencyFailure{
			Kind:    "InsufficientInventory",
			Message: "out of stock",
			Detail:  json.RawMessage(`{"productId":"prod-bread","requested":2,"available":1}`),
		}
		s.Require().NoError(store.Fail(s.ctx, s.tenant, "k3", "hash-3", failure, 10*time.Minute))

		rec, err := store.Get(s.ctx, s.tenant, "k3")
		s.Require().NoError(err)
		s.Require().NotNil(rec)
		s.Equal(shared.IdempotencyFailed, rec.Status)
		s.Equal("InsufficientInventory", rec.ErrorKind)
		s.Equal("out of stock", rec.Error)
		s.JSONEq(`{"productId":"prod-bread","requested":2,"available":1}`, string(rec.ErrorDetail))

		ttl := s.rdb.TTL(s.ctx, cache.IdempotencyKey(s.tenant, "k3")).Val()
		s.LessOrEqual(ttl, 10*time.Minute)
	})

	s.Run("expired record frees the key", func() {
		_, err := store.Reserve(s.ctx, s.tenant, "k4", "hash-4", 100*time.Millisecond)
		s.Require().NoError(err)

		s.Eventually(func() bool {
			rec, err := store.Get(s.ctx, s.tenant, "k4")
			return err == nil && rec == nil
		}, 2*time.Second, 50*time.Millisecond)

		ok, err := store.Reserve(s.ctx, s.tenant, "k4", "hash-4", time.Minute)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("corrupt record is a cache failure", func() {
		s.Require().NoError(s.rdb.Set(s.ctx, cache.IdempotencyKey(s.tenant, "bad"), "{not json", time.Minute).Err())

		_, err := store.Get(s.ctx, s.tenant, "bad")
		s.True(infra.IsKind(err, infra.KindCacheFailure))
	})
}

func (s *CacheE2ESuite) TestReadCacheInvalidator() {
	inv := cache.NewReadCacheInvalidator(s.rdb, s.logger)

	s.Run("bumps versions and drops the cart", func() {
		s.Require().NoError(s.rdb.Set(s.ctx, cache.CartKey(s.tenant, "cart-1"), "{}", time.Minute).Err())

		s.Require().NoError(inv.Invalidate(s.ctx, s.tenant, "cart-1"))
		s.Require().NoError(inv.Invalidate(s.ctx, s.tenant, "cart-2"))

		s.Equal("2", s.rdb.Get(s.ctx, cache.ProductsVersionKey(s.tenant)).Val())
		s.Equal("2", s.rdb.Get(s.ctx, cache.CategoriesVersionKey(s.tenant)).Val())
		s.Equal(int64(0), s.rdb.Exists(s.ctx, cache.CartKey(s.tenant, "cart-1")).Val())
	})
}

func (s *CacheE2ESuite) TestPinger() {
	s.NoError(cache.NewPinger(s.rdb).Ping(s.ctx))
}
