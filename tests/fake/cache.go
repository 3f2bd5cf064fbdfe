//go:build unit

package fake

import (
	"context"
	"errors"
	"sync"
	"time"

	"order-pipeline/internal/infra"
	"order-pipeline/internal/pkg/clock"
	"order-pipeline/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrCacheDown = errors.New("cache connection refused")

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is an in-memory key/value store with TTLs driven by a MockClock.
// It serves as cart locker, idempotency store and read cache invalidator.
type Cache struct {
	mu    sync.Mutex
	clock *clock.MockClock
	data  map[string]entry

	unavailable bool
	// per-operation failures, keyed by method name ("Release", "Complete", ...)
	failing map[string]bool

	invalidations []string
	releases      int
}

func NewCache(clk *clock.MockClock) *Cache {
	return &Cache{clock: clk, data: map[string]entry{}, failing: map[string]bool{}}
}

// SetUnavailable makes every operation fail.
func (c *Cache) SetUnavailable(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unavailable = down
}

// FailOn makes a single operation fail.
func (c *Cache) FailOn(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[op] = true
}

// Heal undoes FailOn.
func (c *Cache) Heal(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failing, op)
}

func (c *Cache) check(op string) error {
	if c.unavailable || c.failing[op] {
		return infra.WrapRepoErr(nil, infra.KindCacheFailure, op+" failed", ErrCacheDown)
	}
	return nil
}

func (c *Cache) get(key string) (any, bool) {
	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt) {
		delete(c.data, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, v any, ttl time.Duration) {
	c.data[key] = entry{value: v, expiresAt: c.clock.Now().Add(ttl)}
}

func (c *Cache) setNX(key string, v any, ttl time.Duration) bool {
	if _, ok := c.get(key); ok {
		return false
	}
	c.set(key, v, ttl)
	return true
}

func lockKey(tenantID, cartID string) string { return "lock:" + tenantID + ":" + cartID }
func idempKey(tenantID, key string) string   { return "idemp:" + tenantID + ":" + key }

func (c *Cache) Acquire(_ context.Context, tenantID, cartID string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("Acquire"); err != nil {
		return false, err
	}
	return c.setNX(lockKey(tenantID, cartID), uuid.NewString(), ttl), nil
}

func (c *Cache) Release(_ context.Context, tenantID, cartID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("Release"); err != nil {
		return err
	}
	delete(c.data, lockKey(tenantID, cartID))
	c.releases++
	return nil
}

// Locked reports whether the cart lock is currently held.
func (c *Cache) Locked(tenantID, cartID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.get(lockKey(tenantID, cartID))
	return ok
}

func (c *Cache) Releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releases
}

func (c *Cache) Reserve(_ context.Context, tenantID, key, requestHash string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("Reserve"); err != nil {
		return false, err
	}
	return c.setNX(idempKey(tenantID, key), shared.IdempotencyRecord{
		Status:      shared.IdempotencyProcessing,
		RequestHash: requestHash,
	}, ttl), nil
}

func (c *Cache) Get(_ context.Context, tenantID, key string) (*shared.IdempotencyRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("Get"); err != nil {
		return nil, err
	}
	v, ok := c.get(idempKey(tenantID, key))
	if !ok {
		return nil, nil
	}
	rec := v.(shared.IdempotencyRecord)
	return &rec, nil
}

func (c *Cache) Complete(_ context.Context, tenantID, key, requestHash string, orderID uuid.UUID, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("Complete"); err != nil {
		return err
	}
	c.set(idempKey(tenantID, key), shared.IdempotencyRecord{
		Status:      shared.IdempotencyCompleted,
		RequestHash: requestHash,
		OrderID:     &orderID,
	}, ttl)
	return nil
}

func (c *Cache) Fail(_ context.Context, tenantID, key, requestHash string, failure shared.IdempotencyFailure, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("Fail"); err != nil {
		return err
	}
	c.set(idempKey(tenantID, key), shared.IdempotencyRecord{
		Status:      shared.IdempotencyFailed,
		RequestHash: requestHash,
		ErrorKind:   failure.Kind,
		Error:       failure.Message,
		ErrorDetail: append([]byte(nil), failure.Detail...),
	}, ttl)
	return nil
}

// Record returns the stored idempotency record without touching fault flags.
func (c *Cache) Record(tenantID, key string) *shared.IdempotencyRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.get(idempKey(tenantID, key))
	if !ok {
		return nil
	}
	rec := v.(shared.IdempotencyRecord)
	return &rec
}

func (c *Cache) Invalidate(_ context.Context, tenantID, cartID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.check("Invalidate"); err != nil {
		return err
	}
	c.invalidations = append(c.invalidations, tenantID+":"+cartID)
	return nil
}

func (c *Cache) Invalidations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidations...)
}
