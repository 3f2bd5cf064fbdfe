//go:build unit

package fake

import (
	"context"
	"sync"

	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/domain/order"
	"order-pipeline/internal/domain/product"
	"order-pipeline/internal/infra"
	"order-pipeline/internal/infra/db"
	"order-pipeline/internal/pkg/errs"
	"order-pipeline/internal/usecase/queries"
	"order-pipeline/internal/usecase/shared"

	"github.com/google/uuid"
)

type productKey struct {
	tenantID  string
	productID string
}

type customerKey struct {
	tenantID string
	id       uuid.UUID
}

// Store is an in-memory stand-in for Postgres. Transactions run one at a time
// and roll back every change when fn returns an error or panics.
type Store struct {
	mu        sync.Mutex
	products  map[productKey]product.Inventory
	customers map[customerKey]*customer.Customer
	orders    map[uuid.UUID]*order.Order

	// fault injection, read inside the transaction
	BeginErr      error
	CreateErr     error
	PanicOnCreate bool
	// OnCreate runs inside the transaction right before the order insert
	OnCreate func()

	commits int
}

func NewStore() *Store {
	return &Store{
		products:  map[productKey]product.Inventory{},
		customers: map[customerKey]*customer.Customer{},
		orders:    map[uuid.UUID]*order.Order{},
	}
}

func (s *Store) PutProduct(tenantID, productID string, quantity int, tracked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[productKey{tenantID, productID}] = product.Inventory{
		ProductID:       productID,
		Quantity:        quantity,
		TrackingEnabled: tracked,
	}
}

func (s *Store) Quantity(tenantID, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productKey{tenantID, productID}].Quantity
}

func (s *Store) PutCustomer(c *customer.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[customerKey{c.TenantID(), c.ID()}] = cloneCustomer(c)
}

func (s *Store) Customer(tenantID string, id uuid.UUID) *customer.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerKey{tenantID, id}]
	if !ok {
		return nil
	}
	return cloneCustomer(c)
}

func (s *Store) Orders(tenantID string) []*order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*order.Order
	for _, o := range s.orders {
		if o.TenantID() == tenantID {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Within implements shared.UnitOfWork.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.BeginErr != nil {
		return errs.Mark(s.BeginErr, shared.ErrTxBegin)
	}

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(ctx, &tx{s: s}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	s.commits++
	return nil
}

// FindByID implements queries.OrderReadStore.
func (s *Store) FindByID(_ context.Context, tenantID string, id uuid.UUID) (*queries.OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.TenantID() != tenantID {
		return nil, infra.WrapRepoErr(nil, infra.KindNotFound, "order not found", nil)
	}
	return queries.NewOrderView(o), nil
}

// FindByIdempotencyKey implements queries.OrderReadStore.
func (s *Store) FindByIdempotencyKey(_ context.Context, tenantID, key string) (*queries.OrderView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.TenantID() == tenantID && o.IdempotencyKey() == key {
			return queries.NewOrderView(o), nil
		}
	}
	return nil, infra.WrapRepoErr(nil, infra.KindNotFound, "order not found", nil)
}

type snapshot struct {
	products  map[productKey]product.Inventory
	customers map[customerKey]*customer.Customer
	orders    map[uuid.UUID]*order.Order
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		products:  make(map[productKey]product.Inventory, len(s.products)),
		customers: make(map[customerKey]*customer.Customer, len(s.customers)),
		orders:    make(map[uuid.UUID]*order.Order, len(s.orders)),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.customers {
		snap.customers[k] = cloneCustomer(v)
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.customers = snap.customers
	s.orders = snap.orders
}

type tx struct {
	s *Store
}

func (t *tx) Products() shared.ProductRepository   { return (*productRepo)(t) }
func (t *tx) Customers() shared.CustomerRepository { return (*customerRepo)(t) }
func (t *tx) Orders() shared.OrderRepository       { return (*orderRepo)(t) }
func (t *tx) DB() db.DBTX                          { return nil }

type productRepo tx

func (r *productRepo) ValidateAndDecrement(_ context.Context, _ db.DBTX, tenantID string, d shared.ItemDemand) (product.Inventory, error) {
	k := productKey{tenantID, d.ProductID}
	inv, ok := r.s.products[k]
	if !ok {
		return product.Inventory{}, infra.WrapRepoErr(nil, infra.KindNotFound, "product not found: "+d.ProductID, nil)
	}
	next, err := inv.Reserve(d.Quantity)
	if err != nil {
		return inv, err
	}
	r.s.products[k] = next
	return next, nil
}

func (r *productRepo) Restore(_ context.Context, _ db.DBTX, tenantID string, d shared.ItemDemand) (product.Inventory, error) {
	k := productKey{tenantID, d.ProductID}
	inv, ok := r.s.products[k]
	if !ok {
		return product.Inventory{}, infra.WrapRepoErr(nil, infra.KindNotFound, "product not found: "+d.ProductID, nil)
	}
	next, err := inv.Restock(d.Quantity)
	if err != nil {
		return inv, err
	}
	r.s.products[k] = next
	return next, nil
}

type customerRepo tx

func (r *customerRepo) GetForUpdate(_ context.Context, _ db.DBTX, tenantID string, id uuid.UUID) (*customer.Customer, error) {
	c, ok := r.s.customers[customerKey{tenantID, id}]
	if !ok {
		return nil, infra.WrapRepoErr(nil, infra.KindNotFound, "customer not found", nil)
	}
	return cloneCustomer(c), nil
}

func (r *customerRepo) Update(_ context.Context, _ db.DBTX, c *customer.Customer) error {
	k := customerKey{c.TenantID(), c.ID()}
	if _, ok := r.s.customers[k]; !ok {
		return infra.WrapRepoErr(nil, infra.KindNotFound, "customer not found", nil)
	}
	r.s.customers[k] = cloneCustomer(c)
	return nil
}

type orderRepo tx

func (r *orderRepo) Create(_ context.Context, _ db.DBTX, o *order.Order) error {
	if r.s.OnCreate != nil {
		r.s.OnCreate()
	}
	if r.s.PanicOnCreate {
		panic("order insert exploded")
	}
	if r.s.CreateErr != nil {
		return r.s.CreateErr
	}
	for _, existing := range r.s.orders {
		if existing.TenantID() != o.TenantID() {
			continue
		}
		if existing.IdempotencyKey() == o.IdempotencyKey() || existing.Numbers().OrderNumber == o.Numbers().OrderNumber {
			return infra.WrapRepoErr(nil, infra.KindDuplicateKey, "order already exists", nil)
		}
	}
	r.s.orders[o.ID()] = cloneOrder(o)
	return nil
}

func (r *orderRepo) GetForUpdate(_ context.Context, _ db.DBTX, tenantID string, id uuid.UUID) (*order.Order, error) {
	o, ok := r.s.orders[id]
	if !ok || o.TenantID() != tenantID {
		return nil, infra.WrapRepoErr(nil, infra.KindNotFound, "order not found", nil)
	}
	return cloneOrder(o), nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, _ db.DBTX, o *order.Order) error {
	if _, ok := r.s.orders[o.ID()]; !ok {
		return infra.WrapRepoErr(nil, infra.KindNotFound, "order not found", nil)
	}
	r.s.orders[o.ID()] = cloneOrder(o)
	return nil
}

func cloneCustomer(c *customer.Customer) *customer.Customer {
	var addr *customer.Address
	if c.DeliveryAddress() != nil {
		a := *c.DeliveryAddress()
		addr = &a
	}
	return customer.Reconstruct(c.ID(), c.TenantID(), c.Name(), c.Phone(), c.Email(), addr, c.UpdatedAt())
}

func cloneOrder(o *order.Order) *order.Order {
	items := append([]order.LineItem(nil), o.Items()...)
	clone, err := order.Reconstruct(o.ID(), o.TenantID(), o.Numbers(), o.CartID(), o.CustomerID(),
		o.ManualCustomer(), items, o.Pricing(), o.Status(), o.IdempotencyKey(), o.CreatedAt(), o.UpdatedAt())
	if err != nil {
		panic(err)
	}
	return clone
}
