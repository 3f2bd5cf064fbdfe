package commands

//go:generate mockgen -source=order.go -destination=../../../tests/mock/commands/order_mock.go -package=commandsmock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"order-pipeline/internal/domain/cart"
	"order-pipeline/internal/domain/customer"
	"order-pipeline/internal/domain/order"
	"order-pipeline/internal/domain/product"
	"order-pipeline/internal/infra"
	"order-pipeline/internal/pkg/clock"
	"order-pipeline/internal/pkg/config"
	"order-pipeline/internal/pkg/errs"
	"order-pipeline/internal/usecase/queries"
	"order-pipeline/internal/usecase/shared"

	"github.com/google/uuid"
)

var ErrIdempotencyKeyRequired = errs.New("Idempotency-Key is required")

type PlaceOrderInput struct {
	TenantID       string
	IdempotencyKey string
	Cart           cart.Cart
	Customer       customer.Identity
	Pricing        order.PricingSummary
}

type PlaceOrderResult struct {
	Order      *queries.OrderView
	IsReplayed bool
}

type CancelOrderInput struct {
	TenantID string
	OrderID  uuid.UUID
}

type OrderCommands interface {
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error)
	CancelOrder(ctx context.Context, in CancelOrderInput) (*queries.OrderView, error)
}

type OrderDeps struct {
	UoW         shared.UnitOfWork
	Locker      CartLocker
	Idempotency IdempotencyStore
	Sequences   SequenceGenerator
	Invalidator ReadCacheInvalidator
	Mail        MailDispatcher
	Queries     queries.OrderQueries
	Metrics     OrderMetrics
	Clock       clock.Clock
	Config      config.OrderConfig
	Logger      *slog.Logger
}

type orderCommandsImpl struct {
	OrderDeps
}

func NewOrderCommands(deps OrderDeps) OrderCommands {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &orderCommandsImpl{OrderDeps: deps}
}

func (u *orderCommandsImpl) PlaceOrder(ctx context.Context, in PlaceOrderInput) (res *PlaceOrderResult, err error) {
	started := time.Now()
	defer func() {
		u.Metrics.ObservePlacement(placementOutcome(res, err), time.Since(started))
	}()

	if err := validatePlaceOrder(in); err != nil {
		return nil, invalidRequest(err)
	}

	logger := u.Logger.With(
		"tenant_id", in.TenantID,
		"cart_id", in.Cart.ID,
		"idempotency_key", in.IdempotencyKey,
	)
	hash := requestHash(in)

	reserved, err := u.Idempotency.Reserve(ctx, in.TenantID, in.IdempotencyKey, hash, u.Config.IdempotencyProcessingTTL)
	if err != nil {
		return nil, storeUnavailable("idempotency store unavailable", err)
	}
	if !reserved {
		logger.Debug("idempotency key already seen")
		return u.replay(ctx, in, hash)
	}
	logger.Debug("idempotency key reserved")

	return u.execute(ctx, in, hash, logger)
}

// execute runs everything after the idempotency record exists. Whatever the
// outcome, the record is finalized and a held lock is released on the way out.
func (u *orderCommandsImpl) execute(ctx context.Context, in PlaceOrderInput, hash string, logger *slog.Logger) (res *PlaceOrderResult, err error) {
	var (
		locked   bool
		created  *order.Order
		existing *queries.OrderView
		mailTo   recipient
	)

	defer func() {
		p := recover()

		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.Config.CleanupTimeout)
		defer cancel()

		switch {
		case p != nil:
			logger.Error("order placement panicked", "panic", fmt.Sprint(p))
			u.failRecord(cleanupCtx, in, hash, storeUnavailable("order placement aborted", nil), logger)
		case err != nil:
			u.failRecord(cleanupCtx, in, hash, err, logger)
		case existing != nil:
			u.completeRecord(cleanupCtx, in, hash, existing.ID, logger)
		default:
			u.finishCreated(cleanupCtx, in, hash, created, mailTo, logger)
		}

		if locked {
			if relErr := u.Locker.Release(cleanupCtx, in.TenantID, in.Cart.ID); relErr != nil {
				logger.Warn("failed to release cart lock", "error", relErr.Error())
			} else {
				logger.Debug("cart lock released")
			}
		}

		if p != nil {
			panic(p)
		}
	}()

	ok, err := u.Locker.Acquire(ctx, in.TenantID, in.Cart.ID, u.Config.LockTTL)
	if err != nil {
		return nil, storeUnavailable("lock store unavailable", err)
	}
	if !ok {
		u.Metrics.LockContended()
		return nil, &OrderError{
			Kind:    KindLocked,
			Message: "cart is being checked out by another request",
			Detail:  LockedDetail{RetryAfterSeconds: int(u.Config.LockTTL.Seconds())},
		}
	}
	locked = true
	logger.Debug("cart lock acquired")

	// numbering and the transaction share one deadline that ends before the lock expires
	lockedCtx, cancelLocked := context.WithTimeout(ctx, u.Config.TxTimeout)
	defer cancelLocked()

	numbers, err := u.assignNumbers(lockedCtx, in.TenantID)
	if err != nil {
		return nil, err
	}
	logger.Debug("numbers assigned", "order_number", numbers.OrderNumber, "invoice_number", numbers.InvoiceNumber)

	o, err := order.NewOrder(order.NewOrderParams{
		TenantID:       in.TenantID,
		Numbers:        numbers,
		Cart:           in.Cart,
		Customer:       in.Customer,
		Pricing:        in.Pricing,
		IdempotencyKey: in.IdempotencyKey,
	}, u.Clock.Now())
	if err != nil {
		return nil, invalidRequest(err)
	}

	err = u.UoW.Within(lockedCtx, func(ctx context.Context, tx shared.Tx) error {
		for _, d := range demandOf(in.Cart.Demand()) {
			if _, err := tx.Products().ValidateAndDecrement(ctx, tx.DB(), in.TenantID, d); err != nil {
				return inventoryError(d.ProductID, err)
			}
		}

		mailTo = recipientFromSnapshot(o.ManualCustomer())
		if in.Customer.IsExisting() {
			c, err := tx.Customers().GetForUpdate(ctx, tx.DB(), in.TenantID, *in.Customer.ID)
			if err != nil {
				if infra.IsKind(err, infra.KindNotFound) {
					return &OrderError{
						Kind:    KindNotFound,
						Message: fmt.Sprintf("customer %s not found", in.Customer.ID),
						cause:   err,
					}
				}
				return err
			}
			if !in.Customer.Contact.IsEmpty() {
				c.Refresh(in.Customer.Contact, u.Clock.Now())
				if err := tx.Customers().Update(ctx, tx.DB(), c); err != nil {
					return err
				}
			}
			mailTo = recipient{name: c.Name(), email: c.Email()}
		}

		return tx.Orders().Create(ctx, tx.DB(), o)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			if existing = u.orderForKey(ctx, in, logger); existing != nil {
				return &PlaceOrderResult{Order: existing, IsReplayed: true}, nil
			}
		}
		return nil, classify(err)
	}

	created = o
	logger.Info("order placed",
		"order_id", o.ID().String(),
		"order_number", numbers.OrderNumber,
		"invoice_number", numbers.InvoiceNumber)

	return &PlaceOrderResult{Order: queries.NewOrderView(o)}, nil
}

func (u *orderCommandsImpl) assignNumbers(ctx context.Context, tenantID string) (order.Numbers, error) {
	orderNo, err := u.Sequences.Next(ctx, tenantID, shared.SequenceOrderNumber)
	if err != nil {
		return order.Numbers{}, storeUnavailable("failed to assign order number", err)
	}
	invoiceNo, err := u.Sequences.Next(ctx, tenantID, shared.SequenceInvoiceNumber)
	if err != nil {
		return order.Numbers{}, storeUnavailable("failed to assign invoice number", err)
	}
	return order.Numbers{OrderNumber: orderNo, InvoiceNumber: invoiceNo}, nil
}

func (u *orderCommandsImpl) replay(ctx context.Context, in PlaceOrderInput, hash string) (*PlaceOrderResult, error) {
	rec, err := u.Idempotency.Get(ctx, in.TenantID, in.IdempotencyKey)
	if err != nil {
		return nil, storeUnavailable("idempotency store unavailable", err)
	}
	// expired between reserve and read; the other request is still the owner
	if rec == nil {
		return nil, newOrderError(KindDuplicateInProgress, "request with this idempotency key is in progress", nil)
	}
	if rec.RequestHash != "" && rec.RequestHash != hash {
		return nil, newOrderError(KindInvalidRequest, "idempotency key reused with different payload", nil)
	}

	switch rec.Status {
	case shared.IdempotencyCompleted:
		if rec.OrderID == nil {
			return nil, newOrderError(KindDuplicateCompleted, "request already completed", nil)
		}
		view, err := u.Queries.GetByID(ctx, in.TenantID, *rec.OrderID)
		if err != nil {
			if errors.Is(err, queries.ErrOrderNotFound) {
				return nil, newOrderError(KindDuplicateCompleted, "request already completed", err)
			}
			return nil, storeUnavailable("failed to load completed order", err)
		}
		return &PlaceOrderResult{Order: view, IsReplayed: true}, nil

	case shared.IdempotencyFailed:
		original := ErrorKind(rec.ErrorKind)
		return nil, &OrderError{
			Kind:         KindDuplicateFailed,
			Message:      rec.Error,
			OriginalKind: original,
			Detail:       DuplicateFailedDetail{OriginalKind: original, OriginalDetail: rec.ErrorDetail},
		}

	default:
		return nil, newOrderError(KindDuplicateInProgress, "request with this idempotency key is in progress", nil)
	}
}

func (u *orderCommandsImpl) failRecord(ctx context.Context, in PlaceOrderInput, hash string, cause error, logger *slog.Logger) {
	oe := classify(cause)
	logger.Warn("order placement failed", "kind", string(oe.Kind), "error", oe.Message)
	failure := shared.IdempotencyFailure{Kind: string(oe.Kind), Message: oe.Message}
	if oe.Detail != nil {
		detail, err := json.Marshal(oe.Detail)
		if err != nil {
			logger.Warn("failed to encode error detail", "error", err.Error())
		} else {
			failure.Detail = detail
		}
	}
	if err := u.Idempotency.Fail(ctx, in.TenantID, in.IdempotencyKey, hash, failure, u.Config.IdempotencyFailedTTL); err != nil {
		logger.Error("failed to record idempotency failure", "error", err.Error())
	}
}

// orderForKey returns the order an earlier attempt with the same key
// committed, for when its completion never reached the idempotency store.
// Orders of another cart are not handed out.
func (u *orderCommandsImpl) orderForKey(ctx context.Context, in PlaceOrderInput, logger *slog.Logger) *queries.OrderView {
	view, err := u.Queries.GetByIdempotencyKey(ctx, in.TenantID, in.IdempotencyKey)
	if err != nil {
		if !errors.Is(err, queries.ErrOrderNotFound) {
			logger.Warn("failed to load order for idempotency key", "error", err.Error())
		}
		return nil
	}
	if view.CartID != in.Cart.ID {
		logger.Warn("idempotency key already used by another cart", "order_id", view.ID.String(), "other_cart_id", view.CartID)
		return nil
	}
	logger.Info("replaying committed order for idempotency key", "order_id", view.ID.String())
	return view
}

func (u *orderCommandsImpl) completeRecord(ctx context.Context, in PlaceOrderInput, hash string, orderID uuid.UUID, logger *slog.Logger) {
	if err := u.Idempotency.Complete(ctx, in.TenantID, in.IdempotencyKey, hash, orderID, u.Config.IdempotencyCompletedTTL); err != nil {
		logger.Error("failed to record idempotency completion", "order_id", orderID.String(), "error", err.Error())
	}
}

func (u *orderCommandsImpl) finishCreated(ctx context.Context, in PlaceOrderInput, hash string, o *order.Order, to recipient, logger *slog.Logger) {
	u.completeRecord(ctx, in, hash, o.ID(), logger)
	if err := u.Invalidator.Invalidate(ctx, in.TenantID, in.Cart.ID); err != nil {
		logger.Warn("failed to invalidate read caches", "error", err.Error())
	}

	job := shared.OrderPlacedMail{
		TenantID:        o.TenantID(),
		OrderID:         o.ID(),
		OrderNumber:     o.Numbers().OrderNumber,
		InvoiceNumber:   o.Numbers().InvoiceNumber,
		CustomerID:      o.CustomerID(),
		RecipientName:   to.name,
		RecipientEmail:  to.email,
		FinalTotalCents: o.Pricing().FinalTotalCents,
	}
	if err := u.Mail.EnqueueOrderPlaced(ctx, job); err != nil {
		u.Metrics.MailEnqueueFailed()
		logger.Warn("failed to enqueue confirmation mail", "order_id", o.ID().String(), "error", err.Error())
	}
}

// CancelOrder restocks tracked products and marks the order canceled. It
// holds the cart lock so it cannot interleave with a checkout of the same cart.
func (u *orderCommandsImpl) CancelOrder(ctx context.Context, in CancelOrderInput) (*queries.OrderView, error) {
	if in.TenantID == "" {
		return nil, invalidRequest(order.ErrTenantRequired)
	}
	logger := u.Logger.With("tenant_id", in.TenantID, "order_id", in.OrderID.String())

	current, err := u.Queries.GetByID(ctx, in.TenantID, in.OrderID)
	if err != nil {
		if errors.Is(err, queries.ErrOrderNotFound) {
			return nil, newOrderError(KindNotFound, fmt.Sprintf("order %s not found", in.OrderID), err)
		}
		return nil, storeUnavailable("failed to load order", err)
	}

	ok, err := u.Locker.Acquire(ctx, in.TenantID, current.CartID, u.Config.LockTTL)
	if err != nil {
		return nil, storeUnavailable("lock store unavailable", err)
	}
	if !ok {
		u.Metrics.LockContended()
		return nil, &OrderError{
			Kind:    KindLocked,
			Message: "cart is being checked out by another request",
			Detail:  LockedDetail{RetryAfterSeconds: int(u.Config.LockTTL.Seconds())},
		}
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.Config.CleanupTimeout)
		defer cancel()
		if err := u.Locker.Release(cleanupCtx, in.TenantID, current.CartID); err != nil {
			logger.Warn("failed to release cart lock", "error", err.Error())
		}
	}()

	txCtx, cancelTx := context.WithTimeout(ctx, u.Config.TxTimeout)
	defer cancelTx()

	var canceled *order.Order
	err = u.UoW.Within(txCtx, func(ctx context.Context, tx shared.Tx) error {
		o, err := tx.Orders().GetForUpdate(ctx, tx.DB(), in.TenantID, in.OrderID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return newOrderError(KindNotFound, fmt.Sprintf("order %s not found", in.OrderID), err)
			}
			return err
		}
		if err := o.Cancel(u.Clock.Now()); err != nil {
			return invalidRequest(err)
		}

		restock := make(map[string]int, len(o.Items()))
		for _, it := range o.Items() {
			restock[it.ProductID] += it.Quantity
		}
		for _, d := range demandOf(restock) {
			if _, err := tx.Products().Restore(ctx, tx.DB(), in.TenantID, d); err != nil {
				// a product deleted since the order was placed has nothing to restock
				if infra.IsKind(err, infra.KindNotFound) {
					continue
				}
				return err
			}
		}

		if err := tx.Orders().UpdateStatus(ctx, tx.DB(), o); err != nil {
			return err
		}
		canceled = o
		return nil
	})
	if err != nil {
		oe := classify(err)
		logger.Warn("order cancel failed", "kind", string(oe.Kind), "error", oe.Message)
		return nil, oe
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.Config.CleanupTimeout)
	defer cancel()
	if err := u.Invalidator.Invalidate(cleanupCtx, in.TenantID, canceled.CartID()); err != nil {
		logger.Warn("failed to invalidate read caches", "error", err.Error())
	}
	logger.Info("order canceled")

	return queries.NewOrderView(canceled), nil
}

type recipient struct {
	name  string
	email string
}

func recipientFromSnapshot(s *customer.Snapshot) recipient {
	if s == nil {
		return recipient{}
	}
	return recipient{name: s.Name, email: s.Email}
}

func validatePlaceOrder(in PlaceOrderInput) error {
	if in.TenantID == "" {
		return order.ErrTenantRequired
	}
	if in.IdempotencyKey == "" {
		return ErrIdempotencyKeyRequired
	}
	if err := in.Cart.Validate(); err != nil {
		return err
	}
	return in.Customer.Validate()
}

// demandOf orders rows by product id so concurrent transactions take row
// locks in the same order.
func demandOf(quantities map[string]int) []shared.ItemDemand {
	out := make([]shared.ItemDemand, 0, len(quantities))
	for id, qty := range quantities {
		out = append(out, shared.ItemDemand{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func inventoryError(productID string, err error) error {
	var short *product.InsufficientInventoryError
	if errors.As(err, &short) {
		return &OrderError{
			Kind:    KindInsufficientInventory,
			Message: short.Error(),
			Detail: InsufficientInventoryDetail{
				ProductID: short.ProductID,
				Requested: short.Requested,
				Available: short.Available,
			},
			cause: err,
		}
	}
	if infra.IsKind(err, infra.KindNotFound) {
		return &OrderError{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("product %s not found", productID),
			cause:   err,
		}
	}
	return err
}

// classify maps anything that escaped the pipeline onto an error kind.
func classify(err error) *OrderError {
	if oe, ok := AsOrderError(err); ok {
		return oe
	}
	switch {
	case infra.IsKind(err, infra.KindDuplicateKey):
		return newOrderError(KindDuplicateCompleted, "order for this request already exists", err)
	case errs.Is(err, shared.ErrTxBegin):
		return storeUnavailable("could not open order transaction", err)
	case errs.Is(err, shared.ErrTxCommit):
		return storeUnavailable("order transaction failed to commit", err)
	case errs.Is(err, shared.ErrTxRetriesExhausted):
		return storeUnavailable("order transaction kept conflicting", err)
	case errors.Is(err, context.DeadlineExceeded):
		return storeUnavailable("order transaction timed out", err)
	case errors.Is(err, context.Canceled):
		return storeUnavailable("order placement canceled", err)
	default:
		return storeUnavailable("order store unavailable", err)
	}
}

func placementOutcome(res *PlaceOrderResult, err error) string {
	if err != nil {
		return string(classify(err).Kind)
	}
	switch {
	case res == nil:
		return "aborted"
	case res.IsReplayed:
		return "replayed"
	default:
		return "created"
	}
}

func requestHash(in PlaceOrderInput) string {
	data, _ := json.Marshal(struct {
		Cart     cart.Cart
		Customer customer.Identity
		Pricing  order.PricingSummary
	}{in.Cart, in.Customer, in.Pricing})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
