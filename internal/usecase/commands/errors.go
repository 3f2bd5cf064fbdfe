package commands

import (
	"encoding/json"
	"errors"

	"order-pipeline/internal/pkg/errs"
)

type ErrorKind string

const (
	KindInvalidRequest        ErrorKind = "InvalidRequest"
	KindLocked                ErrorKind = "Locked"
	KindDuplicateInProgress   ErrorKind = "DuplicateInProgress"
	KindDuplicateCompleted    ErrorKind = "DuplicateCompleted"
	KindDuplicateFailed       ErrorKind = "DuplicateFailed"
	KindInsufficientInventory ErrorKind = "InsufficientInventory"
	KindNotFound              ErrorKind = "NotFound"
	KindStoreUnavailable      ErrorKind = "StoreUnavailable"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidRequest:
		return errs.ErrInvalidRequest
	case KindLocked:
		return errs.ErrLocked
	case KindDuplicateInProgress:
		return errs.ErrDuplicateInProgress
	case KindDuplicateCompleted:
		return errs.ErrDuplicateCompleted
	case KindDuplicateFailed:
		return errs.ErrDuplicateFailed
	case KindInsufficientInventory:
		return errs.ErrInsufficientInventory
	case KindNotFound:
		return errs.ErrNotFound
	default:
		return errs.ErrStoreUnavailable
	}
}

// OrderError is the only error type PlaceOrder and CancelOrder return.
// OriginalKind is set on DuplicateFailed and names the kind recorded by the
// first attempt.
type OrderError struct {
	Kind         ErrorKind
	Message      string
	Detail       any
	OriginalKind ErrorKind
	cause        error
}

func (e *OrderError) Error() string {
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.cause
}

func (e *OrderError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

type InsufficientInventoryDetail struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type LockedDetail struct {
	RetryAfterSeconds int `json:"retryAfterSeconds"`
}

// DuplicateFailedDetail carries the detail of the first attempt verbatim.
type DuplicateFailedDetail struct {
	OriginalKind   ErrorKind       `json:"originalKind"`
	OriginalDetail json.RawMessage `json:"originalDetail,omitempty"`
}

func AsOrderError(err error) (*OrderError, bool) {
	var oe *OrderError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

func newOrderError(kind ErrorKind, msg string, cause error) *OrderError {
	return &OrderError{Kind: kind, Message: msg, cause: cause}
}

func invalidRequest(cause error) *OrderError {
	return newOrderError(KindInvalidRequest, cause.Error(), cause)
}

func storeUnavailable(msg string, cause error) *OrderError {
	return newOrderError(KindStoreUnavailable, msg, cause)
}
