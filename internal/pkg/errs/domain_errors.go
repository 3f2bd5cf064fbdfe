package errs

import "errors"

// Order pipeline error kinds. Usecase errors match exactly one of these via errors.Is.
var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrLocked                = errors.New("cart is locked by another request")
	ErrDuplicateInProgress   = errors.New("request with this idempotency key is in progress")
	ErrDuplicateCompleted    = errors.New("request with this idempotency key already completed")
	ErrDuplicateFailed       = errors.New("request with this idempotency key already failed")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrNotFound              = errors.New("not found")
	ErrStoreUnavailable      = errors.New("store unavailable")
)
