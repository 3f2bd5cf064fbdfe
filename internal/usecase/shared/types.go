package shared

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ItemDemand is the combined quantity of one product across a cart.
type ItemDemand struct {
	ProductID string
	Quantity  int
}

type SequenceName string

const (
	SequenceOrderNumber   SequenceName = "orderNumber"
	SequenceInvoiceNumber SequenceName = "invoiceNumber"
)

type IdempotencyStatus string

const (
	IdempotencyProcessing IdempotencyStatus = "processing"
	IdempotencyCompleted  IdempotencyStatus = "completed"
	IdempotencyFailed     IdempotencyStatus = "failed"
)

func (s IdempotencyStatus) IsTerminal() bool {
	return s == IdempotencyCompleted || s == IdempotencyFailed
}

// IdempotencyRecord is the outcome stored under idemp:{tenant}:{key}.
type IdempotencyRecord struct {
	Status      IdempotencyStatus `json:"status"`
	RequestHash string            `json:"requestHash,omitempty"`
	OrderID     *uuid.UUID        `json:"result,omitempty"`
	ErrorKind   string            `json:"errorKind,omitempty"`
	Error       string            `json:"error,omitempty"`
	ErrorDetail json.RawMessage   `json:"errorDetail,omitempty"`
}

// IdempotencyFailure is what a failed record keeps for replays.
type IdempotencyFailure struct {
	Kind    string
	Message string
	Detail  json.RawMessage
}

// OrderPlacedMail is the payload handed to the mail queue after commit.
type OrderPlacedMail struct {
	TenantID        string     `json:"tenantId"`
	OrderID         uuid.UUID  `json:"orderId"`
	OrderNumber     int64      `json:"orderNumber"`
	InvoiceNumber   int64      `json:"invoiceNumber"`
	CustomerID      *uuid.UUID `json:"customerId,omitempty"`
	RecipientName   string     `json:"recipientName,omitempty"`
	RecipientEmail  string     `json:"recipientEmail,omitempty"`
	FinalTotalCents int64      `json:"finalTotalCents"`
}
