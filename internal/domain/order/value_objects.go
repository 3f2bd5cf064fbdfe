package order

import "order-pipeline/internal/domain/cart"

type Status string

const (
	StatusPlaced   Status = "placed"
	StatusCanceled Status = "canceled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPlaced, StatusCanceled:
		return true
	default:
		return false
	}
}

// Numbers are drawn from per-tenant sequences before the order transaction opens.
type Numbers struct {
	OrderNumber   int64
	InvoiceNumber int64
}

type LineItem struct {
	ProductID      string
	Quantity       int
	Options        []cart.Option
	UnitPriceCents int64
	LineTotalCents int64
}

type Adjustment struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amountCents"`
}

// PricingSummary is persisted verbatim from the request.
type PricingSummary struct {
	SubtotalCents   int64
	Adjustments     []Adjustment
	FinalTotalCents int64
}
