package response

import (
	"time"

	"order-pipeline/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type OrderResponse struct {
	ID             uuid.UUID                 `json:"id"`
	TenantID       string                    `json:"tenantId"`
	OrderNumber    int64                     `json:"orderNumber"`
	InvoiceNumber  int64                     `json:"invoiceNumber"`
	CartID         string                    `json:"cartId"`
	CustomerID     *uuid.UUID                `json:"customerId,omitempty"`
	ManualCustomer *CustomerSnapshotResponse `json:"manualCustomer,omitempty" copier:"-"`
	Items          []OrderItemResponse       `json:"items" copier:"-"`
	Pricing        PricingResponse           `json:"pricing" copier:"-"`
	Status         string                    `json:"status"`
	CreatedAt      time.Time                 `json:"createdAt"`
	UpdatedAt      time.Time                 `json:"updatedAt"`
}

type OrderItemResponse struct {
	ProductID      string           `json:"productId"`
	Quantity       int              `json:"quantity"`
	Options        []OptionResponse `json:"options" copier:"-"`
	UnitPriceCents int64            `json:"unitPrice"`
	LineTotalCents int64            `json:"lineTotal"`
}

type OptionResponse struct {
	Name            string `json:"name"`
	Value           string `json:"value"`
	PriceDeltaCents int64  `json:"priceDelta"`
}

type PricingResponse struct {
	SubtotalCents   int64                `json:"subtotal"`
	Adjustments     []AdjustmentResponse `json:"adjustments"`
	FinalTotalCents int64                `json:"finalTotal"`
}

type AdjustmentResponse struct {
	Code        string `json:"code"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amount"`
}

type CustomerSnapshotResponse struct {
	Name            string           `json:"name"`
	Phone           string           `json:"phone,omitempty"`
	Email           string           `json:"email,omitempty"`
	DeliveryAddress *AddressResponse `json:"deliveryAddress,omitempty" copier:"-"`
}

type AddressResponse struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// FromOrderView copies flat fields with copier; nested collections are copied
// level by level so empty slices still encode as [].
func FromOrderView(v *queries.OrderView) (*OrderResponse, error) {
	resp := &OrderResponse{}
	if err := copier.Copy(resp, v); err != nil {
		return nil, err
	}

	resp.Items = make([]OrderItemResponse, len(v.Items))
	for i := range v.Items {
		if err := copier.Copy(&resp.Items[i], &v.Items[i]); err != nil {
			return nil, err
		}
		resp.Items[i].Options = make([]OptionResponse, 0, len(v.Items[i].Options))
		if err := copier.Copy(&resp.Items[i].Options, v.Items[i].Options); err != nil {
			return nil, err
		}
	}

	resp.Pricing = PricingResponse{
		SubtotalCents:   v.SubtotalCents,
		FinalTotalCents: v.FinalTotalCents,
		Adjustments:     make([]AdjustmentResponse, 0, len(v.Adjustments)),
	}
	if err := copier.Copy(&resp.Pricing.Adjustments, v.Adjustments); err != nil {
		return nil, err
	}

	if v.ManualCustomer != nil {
		resp.ManualCustomer = &CustomerSnapshotResponse{}
		if err := copier.Copy(resp.ManualCustomer, v.ManualCustomer); err != nil {
			return nil, err
		}
		if addr := v.ManualCustomer.DeliveryAddress; addr != nil {
			resp.ManualCustomer.DeliveryAddress = &AddressResponse{}
			if err := copier.Copy(resp.ManualCustomer.DeliveryAddress, addr); err != nil {
				return nil, err
			}
		}
	}

	return resp, nil
}
