package http

import (
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/services"

	"github.com/shopspring/decimal"
)

type OrderItemRequest struct {
	ProductID uint64           `json:"productId" binding:"required"`
	VariantID *uint64          `json:"variantId"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice" binding:"required"`
}

type CreateOrderRequest struct {
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	CouponCode string             `json:"couponCode" binding:"omitempty,max=50"`
	AddressID  *uint64            `json:"addressId"`
	OrderType  string             `json:"orderType" binding:"required,oneof=delivery pickup"`
}

func (r CreateOrderRequest) toInput(prov *domain.Provenance) services.CreateOrderInput {
	in := services.CreateOrderInput{
		CouponCode: r.CouponCode,
		AddressID:  r.AddressID,
		Type:       domain.OrderType(r.OrderType),
		Provenance: prov,
		Items:      make([]services.OrderLineInput, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.OrderLineInput{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: *it.UnitPrice,
		})
	}
	return in
}

type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment" binding:"max=500"`
}

type PaymentItemRequest struct {
	ProductID uint64           `json:"productId" binding:"required"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice" binding:"required"`
}

type RecordPaymentRequest struct {
	PaymentMethod    string               `json:"paymentMethod" binding:"required,max=50"`
	PaymentID        string               `json:"paymentId" binding:"max=191"`
	Status           string               `json:"status"`
	Items            []PaymentItemRequest `json:"items" binding:"omitempty,dive"`
	DiscountAmount   *decimal.Decimal     `json:"discountAmount"`
	TaxAmount        *decimal.Decimal     `json:"taxAmount"`
	ShippingAmount   *decimal.Decimal     `json:"shippingAmount"`
	CommissionRate   *decimal.Decimal     `json:"commissionRate"`
	Currency         string               `json:"currency" binding:"omitempty,len=3"`
	Gateway          string               `json:"gateway" binding:"max=50"`
	ProcessingTimeMs int64                `json:"processingTimeMs" binding:"min=0"`
	Metadata         map[string]any       `json:"metadata"`
}

func (r RecordPaymentRequest) toInput(prov *domain.Provenance) services.RecordPaymentInput {
	in := services.RecordPaymentInput{
		Method:           r.PaymentMethod,
		ExternalID:       r.PaymentID,
		Status:           domain.PaymentStatus(r.Status),
		DiscountAmount:   r.DiscountAmount,
		ShippingAmount:   r.ShippingAmount,
		CommissionRate:   r.CommissionRate,
		Currency:         r.Currency,
		Gateway:          r.Gateway,
		ProcessingTimeMs: r.ProcessingTimeMs,
		Metadata:         r.Metadata,
		Provenance:       prov,
	}
	if r.TaxAmount != nil {
		in.TaxAmount = *r.TaxAmount
	}
	for _, it := range r.Items {
		in.Items = append(in.Items, services.PaymentItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: *it.UnitPrice,
		})
	}
	return in
}

type CouponRequest struct {
	Code          string           `json:"code" binding:"required,max=50"`
	DiscountType  string           `json:"discountType" binding:"required,oneof=percent fixed shipping"`
	Value         *decimal.Decimal `json:"value" binding:"required"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue"`
	SupplierID    *uint64          `json:"supplierId"`
	CategoryID    *uint64          `json:"categoryId"`
	MaxUses       int              `json:"maxUses" binding:"required,min=1"`
	PerUserLimit  int              `json:"perUserLimit" binding:"min=0"`
	ValidFrom     *time.Time       `json:"validFrom" binding:"required"`
	ValidUntil    *time.Time       `json:"validUntil" binding:"required"`
	Active        *bool            `json:"active"`
}

func (r CouponRequest) toInput() services.CouponInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return services.CouponInput{
		Code:          r.Code,
		Kind:          domain.DiscountKind(r.DiscountType),
		Value:         *r.Value,
		MinOrderValue: r.MinOrderValue,
		SupplierID:    r.SupplierID,
		CategoryID:    r.CategoryID,
		MaxUses:       r.MaxUses,
		PerUserLimit:  r.PerUserLimit,
		ValidFrom:     *r.ValidFrom,
		ValidUntil:    *r.ValidUntil,
		Active:        active,
	}
}

type ActivityRequest struct {
	Action      string         `json:"action" binding:"required,max=64"`
	EntityType  string         `json:"entityType" binding:"required,oneof=order payment shipment"`
	EntityID    *uint64        `json:"entityId"`
	OldStatus   string         `json:"oldStatus" binding:"max=32"`
	NewStatus   string         `json:"newStatus" binding:"max=32"`
	Description string         `json:"description" binding:"required,max=1000"`
	Metadata    map[string]any `json:"metadata"`
}

func (r ActivityRequest) toInput() services.ActivityInput {
	return services.ActivityInput{
		Action:      domain.ActivityAction(r.Action),
		EntityType:  domain.EntityType(r.EntityType),
		EntityID:    r.EntityID,
		OldStatus:   r.OldStatus,
		NewStatus:   r.NewStatus,
		Description: r.Description,
		Metadata:    r.Metadata,
	}
}
