package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending          OrderStatus = "pending"
	StatusConfirmed        OrderStatus = "confirmed"
	StatusProcessing       OrderStatus = "processing"
	StatusOnHold           OrderStatus = "on_hold"
	StatusAwaitingPayment  OrderStatus = "awaiting_payment"
	StatusPaymentReceived  OrderStatus = "payment_received"
	StatusInProduction     OrderStatus = "in_production"
	StatusPartiallyShipped OrderStatus = "partially_shipped"
	StatusShipped          OrderStatus = "shipped"
	StatusOutForDelivery   OrderStatus = "out_for_delivery"
	StatusDelivered        OrderStatus = "delivered"
	StatusCompleted        OrderStatus = "completed"
	StatusCancelled        OrderStatus = "cancelled"
	StatusRefunded         OrderStatus = "refunded"
	StatusFailed           OrderStatus = "failed"
	StatusReturned         OrderStatus = "returned"
	StatusBackordered      OrderStatus = "backordered"
)

var orderStatuses = map[OrderStatus]bool{
	StatusPending: false, StatusConfirmed: false, StatusProcessing: false, StatusOnHold: false,
	StatusAwaitingPayment: false, StatusPaymentReceived: false, StatusInProduction: false,
	StatusPartiallyShipped: false, StatusShipped: false, StatusOutForDelivery: false,
	StatusDelivered: false, StatusBackordered: false,
	// terminal
	StatusCompleted: true, StatusCancelled: true, StatusRefunded: true, StatusReturned: true, StatusFailed: true,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatuses[s]
	return ok
}

// Terminal states have no outgoing transitions.
func (s OrderStatus) Terminal() bool {
	return orderStatuses[s]
}

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeDelivery || t == OrderTypePickup
}

type Order struct {
	ID         uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	CustomerID uint64          `json:"customerId,omitempty" gorm:"not null;index"`
	Status     OrderStatus     `json:"status" gorm:"type:varchar(32);not null;default:'pending';index"`
	Type       OrderType       `json:"orderType" gorm:"type:varchar(16);not null"`
	Subtotal   decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	Discount   decimal.Decimal `json:"discount" gorm:"type:decimal(12,2);not null"`
	Shipping   decimal.Decimal `json:"shipping" gorm:"type:decimal(12,2);not null"`
	Total      decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	CouponID   *uint64         `json:"couponId,omitempty" gorm:"index"`
	AddressID  *uint64         `json:"addressId,omitempty"`
	ShippingID *uint64         `json:"shippingId,omitempty"`
	PaymentID  *uint64         `json:"paymentId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`

	Items    []OrderItem        `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	Payments []OrderPayment     `json:"payments,omitempty" gorm:"foreignKey:OrderID"`
	Activity []OrderActivityLog `json:"activity,omitempty" gorm:"-"`
}

// TotalsConsistent checks total = subtotal - discount + shipping and total >= 0.
func (o *Order) TotalsConsistent() bool {
	want := o.Subtotal.Sub(o.Discount).Add(o.Shipping)
	return o.Total.Equal(want) && !o.Total.IsNegative()
}

// SupplierIDs lists the distinct suppliers owning the products on the order.
func (o *Order) SupplierIDs() []uint64 {
	seen := make(map[uint64]struct{}, len(o.Items))
	out := make([]uint64, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.SupplierID]; ok {
			continue
		}
		seen[it.SupplierID] = struct{}{}
		out = append(out, it.SupplierID)
	}
	return out
}

// OrderItem captures the unit price at purchase time; rows are never updated.
type OrderItem struct {
	ID         uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID    uint64          `json:"orderId" gorm:"not null;index"`
	ProductID  uint64          `json:"productId" gorm:"not null;index"`
	VariantID  *uint64         `json:"variantId,omitempty"`
	SupplierID uint64          `json:"supplierId" gorm:"not null;index"`
	Quantity   int             `json:"quantity" gorm:"not null"`
	UnitPrice  decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	LineTotal  decimal.Decimal `json:"lineTotal" gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

func (OrderItem) BeforeUpdate(*gorm.DB) error { return ErrOrderItemImmutable }
func (OrderItem) BeforeDelete(*gorm.DB) error { return ErrOrderItemImmutable }
