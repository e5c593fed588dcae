package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated         = "order.created"
	EventOrderStatusChanged   = "order.status_changed"
	EventPaymentRecorded      = "payment.recorded"
	EventPaymentStatusUpdated = "payment.status_updated"
)

type OrderCreatedEvent struct {
	OrderID    uint64          `json:"orderId"`
	CustomerID uint64          `json:"customerId"`
	Total      decimal.Decimal `json:"total"`
	CouponID   *uint64         `json:"couponId,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type StatusChangedEvent struct {
	EntityType EntityType `json:"entityType"`
	EntityID   uint64     `json:"entityId"`
	OrderID    uint64     `json:"orderId"`
	OldStatus  string     `json:"oldStatus"`
	NewStatus  string     `json:"newStatus"`
	ActorID    uint64     `json:"actorId"`
	ChangedAt  time.Time  `json:"changedAt"`
}

type PaymentRecordedEvent struct {
	PaymentID uint64          `json:"paymentId"`
	OrderID   uint64          `json:"orderId"`
	Status    PaymentStatus   `json:"status"`
	Net       decimal.Decimal `json:"netAmount"`
	Currency  string          `json:"currency"`
}
