package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ActivityAction string

const (
	ActionCreated              ActivityAction = "created"
	ActionStatusChanged        ActivityAction = "status_changed"
	ActionCouponApplied        ActivityAction = "coupon_applied"
	ActionPaymentRecorded      ActivityAction = "payment_recorded"
	ActionPaymentStatusUpdated ActivityAction = "payment_status_updated"
	ActionNote                 ActivityAction = "note"
)

type EntityType string

const (
	EntityOrder    EntityType = "order"
	EntityPayment  EntityType = "payment"
	EntityShipment EntityType = "shipment"
)

func (e EntityType) Valid() bool {
	return e == EntityOrder || e == EntityPayment || e == EntityShipment
}

// Metadata is a free-form JSON object column.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(raw, m)
}

// OrderActivityLog is append-only. Corrections are new rows pointing at the old one in Metadata.
type OrderActivityLog struct {
	ID          uint64         `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64         `json:"orderId" gorm:"not null;index"`
	UserID      *uint64        `json:"userId,omitempty" gorm:"index"`
	Action      ActivityAction `json:"action" gorm:"size:64;not null"`
	EntityType  EntityType     `json:"entityType" gorm:"size:32;not null"`
	EntityID    *uint64        `json:"entityId,omitempty"`
	OldStatus   *string        `json:"oldStatus,omitempty" gorm:"size:32"`
	NewStatus   *string        `json:"newStatus,omitempty" gorm:"size:32"`
	Description string         `json:"description" gorm:"type:text"`
	Metadata    Metadata       `json:"metadata,omitempty" gorm:"type:json"`
	IPAddress   string         `json:"ipAddress,omitempty" gorm:"size:64"`
	UserAgent   string         `json:"userAgent,omitempty" gorm:"size:255"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime;index"`
}

func (OrderActivityLog) BeforeUpdate(*gorm.DB) error { return ErrActivityImmutable }
func (OrderActivityLog) BeforeDelete(*gorm.DB) error { return ErrActivityImmutable }

// OrderSummary is the minimal projection of an order attached to user activity.
type OrderSummary struct {
	ID     uint64          `json:"id"`
	Status OrderStatus     `json:"status"`
	Total  decimal.Decimal `json:"total"`
}

type UserActivity struct {
	OrderActivityLog
	Order *OrderSummary `json:"order,omitempty"`
}
