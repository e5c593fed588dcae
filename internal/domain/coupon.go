package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	DiscountPercent  DiscountKind = "percent"
	DiscountFixed    DiscountKind = "fixed"
	DiscountShipping DiscountKind = "shipping"
)

func (k DiscountKind) Valid() bool {
	switch k {
	case DiscountPercent, DiscountFixed, DiscountShipping:
		return true
	}
	return false
}

type Coupon struct {
	ID            uint64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Code          string           `json:"code" gorm:"size:50;uniqueIndex;not null"`
	Kind          DiscountKind     `json:"discountType" gorm:"type:varchar(16);not null"`
	Value         decimal.Decimal  `json:"value" gorm:"type:decimal(12,2);not null"`
	MinOrderValue *decimal.Decimal `json:"minOrderValue,omitempty" gorm:"type:decimal(12,2)"`
	SupplierID    *uint64          `json:"supplierId,omitempty" gorm:"index"`
	CategoryID    *uint64          `json:"categoryId,omitempty"`
	MaxUses       int              `json:"maxUses" gorm:"not null"`
	PerUserLimit  int              `json:"perUserLimit" gorm:"not null;default:0"`
	UsesCount     int              `json:"usesCount" gorm:"not null;default:0"`
	ValidFrom     time.Time        `json:"validFrom" gorm:"not null"`
	ValidUntil    time.Time        `json:"validUntil" gorm:"not null"`
	Active        bool             `json:"active" gorm:"not null"`
	CreatedAt     time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

// NormalizeCouponCode is the only place codes are canonicalised.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EligibleAt reports whether the coupon can be applied at now.
// Supplier, category, minimum order value and per-user limits are stored but not checked here.
func (c *Coupon) EligibleAt(now time.Time) bool {
	return c.Active &&
		c.UsesCount < c.MaxUses &&
		!c.ValidFrom.After(now) &&
		c.ValidUntil.After(now)
}
