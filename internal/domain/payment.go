package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentPaid       PaymentStatus = "paid"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentCancelled  PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

type OrderPayment struct {
	ID               uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID          uint64          `json:"orderId" gorm:"not null;index"`
	Method           string          `json:"paymentMethod" gorm:"size:50;not null"`
	ExternalID       string          `json:"paymentId" gorm:"size:191;index"`
	Status           PaymentStatus   `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	GrossAmount      decimal.Decimal `json:"grossAmount" gorm:"type:decimal(12,2);not null"`
	DiscountAmount   decimal.Decimal `json:"discountAmount" gorm:"type:decimal(12,2);not null"`
	TaxAmount        decimal.Decimal `json:"taxAmount" gorm:"type:decimal(12,2);not null"`
	ShippingAmount   decimal.Decimal `json:"shippingAmount" gorm:"type:decimal(12,2);not null"`
	NetAmount        decimal.Decimal `json:"netAmount" gorm:"type:decimal(12,2);not null"`
	CommissionAmount decimal.Decimal `json:"commissionAmount" gorm:"type:decimal(12,2);not null"`
	SupplierAmount   decimal.Decimal `json:"supplierAmount" gorm:"type:decimal(12,2);not null"`
	ItemCount        int             `json:"itemCount" gorm:"not null"`
	Currency         string          `json:"currency" gorm:"size:3;not null"`
	Gateway          string          `json:"gateway" gorm:"size:50"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
	Metadata         Metadata        `json:"metadata,omitempty" gorm:"type:json"`
	CreatedAt        time.Time       `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt        time.Time       `json:"updatedAt" gorm:"autoUpdateTime"`

	Items []OrderPaymentItem `json:"items,omitempty" gorm:"foreignKey:OrderPaymentID"`
}

type OrderPaymentItem struct {
	ID             uint64          `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderPaymentID uint64          `json:"orderPaymentId" gorm:"not null;index"`
	ProductID      uint64          `json:"productId" gorm:"not null;index"`
	SupplierID     uint64          `json:"supplierId" gorm:"not null;index"`
	Quantity       int             `json:"quantity" gorm:"not null"`
	UnitPrice      decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	LineTotal      decimal.Decimal `json:"lineTotal" gorm:"type:decimal(12,2);not null"`
}

// BreakdownConsistent checks net = gross - discount - tax + shipping,
// supplier + commission = net and that items sum to gross.
func (p *OrderPayment) BreakdownConsistent() bool {
	net := p.GrossAmount.Sub(p.DiscountAmount).Sub(p.TaxAmount).Add(p.ShippingAmount)
	if !p.NetAmount.Equal(net) {
		return false
	}
	if !p.SupplierAmount.Add(p.CommissionAmount).Equal(p.NetAmount) {
		return false
	}
	sum := decimal.Zero
	for _, it := range p.Items {
		sum = sum.Add(it.LineTotal)
	}
	return sum.Equal(p.GrossAmount)
}

func (p *OrderPayment) SupplierIDs() []uint64 {
	seen := make(map[uint64]struct{}, len(p.Items))
	out := make([]uint64, 0, len(p.Items))
	for _, it := range p.Items {
		if _, ok := seen[it.SupplierID]; !ok {
			seen[it.SupplierID] = struct{}{}
			out = append(out, it.SupplierID)
		}
	}
	return out
}
