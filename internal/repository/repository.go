package repository

import (
	"context"

	"marketplace-service/internal/domain"
)

// Finders return (nil, nil) when the row does not exist.

type OrderRepository interface {
	Save(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindDetailed(ctx context.Context, id uint64) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
	// UpdateStatus moves the order from one status to another and reports
	// ErrOrderStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uint64, from, to domain.OrderStatus) error
}

// OrderFilter narrows a listing. Zero values mean "any".
type OrderFilter struct {
	CustomerID uint64
	SupplierID uint64
	Limit      int
}

type CouponRepository interface {
	Create(ctx context.Context, c *domain.Coupon) error
	Update(ctx context.Context, c *domain.Coupon) error
	FindByID(ctx context.Context, id uint64) (*domain.Coupon, error)
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// IncrementUses bumps uses_count only while it is below max_uses and the
	// coupon is active. It reports whether a row was updated.
	IncrementUses(ctx context.Context, id uint64) (bool, error)
}

type PaymentRepository interface {
	Save(ctx context.Context, p *domain.OrderPayment) error
	FindByID(ctx context.Context, id uint64) (*domain.OrderPayment, error)
	List(ctx context.Context, filter PaymentFilter) ([]domain.OrderPayment, error)
	UpdateStatus(ctx context.Context, id uint64, status domain.PaymentStatus) error
}

type PaymentFilter struct {
	OrderID    uint64
	CustomerID uint64
	SupplierID uint64
	Limit      int
}

type ActivityLogRepository interface {
	Append(ctx context.Context, entry *domain.OrderActivityLog) error
	ListByOrder(ctx context.Context, orderID uint64, limit int) ([]domain.OrderActivityLog, error)
	ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.UserActivity, error)
}

// Store groups the repositories over one connection or transaction.
type Store interface {
	Orders() OrderRepository
	Coupons() CouponRepository
	Payments() PaymentRepository
	Activity() ActivityLogRepository
	// WithinTx runs fn against a transactional Store; a non-nil error rolls back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ClampLimit applies the default and the ceiling to a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
