package mysql

import (
	"context"

	"marketplace-service/internal/repository"

	"gorm.io/gorm"
)

type store struct {
	db *gorm.DB
}

// NewStore wires the gorm repositories over db.
func NewStore(db *gorm.DB) repository.Store {
	return &store{db: db}
}

func (s *store) Orders() repository.OrderRepository         { return &orderRepo{db: s.db} }
func (s *store) Coupons() repository.CouponRepository       { return &couponRepo{db: s.db} }
func (s *store) Payments() repository.PaymentRepository     { return &paymentRepo{db: s.db} }
func (s *store) Activity() repository.ActivityLogRepository { return &activityRepo{db: s.db} }

func (s *store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}
