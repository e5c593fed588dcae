package mysql

import (
	"context"
	"errors"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"

	"gorm.io/gorm"
)

type couponRepo struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) repository.CouponRepository {
	return &couponRepo{db: db}
}

// writable columns; uses_count only moves through IncrementUses
var couponColumns = []string{
	"Code", "Kind", "Value", "MinOrderValue", "SupplierID", "CategoryID",
	"MaxUses", "PerUserLimit", "ValidFrom", "ValidUntil", "Active", "UpdatedAt",
}

func (r *couponRepo) Create(ctx context.Context, c *domain.Coupon) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateCouponCode
	}
	return err
}

func (r *couponRepo) Update(ctx context.Context, c *domain.Coupon) error {
	res := r.db.WithContext(ctx).Model(&domain.Coupon{ID: c.ID}).Select(couponColumns).Updates(c)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateCouponCode
	}
	return res.Error
}

func (r *couponRepo) FindByID(ctx context.Context, id uint64) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *couponRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// IncrementUses is a single conditional UPDATE, so concurrent callers can never
// push uses_count past max_uses.
func (r *couponRepo) IncrementUses(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Coupon{}).
		Where("id = ? AND active = ? AND uses_count < max_uses", id, true).
		UpdateColumn("uses_count", gorm.Expr("uses_count + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
