package mysql

import (
	"context"
	"errors"
	"log"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"

	"gorm.io/gorm"
)

type paymentRepo struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) Save(ctx context.Context, p *domain.OrderPayment) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		log.Printf("payments: save error: %v", err)
		return err
	}
	if p.ID == 0 {
		return errors.New("failed to assign payment ID")
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, id uint64) (*domain.OrderPayment, error) {
	var p domain.OrderPayment
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		log.Printf("payments: FindByID error: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepo) List(ctx context.Context, filter repository.PaymentFilter) ([]domain.OrderPayment, error) {
	q := r.db.WithContext(ctx).Model(&domain.OrderPayment{})
	if filter.OrderID != 0 {
		q = q.Where("order_id = ?", filter.OrderID)
	}
	if filter.CustomerID != 0 {
		sub := r.db.Model(&domain.Order{}).Select("id").Where("customer_id = ?", filter.CustomerID)
		q = q.Where("order_id IN (?)", sub)
	}
	if filter.SupplierID != 0 {
		sub := r.db.Model(&domain.OrderPaymentItem{}).Select("order_payment_id").Where("supplier_id = ?", filter.SupplierID)
		q = q.Where("id IN (?)", sub)
	}

	var out []domain.OrderPayment
	err := q.Preload("Items").
		Order("created_at DESC").Order("id DESC").
		Limit(repository.ClampLimit(filter.Limit)).
		Find(&out).Error
	if err != nil {
		log.Printf("payments: List error: %v", err)
		return nil, err
	}
	return out, nil
}

func (r *paymentRepo) UpdateStatus(ctx context.Context, id uint64, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).Model(&domain.OrderPayment{}).Where("id = ?", id).Update("status", status).Error
}
