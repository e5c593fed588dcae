package mysql

import (
	"context"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"

	"gorm.io/gorm"
)

type activityRepo struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) repository.ActivityLogRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Append(ctx context.Context, entry *domain.OrderActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepo) ListByOrder(ctx context.Context, orderID uint64, limit int) ([]domain.OrderActivityLog, error) {
	var out []domain.OrderActivityLog
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").Order("id DESC").
		Limit(repository.ClampLimit(limit)).
		Find(&out).Error
	return out, err
}

func (r *activityRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.UserActivity, error) {
	var logs []domain.OrderActivityLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Limit(repository.ClampLimit(limit)).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return []domain.UserActivity{}, nil
	}

	ids := make([]uint64, 0, len(logs))
	for _, l := range logs {
		ids = append(ids, l.OrderID)
	}
	var summaries []domain.OrderSummary
	err = r.db.WithContext(ctx).Model(&domain.Order{}).
		Select("id", "status", "total").
		Where("id IN ?", ids).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]domain.OrderSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}

	out := make([]domain.UserActivity, 0, len(logs))
	for _, l := range logs {
		ua := domain.UserActivity{OrderActivityLog: l}
		if s, ok := byID[l.OrderID]; ok {
			s := s
			ua.Order = &s
		}
		out = append(out, ua)
	}
	return out, nil
}
