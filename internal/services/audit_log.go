package services

import (
	"context"
	"fmt"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"
)

// AuditLog is the append-only trail of actions against orders, payments and shipments.
type AuditLog interface {
	Record(ctx context.Context, e AuditEntry) error
	QueryByOrder(ctx context.Context, orderID uint64, limit int) ([]domain.OrderActivityLog, error)
	QueryByUser(ctx context.Context, userID uint64, limit int) ([]domain.UserActivity, error)
	// Within returns an AuditLog writing through the given transactional store.
	Within(tx repository.Store) AuditLog
}

type AuditEntry struct {
	OrderID     uint64
	Actor       *domain.Actor
	Action      domain.ActivityAction
	EntityType  domain.EntityType
	EntityID    *uint64
	OldStatus   string
	NewStatus   string
	Description string
	Metadata    domain.Metadata
	Provenance  *domain.Provenance
}

type AuditService struct {
	repo repository.ActivityLogRepository
}

func NewAuditService(repo repository.ActivityLogRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Within(tx repository.Store) AuditLog {
	return &AuditService{repo: tx.Activity()}
}

// Record inserts one entry. The only failure mode is the store being unavailable.
func (s *AuditService) Record(ctx context.Context, e AuditEntry) error {
	entry := &domain.OrderActivityLog{
		OrderID:     e.OrderID,
		Action:      e.Action,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		OldStatus:   optionalString(e.OldStatus),
		NewStatus:   optionalString(e.NewStatus),
		Description: e.Description,
		Metadata:    e.Metadata,
	}
	if e.Actor != nil {
		id := e.Actor.ID
		entry.UserID = &id
	}
	if p := e.Provenance; p != nil {
		entry.IPAddress = p.IPAddress
		entry.UserAgent = p.UserAgent
		if p.RequestID != "" {
			if entry.Metadata == nil {
				entry.Metadata = domain.Metadata{}
			}
			entry.Metadata["requestId"] = p.RequestID
		}
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit: record %s on order %d: %w", e.Action, e.OrderID, err)
	}
	return nil
}

func (s *AuditService) QueryByOrder(ctx context.Context, orderID uint64, limit int) ([]domain.OrderActivityLog, error) {
	out, err := s.repo.ListByOrder(ctx, orderID, repository.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("audit: query order %d: %w", orderID, err)
	}
	return out, nil
}

func (s *AuditService) QueryByUser(ctx context.Context, userID uint64, limit int) ([]domain.UserActivity, error) {
	out, err := s.repo.ListByUser(ctx, userID, repository.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("audit: query user %d: %w", userID, err)
	}
	return out, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
