package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"marketplace-service/internal/access"
	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"

	"github.com/shopspring/decimal"
)

const maxCouponCodeLen = 50

// CouponService validates, prices and consumes coupons and handles their
// administrative writes.
type CouponService struct {
	coupons repository.CouponRepository
	now     Clock
}

func NewCouponService(coupons repository.CouponRepository, clock Clock) *CouponService {
	if clock == nil {
		clock = SystemClock
	}
	return &CouponService{coupons: coupons, now: clock}
}

// Within binds the validator to a transactional store.
func (s *CouponService) Within(tx repository.Store) *CouponService {
	return &CouponService{coupons: tx.Coupons(), now: s.now}
}

// Verify looks a code up and checks eligibility at the current instant.
// Unknown, inactive, expired, not yet valid and exhausted coupons all come
// back as ErrCouponNotFound. It never writes.
func (s *CouponService) Verify(ctx context.Context, code string) (*domain.Coupon, error) {
	code = domain.NormalizeCouponCode(code)
	if code == "" {
		return nil, domain.ErrCouponNotFound
	}
	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("coupons: lookup: %w", err)
	}
	if c == nil || !c.EligibleAt(s.now()) {
		return nil, domain.ErrCouponNotFound
	}
	return c, nil
}

// Apply returns the product discount and the shipping discount the coupon gives.
func (s *CouponService) Apply(c *domain.Coupon, subtotal, shipping decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return couponDiscount(c, subtotal, shipping)
}

// Consume takes exactly one use. A coupon that ran out between Verify and
// Consume is reported as ErrCouponNotFound.
func (s *CouponService) Consume(ctx context.Context, c *domain.Coupon) error {
	ok, err := s.coupons.IncrementUses(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("coupons: consume: %w", err)
	}
	if !ok {
		return domain.ErrCouponNotFound
	}
	c.UsesCount++
	return nil
}

type CouponInput struct {
	Code          string
	Kind          domain.DiscountKind
	Value         decimal.Decimal
	MinOrderValue *decimal.Decimal
	SupplierID    *uint64
	CategoryID    *uint64
	MaxUses       int
	PerUserLimit  int
	ValidFrom     time.Time
	ValidUntil    time.Time
	Active        bool
}

func (s *CouponService) Create(ctx context.Context, actor *domain.Actor, in CouponInput) (*domain.Coupon, error) {
	if actor != nil && actor.Role == domain.RoleSupplier {
		sid := actor.SupplierID
		in.SupplierID = &sid
	}
	c := &domain.Coupon{}
	in.applyTo(c)
	if err := access.CanAccess(actor, access.CouponResource(c), access.ActionCreate).Err(); err != nil {
		return nil, err
	}
	if err := validateCoupon(c); err != nil {
		return nil, err
	}

	if err := s.coupons.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateCouponCode) {
			return nil, err
		}
		return nil, fmt.Errorf("coupons: create: %w", err)
	}
	log.Printf("coupons: created %s (id %d) by user %d", c.Code, c.ID, actor.ID)
	return c, nil
}

func (s *CouponService) Update(ctx context.Context, id uint64, actor *domain.Actor, in CouponInput) (*domain.Coupon, error) {
	c, err := s.coupons.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("coupons: lookup: %w", err)
	}
	if c == nil {
		return nil, domain.ErrCouponNotFound
	}
	if err := access.CanAccess(actor, access.CouponResource(c), access.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleSupplier {
		// suppliers cannot move a coupon out of their own scope
		in.SupplierID = c.SupplierID
	}

	in.applyTo(c)
	if err := validateCoupon(c); err != nil {
		return nil, err
	}
	if err := s.coupons.Update(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateCouponCode) {
			return nil, err
		}
		return nil, fmt.Errorf("coupons: update: %w", err)
	}
	return c, nil
}

func (in CouponInput) applyTo(c *domain.Coupon) {
	c.Code = domain.NormalizeCouponCode(in.Code)
	c.Kind = in.Kind
	c.Value = in.Value
	c.MinOrderValue = in.MinOrderValue
	c.SupplierID = in.SupplierID
	c.CategoryID = in.CategoryID
	c.MaxUses = in.MaxUses
	c.PerUserLimit = in.PerUserLimit
	c.ValidFrom = in.ValidFrom.UTC()
	c.ValidUntil = in.ValidUntil.UTC()
	c.Active = in.Active
}

func validateCoupon(c *domain.Coupon) error {
	v := domain.NewValidationError()
	if c.Code == "" {
		v.Add("code", "is required")
	} else if len(c.Code) > maxCouponCodeLen {
		v.Add("code", fmt.Sprintf("must be at most %d characters", maxCouponCodeLen))
	}
	if !c.Kind.Valid() {
		v.Add("discountType", "must be one of percent, fixed, shipping")
	}
	if !c.Value.IsPositive() {
		v.Add("value", "must be greater than 0")
	} else if c.Kind == domain.DiscountPercent && c.Value.GreaterThan(hundred) {
		v.Add("value", "must be at most 100 for percent coupons")
	}
	if !domain.HasMoneyPrecision(c.Value) {
		v.Add("value", "must have at most 2 decimal places")
	}
	if c.MinOrderValue != nil && c.MinOrderValue.IsNegative() {
		v.Add("minOrderValue", "must not be negative")
	}
	if c.MaxUses < 1 {
		v.Add("maxUses", "must be at least 1")
	} else if c.MaxUses < c.UsesCount {
		v.Add("maxUses", fmt.Sprintf("must not be below current uses (%d)", c.UsesCount))
	}
	if c.PerUserLimit < 0 {
		v.Add("perUserLimit", "must not be negative")
	}
	if c.ValidFrom.IsZero() {
		v.Add("validFrom", "is required")
	}
	if !c.ValidUntil.After(c.ValidFrom) {
		v.Add("validUntil", "must be after validFrom")
	}
	return v.OrNil()
}
