package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

var (
	ErrOrderNotFound       = fmt.Errorf("order %w", ErrNotFound)
	ErrCouponNotFound      = fmt.Errorf("coupon %w", ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("payment %w", ErrNotFound)
	ErrProductNotFound     = fmt.Errorf("product %w", ErrNotFound)
	ErrVariantNotFound     = fmt.Errorf("variant %w", ErrNotFound)
	ErrDuplicateCouponCode = fmt.Errorf("coupon code already exists: %w", ErrConflict)
	ErrOrderTerminal       = fmt.Errorf("order is in a terminal state: %w", ErrConflict)
	ErrOrderStatusChanged  = fmt.Errorf("order status changed concurrently: %w", ErrConflict)

	ErrOrderItemImmutable = errors.New("order items are immutable")
	ErrActivityImmutable  = errors.New("activity log entries are immutable")
)

// ForbiddenError carries the policy reason for a denial.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Reason }
func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
