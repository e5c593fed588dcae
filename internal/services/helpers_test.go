package services_test

import (
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra"

	"github.com/shopspring/decimal"
)

const (
	TestCustomerID = uint64(7)
	TestSupplierID = uint64(3)
	TestAdminID    = uint64(1)
	TestProductID  = uint64(15)
	TestOrderID    = uint64(100)
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func customer() *domain.Actor { return &domain.Actor{ID: TestCustomerID, Role: domain.RoleCustomer} }

func supplier(id uint64) *domain.Actor {
	return &domain.Actor{ID: 50 + id, Role: domain.RoleSupplier, SupplierID: id}
}

func admin() *domain.Actor { return &domain.Actor{ID: TestAdminID, Role: domain.RoleAdmin} }

func CreateMockProduct(id uint64, price string, supplierID uint64, variants ...uint64) *infra.ProductInfo {
	return &infra.ProductInfo{
		ID:         id,
		Name:       "Test Product",
		Price:      money(price),
		SupplierID: supplierID,
		VariantIDs: variants,
	}
}

func CreateMockOrder(id uint64, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:         id,
		CustomerID: TestCustomerID,
		Status:     status,
		Type:       domain.OrderTypeDelivery,
		Subtotal:   money("299.98"),
		Discount:   decimal.Zero,
		Shipping:   decimal.Zero,
		Total:      money("299.98"),
		CreatedAt:  testNow,
		Items: []domain.OrderItem{{
			ID:         1,
			OrderID:    id,
			ProductID:  TestProductID,
			SupplierID: TestSupplierID,
			Quantity:   2,
			UnitPrice:  money("149.99"),
			LineTotal:  money("299.98"),
		}},
	}
}

func CreateMockCoupon(kind domain.DiscountKind, value string) *domain.Coupon {
	return &domain.Coupon{
		ID:         9,
		Code:       "SAVE10",
		Kind:       kind,
		Value:      money(value),
		MaxUses:    10,
		UsesCount:  0,
		ValidFrom:  testNow.Add(-24 * time.Hour),
		ValidUntil: testNow.Add(24 * time.Hour),
		Active:     true,
	}
}
