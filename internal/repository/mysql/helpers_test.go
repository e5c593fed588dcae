package mysql

import (
	"path/filepath"
	"testing"
	"time"

	"marketplace-service/internal/domain"
	mmysql "marketplace-service/internal/infra/mysql"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(mmysql.Models()...))
	return db
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newOrder(customerID uint64, items ...domain.OrderItem) *domain.Order {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	return &domain.Order{
		CustomerID: customerID,
		Status:     domain.StatusPending,
		Type:       domain.OrderTypeDelivery,
		Subtotal:   subtotal,
		Discount:   decimal.Zero,
		Shipping:   decimal.Zero,
		Total:      subtotal,
		Items:      items,
	}
}

func item(productID, supplierID uint64, qty int, price string) domain.OrderItem {
	p := money(price)
	return domain.OrderItem{
		ProductID:  productID,
		SupplierID: supplierID,
		Quantity:   qty,
		UnitPrice:  p,
		LineTotal:  p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func newCoupon(code string, maxUses int) *domain.Coupon {
	now := time.Now().UTC()
	return &domain.Coupon{
		Code:       code,
		Kind:       domain.DiscountPercent,
		Value:      money("10"),
		MaxUses:    maxUses,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
		Active:     true,
	}
}
