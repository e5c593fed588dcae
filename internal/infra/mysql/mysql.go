package mysql

import (
	"time"

	"marketplace-service/internal/domain"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&domain.Order{}, &domain.OrderItem{},
		&domain.Coupon{},
		&domain.OrderPayment{}, &domain.OrderPaymentItem{},
		&domain.OrderActivityLog{},
	}
}

func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, err
	}

	return db, nil
}
