package mocks

import (
	"context"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockCouponRepository struct {
	mock.Mock
}

type MockPaymentRepository struct {
	mock.Mock
}

type MockActivityLogRepository struct {
	mock.Mock
}

type MockCatalogClient struct {
	mock.Mock
}

type MockShippingQuoter struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockAuditLog struct {
	mock.Mock
}

var (
	_ repository.Store    = (*MockStore)(nil)
	_ infra.CatalogClient = (*MockCatalogClient)(nil)
	_ services.AuditLog   = (*MockAuditLog)(nil)
)

// MockStore hands out the same repositories inside and outside a
// transaction. TxCalls counts WithinTx invocations.
type MockStore struct {
	OrderRepo    *MockOrderRepository
	CouponRepo   *MockCouponRepository
	PaymentRepo  *MockPaymentRepository
	ActivityRepo *MockActivityLogRepository
	TxCalls      int
}

func NewMockStore() *MockStore {
	return &MockStore{
		OrderRepo:    new(MockOrderRepository),
		CouponRepo:   new(MockCouponRepository),
		PaymentRepo:  new(MockPaymentRepository),
		ActivityRepo: new(MockActivityLogRepository),
	}
}

func (m *MockStore) Orders() repository.OrderRepository         { return m.OrderRepo }
func (m *MockStore) Coupons() repository.CouponRepository       { return m.CouponRepo }
func (m *MockStore) Payments() repository.PaymentRepository     { return m.PaymentRepo }
func (m *MockStore) Activity() repository.ActivityLogRepository { return m.ActivityRepo }

func (m *MockStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	m.TxCalls++
	return fn(m)
}

// AssertExpectations checks every repository mock.
func (m *MockStore) AssertExpectations(t mock.TestingT) {
	m.OrderRepo.AssertExpectations(t)
	m.CouponRepo.AssertExpectations(t)
	m.PaymentRepo.AssertExpectations(t)
	m.ActivityRepo.AssertExpectations(t)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindDetailed(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uint64, from, to domain.OrderStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockCouponRepository) Create(ctx context.Context, c *domain.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCouponRepository) Update(ctx context.Context, c *domain.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCouponRepository) FindByID(ctx context.Context, id uint64) (*domain.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) IncrementUses(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *domain.OrderPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uint64) (*domain.OrderPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderPayment), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]domain.OrderPayment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderPayment), args.Error(1)
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id uint64, status domain.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockActivityLogRepository) Append(ctx context.Context, entry *domain.OrderActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityLogRepository) ListByOrder(ctx context.Context, orderID uint64, limit int) ([]domain.OrderActivityLog, error) {
	args := m.Called(ctx, orderID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderActivityLog), args.Error(1)
}

func (m *MockActivityLogRepository) ListByUser(ctx context.Context, userID uint64, limit int) ([]domain.UserActivity, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserActivity), args.Error(1)
}

func (m *MockCatalogClient) GetProductById(ctx context.Context, productId uint64) (*infra.ProductInfo, error) {
	args := m.Called(ctx, productId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ProductInfo), args.Error(1)
}

func (m *MockCatalogClient) GetSupplierByUserId(ctx context.Context, userID uint64) (*infra.SupplierInfo, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.SupplierInfo), args.Error(1)
}

func (m *MockShippingQuoter) Quote(ctx context.Context, orderType domain.OrderType, addressID *uint64, subtotal decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, orderType, addressID, subtotal)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockAuditLog) Record(ctx context.Context, e services.AuditEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAuditLog) QueryByOrder(ctx context.Context, orderID uint64, limit int) ([]domain.OrderActivityLog, error) {
	args := m.Called(ctx, orderID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderActivityLog), args.Error(1)
}

func (m *MockAuditLog) QueryByUser(ctx context.Context, userID uint64, limit int) ([]domain.UserActivity, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserActivity), args.Error(1)
}

// Within returns the same mock so expectations cover transactional writes too.
func (m *MockAuditLog) Within(tx repository.Store) services.AuditLog {
	return m
}
