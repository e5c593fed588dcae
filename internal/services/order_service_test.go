package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/mocks"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderDeps struct {
	store    *mocks.MockStore
	catalog  *mocks.MockCatalogClient
	shipping *mocks.MockShippingQuoter
	audit    *mocks.MockAuditLog
	pub      *mocks.MockPublisher
}

func newOrderDeps() *orderDeps {
	return &orderDeps{
		store:    mocks.NewMockStore(),
		catalog:  new(mocks.MockCatalogClient),
		shipping: new(mocks.MockShippingQuoter),
		audit:    new(mocks.MockAuditLog),
		pub:      new(mocks.MockPublisher),
	}
}

func (d *orderDeps) service() *services.OrderService {
	coupons := services.NewCouponService(d.store.CouponRepo, fixedClock)
	return services.NewOrderService(d.store, d.catalog, d.shipping, coupons, d.audit, d.pub)
}

func (d *orderDeps) assertExpectations(t *testing.T) {
	d.store.AssertExpectations(t)
	d.catalog.AssertExpectations(t)
	d.shipping.AssertExpectations(t)
	d.audit.AssertExpectations(t)
	d.pub.AssertExpectations(t)
}

func defaultOrderInput() services.CreateOrderInput {
	return services.CreateOrderInput{
		Items: []services.OrderLineInput{{ProductID: TestProductID, Quantity: 2, UnitPrice: money("149.99")}},
		Type:  domain.OrderTypeDelivery,
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	expectPersisted := func(d *orderDeps) {
		d.store.OrderRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Run(func(args mock.Arguments) {
			o := args.Get(1).(*domain.Order)
			o.ID = TestOrderID
			o.CreatedAt = time.Now()
		})
		d.audit.On("Record", mock.Anything, mock.MatchedBy(func(e services.AuditEntry) bool {
			return e.Action == domain.ActionCreated && e.OrderID == TestOrderID && e.NewStatus == "pending"
		})).Return(nil)
		d.pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(nil).Maybe()
	}

	tests := []struct {
		name             string
		actor            *domain.Actor
		input            func() services.CreateOrderInput
		setupMocks       func(*orderDeps)
		expectedError    error
		expectedSubtotal string
		expectedDiscount string
		expectedTotal    string
		expectedTx       int
	}{
		{
			name:  "no coupon",
			actor: customer(),
			input: defaultOrderInput,
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "149.99", TestSupplierID), nil)
				d.shipping.On("Quote", mock.Anything, domain.OrderTypeDelivery, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
				expectPersisted(d)
			},
			expectedSubtotal: "299.98",
			expectedDiscount: "0",
			expectedTotal:    "299.98",
			expectedTx:       1,
		},
		{
			name:  "percent coupon is verified and consumed",
			actor: customer(),
			input: func() services.CreateOrderInput {
				in := defaultOrderInput()
				in.CouponCode = "save10"
				return in
			},
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "149.99", TestSupplierID), nil)
				d.shipping.On("Quote", mock.Anything, domain.OrderTypeDelivery, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
				d.store.CouponRepo.On("FindByCode", mock.Anything, "SAVE10").Return(CreateMockCoupon(domain.DiscountPercent, "10"), nil)
				d.store.CouponRepo.On("IncrementUses", mock.Anything, uint64(9)).Return(true, nil).Once()
				expectPersisted(d)
			},
			expectedSubtotal: "299.98",
			expectedDiscount: "30.00",
			expectedTotal:    "269.98",
			expectedTx:       1,
		},
		{
			name:  "submitted price wins over catalog price",
			actor: customer(),
			input: defaultOrderInput,
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "99.00", TestSupplierID), nil)
				d.shipping.On("Quote", mock.Anything, domain.OrderTypeDelivery, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
				expectPersisted(d)
			},
			expectedSubtotal: "299.98",
			expectedDiscount: "0",
			expectedTotal:    "299.98",
			expectedTx:       1,
		},
		{
			name:  "product not found",
			actor: customer(),
			input: defaultOrderInput,
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(nil, nil)
			},
			expectedError: domain.ErrProductNotFound,
		},
		{
			name:  "catalog unavailable",
			actor: customer(),
			input: defaultOrderInput,
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(nil, errors.New("catalog timeout"))
			},
			expectedError: errors.New("catalog timeout"),
		},
		{
			name:  "unknown variant",
			actor: customer(),
			input: func() services.CreateOrderInput {
				in := defaultOrderInput()
				v := uint64(77)
				in.Items[0].VariantID = &v
				return in
			},
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "149.99", TestSupplierID, 1, 2), nil)
			},
			expectedError: domain.ErrVariantNotFound,
		},
		{
			name:  "ineligible coupon aborts the order",
			actor: customer(),
			input: func() services.CreateOrderInput {
				in := defaultOrderInput()
				in.CouponCode = "SAVE10"
				return in
			},
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "149.99", TestSupplierID), nil)
				d.shipping.On("Quote", mock.Anything, domain.OrderTypeDelivery, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
				c := CreateMockCoupon(domain.DiscountPercent, "10")
				c.ValidUntil = testNow
				d.store.CouponRepo.On("FindByCode", mock.Anything, "SAVE10").Return(c, nil)
			},
			expectedError: domain.ErrCouponNotFound,
			expectedTx:    1,
		},
		{
			name:  "last use taken concurrently",
			actor: customer(),
			input: func() services.CreateOrderInput {
				in := defaultOrderInput()
				in.CouponCode = "SAVE10"
				return in
			},
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "149.99", TestSupplierID), nil)
				d.shipping.On("Quote", mock.Anything, domain.OrderTypeDelivery, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
				d.store.CouponRepo.On("FindByCode", mock.Anything, "SAVE10").Return(CreateMockCoupon(domain.DiscountPercent, "10"), nil)
				d.store.CouponRepo.On("IncrementUses", mock.Anything, uint64(9)).Return(false, nil)
			},
			expectedError: domain.ErrCouponNotFound,
			expectedTx:    1,
		},
		{
			name:  "database error",
			actor: customer(),
			input: defaultOrderInput,
			setupMocks: func(d *orderDeps) {
				d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "149.99", TestSupplierID), nil)
				d.shipping.On("Quote", mock.Anything, domain.OrderTypeDelivery, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
				d.store.OrderRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("database error"))
			},
			expectedError: errors.New("database error"),
			expectedTx:    1,
		},
		{
			name:  "invalid input",
			actor: customer(),
			input: func() services.CreateOrderInput {
				return services.CreateOrderInput{
					Items: []services.OrderLineInput{{ProductID: TestProductID, Quantity: 0, UnitPrice: money("1")}},
					Type:  "drone",
				}
			},
			setupMocks:    func(d *orderDeps) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "unauthenticated",
			actor:         nil,
			input:         defaultOrderInput,
			setupMocks:    func(d *orderDeps) {},
			expectedError: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newOrderDeps()
			tt.setupMocks(d)
			svc := d.service()

			result, err := svc.CreateOrder(context.Background(), tt.actor, tt.input())

			if tt.expectedError != nil {
				require.Error(t, err)
				if errors.Is(tt.expectedError, domain.ErrNotFound) || errors.Is(tt.expectedError, domain.ErrForbidden) || errors.Is(tt.expectedError, domain.ErrValidation) {
					assert.ErrorIs(t, err, tt.expectedError)
				} else {
					assert.Contains(t, err.Error(), tt.expectedError.Error())
				}
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, TestOrderID, result.ID)
				assert.Equal(t, TestCustomerID, result.CustomerID)
				assert.Equal(t, domain.StatusPending, result.Status)
				assert.True(t, money(tt.expectedSubtotal).Equal(result.Subtotal), "subtotal %s", result.Subtotal)
				assert.True(t, money(tt.expectedDiscount).Equal(result.Discount), "discount %s", result.Discount)
				assert.True(t, money(tt.expectedTotal).Equal(result.Total), "total %s", result.Total)
				assert.True(t, result.TotalsConsistent())
				require.Len(t, result.Items, 1)
				assert.Equal(t, TestSupplierID, result.Items[0].SupplierID)
				assert.True(t, money("149.99").Equal(result.Items[0].UnitPrice))
				assert.WithinDuration(t, time.Now(), result.CreatedAt, time.Second)
			}
			assert.Equal(t, tt.expectedTx, d.store.TxCalls)

			time.Sleep(50 * time.Millisecond)
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_CreateOrder_PublishesEvent(t *testing.T) {
	d := newOrderDeps()
	published := make(chan domain.OrderCreatedEvent, 1)

	d.catalog.On("GetProductById", mock.Anything, TestProductID).Return(CreateMockProduct(TestProductID, "149.99", TestSupplierID), nil)
	d.shipping.On("Quote", mock.Anything, domain.OrderTypeDelivery, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
	d.store.OrderRepo.On("Save", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Order).ID = TestOrderID
	})
	d.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	d.pub.On("Publish", mock.Anything, domain.EventOrderCreated, mock.Anything).Return(errors.New("broker down")).Run(func(args mock.Arguments) {
		published <- args.Get(2).(domain.OrderCreatedEvent)
	})

	o, err := d.service().CreateOrder(context.Background(), customer(), defaultOrderInput())
	require.NoError(t, err)

	select {
	case evt := <-published:
		assert.Equal(t, o.ID, evt.OrderID)
		assert.True(t, money("299.98").Equal(evt.Total))
	case <-time.After(time.Second):
		t.Fatal("order.created was not published")
	}
}

func TestOrderService_CreateOrder_ResolvesEachProductOnce(t *testing.T) {
	d := newOrderDeps()
	d.catalog.On("GetProductById", mock.Anything, uint64(1)).Return(CreateMockProduct(1, "10.00", 4), nil).Once()
	d.catalog.On("GetProductById", mock.Anything, uint64(2)).Return(CreateMockProduct(2, "5.00", 5), nil).Once()
	d.shipping.On("Quote", mock.Anything, domain.OrderTypePickup, mock.Anything, mock.Anything).Return(decimal.Zero, nil)
	d.store.OrderRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	d.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
	d.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	in := services.CreateOrderInput{
		Type: domain.OrderTypePickup,
		Items: []services.OrderLineInput{
			{ProductID: 1, Quantity: 1, UnitPrice: money("10.00")},
			{ProductID: 2, Quantity: 3, UnitPrice: money("5.00")},
			{ProductID: 1, Quantity: 2, UnitPrice: money("10.00")},
		},
	}
	o, err := d.service().CreateOrder(context.Background(), customer(), in)
	require.NoError(t, err)

	assert.True(t, money("45.00").Equal(o.Subtotal))
	assert.ElementsMatch(t, []uint64{4, 5}, o.SupplierIDs())
	time.Sleep(50 * time.Millisecond)
	d.assertExpectations(t)
}

func TestOrderService_Show(t *testing.T) {
	tests := []struct {
		name          string
		actor         *domain.Actor
		setupMocks    func(*orderDeps)
		expectedError error
		redacted      bool
	}{
		{
			name:  "customer sees own order",
			actor: customer(),
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindDetailed", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusPending), nil)
				d.audit.On("QueryByOrder", mock.Anything, TestOrderID, mock.Anything).Return([]domain.OrderActivityLog{{ID: 1, OrderID: TestOrderID, IPAddress: "10.0.0.1"}}, nil)
			},
		},
		{
			name:  "owning supplier sees a redacted order",
			actor: supplier(TestSupplierID),
			setupMocks: func(d *orderDeps) {
				o := CreateMockOrder(TestOrderID, domain.StatusPending)
				addr := uint64(5)
				o.AddressID = &addr
				o.Items = append(o.Items, domain.OrderItem{ID: 2, OrderID: TestOrderID, ProductID: 16, SupplierID: 42, Quantity: 1, UnitPrice: money("10.00"), LineTotal: money("10.00")})
				o.Payments = []domain.OrderPayment{
					{ID: 5, OrderID: TestOrderID, Items: []domain.OrderPaymentItem{{ProductID: TestProductID, SupplierID: TestSupplierID}}},
					{ID: 6, OrderID: TestOrderID, Items: []domain.OrderPaymentItem{{ProductID: 16, SupplierID: 42}}},
				}
				d.store.OrderRepo.On("FindDetailed", mock.Anything, TestOrderID).Return(o, nil)
				uid := TestCustomerID
				d.audit.On("QueryByOrder", mock.Anything, TestOrderID, mock.Anything).Return([]domain.OrderActivityLog{{ID: 1, OrderID: TestOrderID, UserID: &uid, IPAddress: "10.0.0.1", UserAgent: "curl"}}, nil)
			},
			redacted: true,
		},
		{
			name:  "supplier without products on the order",
			actor: supplier(42),
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindDetailed", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusPending), nil)
			},
			expectedError: domain.ErrForbidden,
		},
		{
			name:  "other customer",
			actor: &domain.Actor{ID: 999, Role: domain.RoleProfessional},
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindDetailed", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusPending), nil)
			},
			expectedError: domain.ErrForbidden,
		},
		{
			name:  "order not found",
			actor: admin(),
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindDetailed", mock.Anything, TestOrderID).Return(nil, nil)
			},
			expectedError: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newOrderDeps()
			tt.setupMocks(d)

			o, err := d.service().Show(context.Background(), TestOrderID, tt.actor)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, o)
			} else {
				require.NoError(t, err)
				require.Len(t, o.Activity, 1)
				if tt.redacted {
					assert.Zero(t, o.CustomerID)
					assert.Nil(t, o.AddressID)
					assert.Empty(t, o.Activity[0].IPAddress)
					assert.Empty(t, o.Activity[0].UserAgent)
					assert.Nil(t, o.Activity[0].UserID)
					require.Len(t, o.Payments, 1)
					assert.Equal(t, uint64(5), o.Payments[0].ID)
				} else {
					assert.Equal(t, TestCustomerID, o.CustomerID)
					assert.Equal(t, "10.0.0.1", o.Activity[0].IPAddress)
				}
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_UpdateStatus(t *testing.T) {
	tests := []struct {
		name          string
		actor         *domain.Actor
		status        domain.OrderStatus
		setupMocks    func(*orderDeps)
		expectedError error
		expectedTx    int
	}{
		{
			name:   "admin confirms",
			actor:  admin(),
			status: domain.StatusConfirmed,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusPending), nil)
				d.store.OrderRepo.On("UpdateStatus", mock.Anything, TestOrderID, domain.StatusPending, domain.StatusConfirmed).Return(nil)
				d.audit.On("Record", mock.Anything, mock.MatchedBy(func(e services.AuditEntry) bool {
					return e.Action == domain.ActionStatusChanged && e.OldStatus == "pending" && e.NewStatus == "confirmed" &&
						e.Metadata["comment"] == "checked stock"
				})).Return(nil)
				d.pub.On("Publish", mock.Anything, domain.EventOrderStatusChanged, mock.Anything).Return(nil).Maybe()
			},
			expectedTx: 1,
		},
		{
			name:   "owning supplier ships",
			actor:  supplier(TestSupplierID),
			status: domain.StatusShipped,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusProcessing), nil)
				d.store.OrderRepo.On("UpdateStatus", mock.Anything, TestOrderID, domain.StatusProcessing, domain.StatusShipped).Return(nil)
				d.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
				d.pub.On("Publish", mock.Anything, domain.EventOrderStatusChanged, mock.Anything).Return(nil).Maybe()
			},
			expectedTx: 1,
		},
		{
			name:   "status moved underneath",
			actor:  admin(),
			status: domain.StatusShipped,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusProcessing), nil)
				d.store.OrderRepo.On("UpdateStatus", mock.Anything, TestOrderID, domain.StatusProcessing, domain.StatusShipped).Return(domain.ErrOrderStatusChanged)
			},
			expectedError: domain.ErrConflict,
			expectedTx:    1,
		},
		{
			name:          "unknown status",
			actor:         admin(),
			status:        "teleported",
			setupMocks:    func(d *orderDeps) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:          "back to pending",
			actor:         admin(),
			status:        domain.StatusPending,
			setupMocks:    func(d *orderDeps) {},
			expectedError: domain.ErrValidation,
		},
		{
			name:   "terminal order",
			actor:  admin(),
			status: domain.StatusProcessing,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusCancelled), nil)
			},
			expectedError: domain.ErrOrderTerminal,
		},
		{
			name:   "same status is a no-op",
			actor:  admin(),
			status: domain.StatusConfirmed,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusConfirmed), nil)
			},
		},
		{
			name:   "other supplier",
			actor:  supplier(42),
			status: domain.StatusShipped,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusProcessing), nil)
			},
			expectedError: domain.ErrForbidden,
		},
		{
			name:   "missing order",
			actor:  admin(),
			status: domain.StatusShipped,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(nil, nil)
			},
			expectedError: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newOrderDeps()
			tt.setupMocks(d)

			o, err := d.service().UpdateStatus(context.Background(), TestOrderID, tt.actor, tt.status, "checked stock", nil)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, o)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.status, o.Status)
			}
			assert.Equal(t, tt.expectedTx, d.store.TxCalls)
			time.Sleep(50 * time.Millisecond)
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_List(t *testing.T) {
	tests := []struct {
		name           string
		actor          *domain.Actor
		expectedFilter repository.OrderFilter
	}{
		{name: "admin", actor: admin(), expectedFilter: repository.OrderFilter{Limit: 20}},
		{name: "supplier", actor: supplier(TestSupplierID), expectedFilter: repository.OrderFilter{SupplierID: TestSupplierID, Limit: 20}},
		{name: "customer", actor: customer(), expectedFilter: repository.OrderFilter{CustomerID: TestCustomerID, Limit: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newOrderDeps()
			d.store.OrderRepo.On("List", mock.Anything, tt.expectedFilter).Return([]domain.Order{*CreateMockOrder(TestOrderID, domain.StatusPending)}, nil)

			orders, err := d.service().List(context.Background(), tt.actor, 20)

			require.NoError(t, err)
			require.Len(t, orders, 1)
			if tt.actor.Role == domain.RoleSupplier {
				assert.Zero(t, orders[0].CustomerID)
			} else {
				assert.Equal(t, TestCustomerID, orders[0].CustomerID)
			}
			d.assertExpectations(t)
		})
	}

	t.Run("unlinked supplier", func(t *testing.T) {
		d := newOrderDeps()
		_, err := d.service().List(context.Background(), &domain.Actor{ID: 60, Role: domain.RoleSupplier}, 20)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestOrderService_RecordActivity(t *testing.T) {
	note := services.ActivityInput{
		Action:      domain.ActionNote,
		EntityType:  domain.EntityShipment,
		Description: "Carrier pickup rescheduled",
		Metadata:    domain.Metadata{"corrects": 12},
	}

	tests := []struct {
		name          string
		actor         *domain.Actor
		input         services.ActivityInput
		setupMocks    func(*orderDeps)
		expectedError error
	}{
		{
			name:  "admin records a note",
			actor: admin(),
			input: note,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusShipped), nil)
				d.audit.On("Record", mock.Anything, mock.MatchedBy(func(e services.AuditEntry) bool {
					return e.Action == domain.ActionNote && e.Metadata["corrects"] == 12
				})).Return(nil)
			},
		},
		{
			name:  "owning supplier records a note",
			actor: supplier(TestSupplierID),
			input: note,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusShipped), nil)
				d.audit.On("Record", mock.Anything, mock.Anything).Return(nil)
			},
		},
		{
			name:  "customer may not write the audit log",
			actor: customer(),
			input: note,
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusShipped), nil)
			},
			expectedError: domain.ErrForbidden,
		},
		{
			name:  "missing description",
			actor: admin(),
			input: services.ActivityInput{Action: domain.ActionNote, EntityType: domain.EntityOrder},
			setupMocks: func(d *orderDeps) {
				d.store.OrderRepo.On("FindByID", mock.Anything, TestOrderID).Return(CreateMockOrder(TestOrderID, domain.StatusShipped), nil)
			},
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newOrderDeps()
			tt.setupMocks(d)

			err := d.service().RecordActivity(context.Background(), TestOrderID, tt.actor, tt.input, nil)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			d.assertExpectations(t)
		})
	}
}

func TestOrderService_UserActivity(t *testing.T) {
	d := newOrderDeps()
	d.audit.On("QueryByUser", mock.Anything, TestCustomerID, 10).Return([]domain.UserActivity{
		{OrderActivityLog: domain.OrderActivityLog{ID: 2}, Order: &domain.OrderSummary{ID: TestOrderID, Status: domain.StatusPending}},
	}, nil).Twice()
	svc := d.service()

	out, err := svc.UserActivity(context.Background(), TestCustomerID, customer(), 10)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	_, err = svc.UserActivity(context.Background(), TestCustomerID, admin(), 10)
	require.NoError(t, err)

	_, err = svc.UserActivity(context.Background(), TestCustomerID, supplier(TestSupplierID), 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	d.assertExpectations(t)
}
