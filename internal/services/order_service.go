package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"marketplace-service/internal/access"
	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra"
	rabbit "marketplace-service/internal/infra/rabbitmq"
	"marketplace-service/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const showActivityLimit = 100

type OrderService struct {
	store     repository.Store
	catalog   infra.CatalogClient
	shipping  infra.ShippingQuoter
	coupons   *CouponService
	audit     AuditLog
	publisher rabbit.PublisherInterface
}

func NewOrderService(
	store repository.Store,
	catalog infra.CatalogClient,
	shipping infra.ShippingQuoter,
	coupons *CouponService,
	audit AuditLog,
	pub rabbit.PublisherInterface,
) *OrderService {
	return &OrderService{
		store:     store,
		catalog:   catalog,
		shipping:  shipping,
		coupons:   coupons,
		audit:     audit,
		publisher: pub,
	}
}

type OrderLineInput struct {
	ProductID uint64
	VariantID *uint64
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreateOrderInput struct {
	Items      []OrderLineInput
	CouponCode string
	AddressID  *uint64
	Type       domain.OrderType
	Provenance *domain.Provenance
}

// CreateOrder prices and persists an order for the calling customer. The unit
// price on each line is the one the client submitted, not the live catalog
// price. Coupon consumption, the order, its items and the audit entry commit
// together or not at all.
func (s *OrderService) CreateOrder(ctx context.Context, actor *domain.Actor, in CreateOrderInput) (*domain.Order, error) {
	if actor == nil {
		return nil, access.CanAccess(nil, access.Resource{Kind: access.ResourceOrder}, access.ActionCreate).Err()
	}
	res := access.Resource{Kind: access.ResourceOrder, CustomerID: actor.ID}
	if err := access.CanAccess(actor, res, access.ActionCreate).Err(); err != nil {
		return nil, err
	}
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	products, err := s.resolveProducts(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, line := range in.Items {
		prod := products[line.ProductID]
		if line.VariantID != nil && !prod.HasVariant(*line.VariantID) {
			return nil, fmt.Errorf("%w: variant %d of product %d", domain.ErrVariantNotFound, *line.VariantID, line.ProductID)
		}
		price := domain.RoundMoney(line.UnitPrice)
		items = append(items, domain.OrderItem{
			ProductID:  line.ProductID,
			VariantID:  line.VariantID,
			SupplierID: prod.SupplierID,
			Quantity:   line.Quantity,
			UnitPrice:  price,
			LineTotal:  LineTotal(line.Quantity, price),
		})
	}

	subtotal := PriceOrder(items, decimal.Zero, nil).Subtotal
	shipping, err := s.shipping.Quote(ctx, in.Type, in.AddressID, subtotal)
	if err != nil {
		return nil, fmt.Errorf("orders: shipping quote: %w", err)
	}

	var order *domain.Order
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		var coupon *domain.Coupon
		if in.CouponCode != "" {
			validator := s.coupons.Within(tx)
			coupon, err = validator.Verify(ctx, in.CouponCode)
			if err != nil {
				return err
			}
			if err := validator.Consume(ctx, coupon); err != nil {
				return err
			}
		}

		quote := PriceOrder(items, shipping, coupon)
		order = &domain.Order{
			CustomerID: actor.ID,
			Status:     domain.StatusPending,
			Type:       in.Type,
			Subtotal:   quote.Subtotal,
			Discount:   quote.Discount,
			Shipping:   quote.Shipping,
			Total:      quote.Total,
			AddressID:  in.AddressID,
			Items:      items,
		}
		meta := domain.Metadata{"itemCount": len(items), "total": quote.Total.StringFixed(2)}
		if coupon != nil {
			order.CouponID = &coupon.ID
			meta["couponCode"] = coupon.Code
			if quote.ShippingDiscount.IsPositive() {
				meta["shippingDiscount"] = quote.ShippingDiscount.StringFixed(2)
			}
		}

		if err := tx.Orders().Save(ctx, order); err != nil {
			return fmt.Errorf("orders: save: %w", err)
		}
		return s.audit.Within(tx).Record(ctx, AuditEntry{
			OrderID:     order.ID,
			Actor:       actor,
			Action:      domain.ActionCreated,
			EntityType:  domain.EntityOrder,
			EntityID:    &order.ID,
			NewStatus:   string(order.Status),
			Description: fmt.Sprintf("Order created with %d item(s)", len(items)),
			Metadata:    meta,
			Provenance:  in.Provenance,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishAsync(domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Total:      order.Total,
		CouponID:   order.CouponID,
		CreatedAt:  order.CreatedAt,
	})
	return order, nil
}

// resolveProducts looks every distinct product up concurrently and fails fast
// on the first missing one or lookup error.
func (s *OrderService) resolveProducts(ctx context.Context, lines []OrderLineInput) (map[uint64]*infra.ProductInfo, error) {
	var mu sync.Mutex
	out := make(map[uint64]*infra.ProductInfo, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	seen := make(map[uint64]bool, len(lines))
	for _, line := range lines {
		id := line.ProductID
		if seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			prod, err := s.catalog.GetProductById(gctx, id)
			if err != nil {
				return fmt.Errorf("orders: product %d lookup: %w", id, err)
			}
			if prod == nil {
				return fmt.Errorf("%w: %d", domain.ErrProductNotFound, id)
			}
			mu.Lock()
			out[id] = prod
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func validateOrderInput(in CreateOrderInput) error {
	v := domain.NewValidationError()
	if !in.Type.Valid() {
		v.Add("type", "must be delivery or pickup")
	}
	if len(in.Items) == 0 {
		v.Add("items", "at least one item is required")
	}
	for i, it := range in.Items {
		field := fmt.Sprintf("items.%d", i)
		if it.ProductID == 0 {
			v.Add(field+".productId", "is required")
		}
		if it.Quantity < 1 {
			v.Add(field+".quantity", "must be at least 1")
		}
		if it.UnitPrice.IsNegative() {
			v.Add(field+".unitPrice", "must not be negative")
		}
	}
	return v.OrNil()
}

// Show returns the order with items, payments and activity, redacted for suppliers.
func (s *OrderService) Show(ctx context.Context, orderID uint64, actor *domain.Actor) (*domain.Order, error) {
	o, err := s.store.Orders().FindDetailed(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: load %d: %w", orderID, err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if err := access.CanAccess(actor, access.OrderResource(o), access.ActionRead).Err(); err != nil {
		return nil, err
	}

	activity, err := s.audit.QueryByOrder(ctx, o.ID, showActivityLimit)
	if err != nil {
		return nil, err
	}
	o.Activity = activity
	return redactForActor(o, actor), nil
}

// List returns the orders visible to the actor, newest first.
func (s *OrderService) List(ctx context.Context, actor *domain.Actor, limit int) ([]domain.Order, error) {
	filter := repository.OrderFilter{Limit: limit}
	switch {
	case actor == nil:
		return nil, access.CanAccess(nil, access.Resource{Kind: access.ResourceOrder}, access.ActionRead).Err()
	case actor.IsAdmin():
	case actor.Role == domain.RoleSupplier:
		if actor.SupplierID == 0 {
			return nil, &domain.ForbiddenError{Reason: "supplier account is not linked to a supplier"}
		}
		filter.SupplierID = actor.SupplierID
	default:
		filter.CustomerID = actor.ID
	}

	orders, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("orders: list: %w", err)
	}
	for i := range orders {
		redactForActor(&orders[i], actor)
	}
	return orders, nil
}

// UpdateStatus moves an order to any non-initial status unless it is already terminal.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint64, actor *domain.Actor, status domain.OrderStatus, comment string, prov *domain.Provenance) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fieldError("status", fmt.Sprintf("unknown order status %q", status))
	}
	if status == domain.StatusPending {
		return nil, fieldError("status", "pending is only an initial status")
	}

	o, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: load %d: %w", orderID, err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if err := access.CanAccess(actor, access.OrderResource(o), access.ActionUpdate).Err(); err != nil {
		return nil, err
	}
	if o.Status == status {
		return o, nil
	}
	if o.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderTerminal, o.Status)
	}

	old := o.Status
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Orders().UpdateStatus(ctx, o.ID, old, status); err != nil {
			return fmt.Errorf("orders: update status: %w", err)
		}
		var meta domain.Metadata
		if comment != "" {
			meta = domain.Metadata{"comment": comment}
		}
		return s.audit.Within(tx).Record(ctx, AuditEntry{
			OrderID:     o.ID,
			Actor:       actor,
			Action:      domain.ActionStatusChanged,
			EntityType:  domain.EntityOrder,
			EntityID:    &o.ID,
			OldStatus:   string(old),
			NewStatus:   string(status),
			Description: fmt.Sprintf("Order status changed from %s to %s", old, status),
			Metadata:    meta,
			Provenance:  prov,
		})
	})
	if err != nil {
		return nil, err
	}
	o.Status = status

	s.publishAsync(domain.EventOrderStatusChanged, domain.StatusChangedEvent{
		EntityType: domain.EntityOrder,
		EntityID:   o.ID,
		OrderID:    o.ID,
		OldStatus:  string(old),
		NewStatus:  string(status),
		ActorID:    actor.ID,
		ChangedAt:  time.Now().UTC(),
	})
	return redactForActor(o, actor), nil
}

type ActivityInput struct {
	Action      domain.ActivityAction
	EntityType  domain.EntityType
	EntityID    *uint64
	OldStatus   string
	NewStatus   string
	Description string
	Metadata    domain.Metadata
}

// RecordActivity appends a manual entry, e.g. a correction referencing an
// earlier entry through its metadata.
func (s *OrderService) RecordActivity(ctx context.Context, orderID uint64, actor *domain.Actor, in ActivityInput, prov *domain.Provenance) error {
	o, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("orders: load %d: %w", orderID, err)
	}
	if o == nil {
		return domain.ErrOrderNotFound
	}
	if err := access.CanAccess(actor, access.ActivityResource(o), access.ActionCreate).Err(); err != nil {
		return err
	}

	v := domain.NewValidationError()
	if in.Action == "" {
		v.Add("action", "is required")
	}
	if !in.EntityType.Valid() {
		v.Add("entityType", "must be order, payment or shipment")
	}
	if in.Description == "" {
		v.Add("description", "is required")
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	return s.audit.Record(ctx, AuditEntry{
		OrderID:     o.ID,
		Actor:       actor,
		Action:      in.Action,
		EntityType:  in.EntityType,
		EntityID:    in.EntityID,
		OldStatus:   in.OldStatus,
		NewStatus:   in.NewStatus,
		Description: in.Description,
		Metadata:    in.Metadata,
		Provenance:  prov,
	})
}

func (s *OrderService) Activity(ctx context.Context, orderID uint64, actor *domain.Actor, limit int) ([]domain.OrderActivityLog, error) {
	o, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("orders: load %d: %w", orderID, err)
	}
	if o == nil {
		return nil, domain.ErrOrderNotFound
	}
	if err := access.CanAccess(actor, access.ActivityResource(o), access.ActionRead).Err(); err != nil {
		return nil, err
	}
	entries, err := s.audit.QueryByOrder(ctx, orderID, limit)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleSupplier {
		for i := range entries {
			redactActivity(&entries[i], o.CustomerID)
		}
	}
	return entries, nil
}

// UserActivity lists what a user did, for the user themselves or an admin.
func (s *OrderService) UserActivity(ctx context.Context, userID uint64, actor *domain.Actor, limit int) ([]domain.UserActivity, error) {
	if actor == nil {
		return nil, &domain.ForbiddenError{Reason: "authentication required"}
	}
	if !actor.IsAdmin() && actor.ID != userID {
		return nil, &domain.ForbiddenError{Reason: "activity of another user"}
	}
	return s.audit.QueryByUser(ctx, userID, limit)
}

func redactForActor(o *domain.Order, actor *domain.Actor) *domain.Order {
	if actor == nil || actor.Role != domain.RoleSupplier {
		return o
	}
	customerID := o.CustomerID
	o.CustomerID = 0
	o.AddressID = nil

	// same visibility as reading the payment directly
	visible := o.Payments[:0]
	for _, p := range o.Payments {
		if access.CanAccess(actor, access.PaymentResource(&p, customerID), access.ActionRead).Allowed {
			visible = append(visible, p)
		}
	}
	o.Payments = visible

	for i := range o.Activity {
		redactActivity(&o.Activity[i], customerID)
	}
	return o
}

func redactActivity(e *domain.OrderActivityLog, customerID uint64) {
	e.IPAddress = ""
	e.UserAgent = ""
	if e.UserID != nil && *e.UserID == customerID {
		e.UserID = nil
	}
}

func fieldError(field, msg string) error {
	v := domain.NewValidationError()
	v.Add(field, msg)
	return v
}

func (s *OrderService) publishAsync(routingKey string, evt any) {
	publishAsync(s.publisher, routingKey, evt)
}

func publishAsync(pub rabbit.PublisherInterface, routingKey string, evt any) {
	if pub == nil {
		return
	}
	go func() {
		if err := pub.Publish(context.Background(), routingKey, evt); err != nil {
			log.Printf("events: publish %s failed: %v", routingKey, err)
		}
	}()
}
