package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"marketplace-service/internal/access"
	"marketplace-service/internal/domain"
	rabbit "marketplace-service/internal/infra/rabbitmq"
	"marketplace-service/internal/repository"

	"github.com/shopspring/decimal"
)

const defaultCurrency = "USD"

type PaymentService struct {
	store          repository.Store
	audit          AuditLog
	publisher      rabbit.PublisherInterface
	commissionRate decimal.Decimal
}

func NewPaymentService(store repository.Store, audit AuditLog, pub rabbit.PublisherInterface, commissionRate decimal.Decimal) *PaymentService {
	return &PaymentService{
		store:          store,
		audit:          audit,
		publisher:      pub,
		commissionRate: commissionRate,
	}
}

type PaymentItemInput struct {
	ProductID uint64
	Quantity  int
	UnitPrice decimal.Decimal
}

type RecordPaymentInput struct {
	Method           string
	ExternalID       string
	Status           domain.PaymentStatus
	Items            []PaymentItemInput
	DiscountAmount   *decimal.Decimal
	TaxAmount        decimal.Decimal
	ShippingAmount   *decimal.Decimal
	CommissionRate   *decimal.Decimal
	Currency         string
	Gateway          string
	ProcessingTimeMs int64
	Metadata         domain.Metadata
	Provenance       *domain.Provenance
}

// Breakdown is the derived financial part of a payment.
type Breakdown struct {
	Gross      decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Net        decimal.Decimal
	Commission decimal.Decimal
	Supplier   decimal.Decimal
}

// ComputeBreakdown derives net, the platform commission and the supplier
// payout from the gross line total. Commission is rounded to cents and the
// supplier gets the remainder, so supplier + commission always equals net.
func ComputeBreakdown(gross, discount, tax, shipping, rate decimal.Decimal) Breakdown {
	net := gross.Sub(discount).Sub(tax).Add(shipping)
	commission := domain.RoundMoney(net.Mul(rate))
	return Breakdown{
		Gross:      gross,
		Discount:   discount,
		Tax:        tax,
		Shipping:   shipping,
		Net:        net,
		Commission: commission,
		Supplier:   net.Sub(commission),
	}
}

// Record attaches a payment to an order. Without explicit items the order's
// own items, discount and shipping are used.
func (s *PaymentService) Record(ctx context.Context, orderID uint64, actor *domain.Actor, in RecordPaymentInput) (*domain.OrderPayment, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("payments: load order %d: %w", orderID, err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	res := access.Resource{Kind: access.ResourcePayment, CustomerID: order.CustomerID, SupplierIDs: order.SupplierIDs()}
	if err := access.CanAccess(actor, res, access.ActionCreate).Err(); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if err := restrictFinancialTerms(in); err != nil {
			return nil, err
		}
	}

	v := domain.NewValidationError()
	items := s.paymentItems(order, in, v)
	if in.Method == "" {
		v.Add("paymentMethod", "is required")
	}
	if in.Status != "" && !in.Status.Valid() {
		v.Add("status", fmt.Sprintf("unknown payment status %q", in.Status))
	}
	if in.Currency != "" && len(in.Currency) != 3 {
		v.Add("currency", "must be a 3 letter code")
	}

	discount, shipping := decimal.Zero, decimal.Zero
	if len(in.Items) == 0 {
		discount, shipping = order.Discount, order.Shipping
	}
	if in.DiscountAmount != nil {
		discount = *in.DiscountAmount
	}
	if in.ShippingAmount != nil {
		shipping = *in.ShippingAmount
	}
	rate := s.commissionRate
	if in.CommissionRate != nil {
		rate = *in.CommissionRate
	}
	for field, amt := range map[string]decimal.Decimal{"discountAmount": discount, "taxAmount": in.TaxAmount, "shippingAmount": shipping} {
		if amt.IsNegative() {
			v.Add(field, "must not be negative")
		} else if !domain.HasMoneyPrecision(amt) {
			v.Add(field, "must have at most 2 decimal places")
		}
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		v.Add("commissionRate", "must be between 0 and 1")
	}

	gross := decimal.Zero
	for _, it := range items {
		gross = gross.Add(it.LineTotal)
	}
	b := ComputeBreakdown(gross, discount, in.TaxAmount, shipping, rate)
	if b.Net.IsNegative() {
		v.Add("netAmount", "discount and tax exceed the payable amount")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.PaymentPending
	}
	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	p := &domain.OrderPayment{
		OrderID:          order.ID,
		Method:           in.Method,
		ExternalID:       in.ExternalID,
		Status:           status,
		GrossAmount:      b.Gross,
		DiscountAmount:   b.Discount,
		TaxAmount:        b.Tax,
		ShippingAmount:   b.Shipping,
		NetAmount:        b.Net,
		CommissionAmount: b.Commission,
		SupplierAmount:   b.Supplier,
		ItemCount:        len(items),
		Currency:         currency,
		Gateway:          in.Gateway,
		ProcessingTimeMs: in.ProcessingTimeMs,
		Metadata:         in.Metadata,
		Items:            items,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().Save(ctx, p); err != nil {
			return fmt.Errorf("payments: save: %w", err)
		}
		return s.audit.Within(tx).Record(ctx, AuditEntry{
			OrderID:     order.ID,
			Actor:       actor,
			Action:      domain.ActionPaymentRecorded,
			EntityType:  domain.EntityPayment,
			EntityID:    &p.ID,
			NewStatus:   string(p.Status),
			Description: fmt.Sprintf("Payment of %s %s recorded via %s", p.NetAmount.StringFixed(2), p.Currency, p.Method),
			Metadata:    domain.Metadata{"grossAmount": p.GrossAmount.StringFixed(2), "itemCount": p.ItemCount},
			Provenance:  in.Provenance,
		})
	})
	if err != nil {
		return nil, err
	}

	publishAsync(s.publisher, domain.EventPaymentRecorded, domain.PaymentRecordedEvent{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Status:    p.Status,
		Net:       p.NetAmount,
		Currency:  p.Currency,
	})
	return p, nil
}

// restrictFinancialTerms keeps non-admin callers on the configured commission
// rate and the order's own discount and shipping. Their payments always start
// pending; later transitions go through the admin-only UpdateStatus.
func restrictFinancialTerms(in RecordPaymentInput) error {
	switch {
	case in.Status != "" && in.Status != domain.PaymentPending:
		return &domain.ForbiddenError{Reason: "only admins may set a payment status"}
	case in.CommissionRate != nil:
		return &domain.ForbiddenError{Reason: "only admins may set a commission rate"}
	case in.DiscountAmount != nil:
		return &domain.ForbiddenError{Reason: "only admins may set a discount amount"}
	case in.ShippingAmount != nil:
		return &domain.ForbiddenError{Reason: "only admins may set a shipping amount"}
	}
	return nil
}

// paymentItems builds the item rows, taking the supplier of each product from
// the order. Problems are collected on v.
func (s *PaymentService) paymentItems(order *domain.Order, in RecordPaymentInput, v *domain.ValidationError) []domain.OrderPaymentItem {
	if len(in.Items) == 0 {
		out := make([]domain.OrderPaymentItem, 0, len(order.Items))
		for _, it := range order.Items {
			out = append(out, domain.OrderPaymentItem{
				ProductID:  it.ProductID,
				SupplierID: it.SupplierID,
				Quantity:   it.Quantity,
				UnitPrice:  it.UnitPrice,
				LineTotal:  it.LineTotal,
			})
		}
		return out
	}

	suppliers := make(map[uint64]uint64, len(order.Items))
	for _, it := range order.Items {
		suppliers[it.ProductID] = it.SupplierID
	}
	out := make([]domain.OrderPaymentItem, 0, len(in.Items))
	for i, it := range in.Items {
		field := fmt.Sprintf("items.%d", i)
		supplierID, ok := suppliers[it.ProductID]
		if !ok {
			v.Add(field+".productId", "is not part of the order")
		}
		if it.Quantity < 1 {
			v.Add(field+".quantity", "must be at least 1")
		}
		if it.UnitPrice.IsNegative() {
			v.Add(field+".unitPrice", "must not be negative")
		}
		price := domain.RoundMoney(it.UnitPrice)
		out = append(out, domain.OrderPaymentItem{
			ProductID:  it.ProductID,
			SupplierID: supplierID,
			Quantity:   it.Quantity,
			UnitPrice:  price,
			LineTotal:  LineTotal(it.Quantity, price),
		})
	}
	return out
}

func (s *PaymentService) Show(ctx context.Context, paymentID uint64, actor *domain.Actor) (*domain.OrderPayment, error) {
	p, _, err := s.loadAuthorized(ctx, paymentID, actor, access.ActionRead)
	return p, err
}

func (s *PaymentService) List(ctx context.Context, actor *domain.Actor, orderID uint64, limit int) ([]domain.OrderPayment, error) {
	filter := repository.PaymentFilter{OrderID: orderID, Limit: limit}
	switch {
	case actor == nil:
		return nil, &domain.ForbiddenError{Reason: "authentication required"}
	case actor.IsAdmin():
	case actor.Role == domain.RoleSupplier:
		if actor.SupplierID == 0 {
			return nil, &domain.ForbiddenError{Reason: "supplier account is not linked to a supplier"}
		}
		filter.SupplierID = actor.SupplierID
	default:
		filter.CustomerID = actor.ID
	}
	out, err := s.store.Payments().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("payments: list: %w", err)
	}
	return out, nil
}

// UpdateStatus is an administrative correction. Amounts are left untouched.
func (s *PaymentService) UpdateStatus(ctx context.Context, paymentID uint64, actor *domain.Actor, status domain.PaymentStatus, comment string, prov *domain.Provenance) (*domain.OrderPayment, error) {
	// ownership is irrelevant here, only admins pass
	if err := access.CanAccess(actor, access.Resource{Kind: access.ResourcePayment}, access.ActionUpdateStatus).Err(); err != nil {
		return nil, err
	}
	p, err := s.store.Payments().FindByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payments: load %d: %w", paymentID, err)
	}
	if p == nil {
		return nil, domain.ErrPaymentNotFound
	}
	if !status.Valid() {
		return nil, fieldError("status", fmt.Sprintf("unknown payment status %q", status))
	}

	old := p.Status
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().UpdateStatus(ctx, p.ID, status); err != nil {
			return fmt.Errorf("payments: update status: %w", err)
		}
		meta := domain.Metadata{}
		if comment != "" {
			meta["comment"] = comment
		}
		return s.audit.Within(tx).Record(ctx, AuditEntry{
			OrderID:     p.OrderID,
			Actor:       actor,
			Action:      domain.ActionPaymentStatusUpdated,
			EntityType:  domain.EntityPayment,
			EntityID:    &p.ID,
			OldStatus:   string(old),
			NewStatus:   string(status),
			Description: fmt.Sprintf("Payment status changed from %s to %s", old, status),
			Metadata:    meta,
			Provenance:  prov,
		})
	})
	if err != nil {
		return nil, err
	}
	p.Status = status

	publishAsync(s.publisher, domain.EventPaymentStatusUpdated, domain.StatusChangedEvent{
		EntityType: domain.EntityPayment,
		EntityID:   p.ID,
		OrderID:    p.OrderID,
		OldStatus:  string(old),
		NewStatus:  string(status),
		ActorID:    actor.ID,
		ChangedAt:  time.Now().UTC(),
	})
	return p, nil
}

type FinancialSummary struct {
	GrossAmount      decimal.Decimal `json:"grossAmount"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	TaxAmount        decimal.Decimal `json:"taxAmount"`
	ShippingAmount   decimal.Decimal `json:"shippingAmount"`
	NetAmount        decimal.Decimal `json:"netAmount"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	SupplierAmount   decimal.Decimal `json:"supplierAmount"`
}

type ProductLine struct {
	ProductID uint64          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

type ProductsSummary struct {
	ItemCount     int           `json:"itemCount"`
	TotalQuantity int           `json:"totalQuantity"`
	Products      []ProductLine `json:"products"`
}

type PaymentDetails struct {
	PaymentMethod    string               `json:"paymentMethod"`
	PaymentID        string               `json:"paymentId"`
	Gateway          string               `json:"gateway"`
	ProcessingTimeMs int64                `json:"processingTimeMs"`
	Currency         string               `json:"currency"`
	Status           domain.PaymentStatus `json:"status"`
	CreatedAt        time.Time            `json:"createdAt"`
}

type PaymentAnalytics struct {
	PaymentID        uint64           `json:"paymentId"`
	OrderID          uint64           `json:"orderId"`
	FinancialSummary FinancialSummary `json:"financialSummary"`
	ProductsSummary  ProductsSummary  `json:"productsSummary"`
	PaymentDetails   PaymentDetails   `json:"paymentDetails"`
}

// Analytics builds a read-only report over a stored payment.
func (s *PaymentService) Analytics(ctx context.Context, paymentID uint64, actor *domain.Actor) (*PaymentAnalytics, error) {
	p, _, err := s.loadAuthorized(ctx, paymentID, actor, access.ActionRead)
	if err != nil {
		return nil, err
	}
	report := BuildAnalytics(p)
	return &report, nil
}

func BuildAnalytics(p *domain.OrderPayment) PaymentAnalytics {
	return PaymentAnalytics{
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		FinancialSummary: FinancialSummary{
			GrossAmount:      p.GrossAmount,
			DiscountAmount:   p.DiscountAmount,
			TaxAmount:        p.TaxAmount,
			ShippingAmount:   p.ShippingAmount,
			NetAmount:        p.NetAmount,
			CommissionAmount: p.CommissionAmount,
			SupplierAmount:   p.SupplierAmount,
		},
		ProductsSummary: summarizeProducts(p.Items),
		PaymentDetails: PaymentDetails{
			PaymentMethod:    p.Method,
			PaymentID:        p.ExternalID,
			Gateway:          p.Gateway,
			ProcessingTimeMs: p.ProcessingTimeMs,
			Currency:         p.Currency,
			Status:           p.Status,
			CreatedAt:        p.CreatedAt,
		},
	}
}

// summarizeProducts groups item rows by product. The unit price reported for
// a product is the price of its first row.
func summarizeProducts(items []domain.OrderPaymentItem) ProductsSummary {
	byProduct := make(map[uint64]*ProductLine, len(items))
	sum := ProductsSummary{ItemCount: len(items), Products: []ProductLine{}}
	for _, it := range items {
		sum.TotalQuantity += it.Quantity
		line, ok := byProduct[it.ProductID]
		if !ok {
			line = &ProductLine{ProductID: it.ProductID, UnitPrice: it.UnitPrice}
			byProduct[it.ProductID] = line
		}
		line.Quantity += it.Quantity
		line.Total = line.Total.Add(it.LineTotal)
	}
	for _, line := range byProduct {
		sum.Products = append(sum.Products, *line)
	}
	sort.Slice(sum.Products, func(i, j int) bool {
		return sum.Products[i].ProductID < sum.Products[j].ProductID
	})
	return sum
}

func (s *PaymentService) loadAuthorized(ctx context.Context, paymentID uint64, actor *domain.Actor, action access.Action) (*domain.OrderPayment, *domain.Order, error) {
	p, err := s.store.Payments().FindByID(ctx, paymentID)
	if err != nil {
		return nil, nil, fmt.Errorf("payments: load %d: %w", paymentID, err)
	}
	if p == nil {
		return nil, nil, domain.ErrPaymentNotFound
	}
	order, err := s.store.Orders().FindByID(ctx, p.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("payments: load order %d: %w", p.OrderID, err)
	}
	if order == nil {
		return nil, nil, domain.ErrOrderNotFound
	}
	if err := access.CanAccess(actor, access.PaymentResource(p, order.CustomerID), action).Err(); err != nil {
		return nil, nil, err
	}
	return p, order, nil
}
