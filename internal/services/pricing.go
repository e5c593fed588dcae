package services

import (
	"marketplace-service/internal/domain"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the priced breakdown of an order. Shipping is what the customer is
// charged after any shipping coupon.
type Quote struct {
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	ShippingDiscount decimal.Decimal
	Shipping         decimal.Decimal
	Total            decimal.Decimal
}

// LineTotal is quantity × unit price at money precision.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return domain.RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// PriceOrder computes subtotal, discount, shipping and total. coupon may be nil.
func PriceOrder(items []domain.OrderItem, shipping decimal.Decimal, coupon *domain.Coupon) Quote {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal)
	}
	shipping = domain.RoundMoney(shipping)

	discount, shipDiscount := decimal.Zero, decimal.Zero
	if coupon != nil {
		discount, shipDiscount = couponDiscount(coupon, subtotal, shipping)
	}
	charged := shipping.Sub(shipDiscount)

	return Quote{
		Subtotal:         subtotal,
		Discount:         discount,
		ShippingDiscount: shipDiscount,
		Shipping:         charged,
		Total:            subtotal.Sub(discount).Add(charged),
	}
}

// couponDiscount returns the product discount and the shipping discount.
// Neither ever exceeds the amount it reduces.
func couponDiscount(c *domain.Coupon, subtotal, shipping decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	switch c.Kind {
	case domain.DiscountPercent:
		d := domain.RoundMoney(subtotal.Mul(c.Value).Div(hundred))
		return decimal.Min(d, subtotal), decimal.Zero
	case domain.DiscountFixed:
		return decimal.Min(c.Value, subtotal), decimal.Zero
	case domain.DiscountShipping:
		return decimal.Zero, decimal.Min(c.Value, shipping)
	}
	return decimal.Zero, decimal.Zero
}
