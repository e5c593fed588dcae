package infra

import (
	"context"

	"marketplace-service/internal/domain"

	"github.com/shopspring/decimal"
)

// FlatShippingQuoter stands in for the shipping-rate service: a fixed fee for
// deliveries, free pickup.
type FlatShippingQuoter struct {
	Fee decimal.Decimal
}

func (q FlatShippingQuoter) Quote(_ context.Context, orderType domain.OrderType, _ *uint64, _ decimal.Decimal) (decimal.Decimal, error) {
	if orderType == domain.OrderTypePickup {
		return decimal.Zero, nil
	}
	return domain.RoundMoney(q.Fee), nil
}
