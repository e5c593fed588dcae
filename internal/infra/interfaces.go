package infra

import (
	"context"

	"marketplace-service/internal/domain"

	"github.com/shopspring/decimal"
)

// CatalogClient is the read-only view of products and suppliers.
// Lookups return (nil, nil) when the catalog has no such record.
type CatalogClient interface {
	GetProductById(ctx context.Context, id uint64) (*ProductInfo, error)
	GetSupplierByUserId(ctx context.Context, userID uint64) (*SupplierInfo, error)
}

type ShippingQuoter interface {
	Quote(ctx context.Context, orderType domain.OrderType, addressID *uint64, subtotal decimal.Decimal) (decimal.Decimal, error)
}

var (
	_ CatalogClient  = (*CatalogHTTPClient)(nil)
	_ CatalogClient  = (*CachedCatalog)(nil)
	_ ShippingQuoter = (*FlatShippingQuoter)(nil)
)
