package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type ProductInfo struct {
	ID         uint64          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	SupplierID uint64          `json:"supplierId"`
	VariantIDs []uint64        `json:"variantIds,omitempty"`
}

func (p *ProductInfo) HasVariant(id uint64) bool {
	for _, v := range p.VariantIDs {
		if v == id {
			return true
		}
	}
	return false
}

type SupplierInfo struct {
	ID     uint64 `json:"id"`
	UserID uint64 `json:"userId"`
	Name   string `json:"name"`
}

type CatalogHTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogHTTPClient {
	return &CatalogHTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *CatalogHTTPClient) GetProductById(ctx context.Context, id uint64) (*ProductInfo, error) {
	var p ProductInfo
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/products/%d", c.baseURL, id), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (c *CatalogHTTPClient) GetSupplierByUserId(ctx context.Context, userID uint64) (*SupplierInfo, error) {
	var s SupplierInfo
	found, err := c.getJSON(ctx, fmt.Sprintf("%s/suppliers/by-user/%d", c.baseURL, userID), &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (c *CatalogHTTPClient) getJSON(ctx context.Context, url string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}
