package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

const (
	catalogCacheTTL   = time.Minute
	catalogFetchLimit = 5 * time.Second
)

// RedisStore is the subset of the redis client the cache needs.
type RedisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedCatalog puts a redis cache-aside layer in front of a CatalogClient and
// collapses concurrent misses for the same key. Redis failures fall through
// to the catalog.
type CachedCatalog struct {
	next       CatalogClient
	rdb        RedisStore
	group      singleflight.Group
	ttl        time.Duration
	fetchLimit time.Duration
}

func NewCachedCatalog(next CatalogClient, rdb RedisStore) *CachedCatalog {
	return &CachedCatalog{next: next, rdb: rdb, ttl: catalogCacheTTL, fetchLimit: catalogFetchLimit}
}

func productKey(id uint64) string      { return fmt.Sprintf("catalog:product:%d", id) }
func supplierUserKey(id uint64) string { return fmt.Sprintf("catalog:supplier-user:%d", id) }

func (c *CachedCatalog) GetProductById(ctx context.Context, id uint64) (*ProductInfo, error) {
	key := productKey(id)
	var p ProductInfo
	if c.fromCache(ctx, key, &p) {
		return &p, nil
	}
	v, err := c.shared(ctx, key, func(fctx context.Context) (any, error) {
		prod, err := c.next.GetProductById(fctx, id)
		if err != nil || prod == nil {
			return prod, err
		}
		c.store(fctx, key, prod, c.ttl)
		return prod, nil
	})
	if err != nil {
		return nil, err
	}
	prod, _ := v.(*ProductInfo)
	return prod, nil
}

func (c *CachedCatalog) GetSupplierByUserId(ctx context.Context, userID uint64) (*SupplierInfo, error) {
	key := supplierUserKey(userID)
	var s SupplierInfo
	if c.fromCache(ctx, key, &s) {
		return &s, nil
	}
	v, err := c.shared(ctx, key, func(fctx context.Context) (any, error) {
		sup, err := c.next.GetSupplierByUserId(fctx, userID)
		if err != nil || sup == nil {
			return sup, err
		}
		c.store(fctx, key, sup, c.ttl)
		return sup, nil
	})
	if err != nil {
		return nil, err
	}
	sup, _ := v.(*SupplierInfo)
	return sup, nil
}

// shared runs fetch once per key for all concurrent callers. The fetch is
// detached from any single caller's cancellation and bounded by fetchLimit;
// each caller still gives up when its own ctx ends.
func (c *CachedCatalog) shared(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchLimit)
		defer cancel()
		return fetch(fctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Warmup loads the given products into the cache, skipping failures.
func (c *CachedCatalog) Warmup(ctx context.Context, productIDs []uint64) error {
	for _, id := range productIDs {
		prod, err := c.next.GetProductById(ctx, id)
		if err != nil {
			log.Printf("catalog: warmup product %d: %v", id, err)
			continue
		}
		if prod != nil {
			c.store(ctx, productKey(id), prod, 5*time.Minute)
		}
	}
	return nil
}

func (c *CachedCatalog) fromCache(ctx context.Context, key string, out any) bool {
	if c.rdb == nil {
		return false
	}
	cached, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("catalog: cache get %s: %v", key, err)
		}
		return false
	}
	return json.Unmarshal([]byte(cached), out) == nil
}

func (c *CachedCatalog) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("catalog: cache set %s: %v", key, err)
	}
}
