package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/logger"
)

// ProductCache 商品详情读缓存。结账扣减不主动失效，展示库存最多滞后一个 TTL；
// 预占与归还始终以数据库为准
type ProductCache struct {
	service.CatalogService
	client redis.Cmdable
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewProductCache(catalog service.CatalogService, client redis.Cmdable, ttl time.Duration) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &ProductCache{CatalogService: catalog, client: client, ttl: ttl}
}

func productKey(id string) string { return fmt.Sprintf("product:%s", id) }

func (c *ProductCache) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	key := productKey(id)
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p model.Product
		if uErr := json.Unmarshal(data, &p); uErr == nil {
			c.hits.Add(1)
			return &p, nil
		}
	case !errors.Is(err, redis.Nil):
		// redis 不可用时直接读库
		logger.Warn("product cache get failed", zap.String("product_id", id), zap.Error(err))
	}

	c.misses.Add(1)
	p, err := c.CatalogService.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(p); err == nil {
		_ = c.client.Set(ctx, key, payload, c.ttl).Err()
	}
	return p, nil
}

func (c *ProductCache) SetStock(ctx context.Context, productID string, stock int) (*model.Product, error) {
	return c.evictAfter(ctx, productID)(c.CatalogService.SetStock(ctx, productID, stock))
}

func (c *ProductCache) SetVariantStock(ctx context.Context, productID, optionID string, stock int) (*model.Product, error) {
	return c.evictAfter(ctx, productID)(c.CatalogService.SetVariantStock(ctx, productID, optionID, stock))
}

func (c *ProductCache) SetStatus(ctx context.Context, productID string, status model.ProductStatus) (*model.Product, error) {
	return c.evictAfter(ctx, productID)(c.CatalogService.SetStatus(ctx, productID, status))
}

func (c *ProductCache) RepairTotal(ctx context.Context, productID string) (*model.Product, error) {
	return c.evictAfter(ctx, productID)(c.CatalogService.RepairTotal(ctx, productID))
}

// Evict 主动失效，供其他写路径调用
func (c *ProductCache) Evict(ctx context.Context, productIDs ...string) {
	if len(productIDs) == 0 {
		return
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = productKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("product cache evict failed", zap.Strings("product_ids", productIDs), zap.Error(err))
	}
}

func (c *ProductCache) evictAfter(ctx context.Context, productID string) func(*model.Product, error) (*model.Product, error) {
	return func(p *model.Product, err error) (*model.Product, error) {
		if err == nil {
			c.Evict(ctx, productID)
		}
		return p, err
	}
}

// Stats 命中/未命中次数
func (c *ProductCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
