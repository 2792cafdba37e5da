package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const catalogListKey = "catalog:products"

// CachingProductRepository wraps a catalog.ProductRepository with a Redis
// read-through cache. Writes go straight to the inner repository and
// invalidate the affected keys; cache failures degrade to the inner
// repository rather than surfacing to callers.
type CachingProductRepository struct {
	inner  catalog.ProductRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	sfg    singleflight.Group // collapses concurrent misses for the same key
}

// CachingProductRepositoryOption configures the cache decorator
type CachingProductRepositoryOption func(*CachingProductRepository)

// WithCacheLogger sets the logger for the cache decorator
func WithCacheLogger(logger *zap.Logger) CachingProductRepositoryOption {
	return func(c *CachingProductRepository) {
		c.logger = logger
	}
}

// WithTTL overrides the cache entry lifetime
func WithTTL(ttl time.Duration) CachingProductRepositoryOption {
	return func(c *CachingProductRepository) {
		c.ttl = ttl
	}
}

// NewCachingProductRepository wraps inner with a Redis cache using the given client.
// The caller retains ownership of the client and is responsible for closing it.
func NewCachingProductRepository(inner catalog.ProductRepository, client *redis.Client, opts ...CachingProductRepositoryOption) *CachingProductRepository {
	c := &CachingProductRepository{
		inner:  inner,
		client: client,
		ttl:    5 * time.Minute,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRedisClient creates a Redis client from configuration and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func productKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:product:%s", id)
}

// FindByID resolves a product through the cache
func (c *CachingProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	key := productKey(id)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var product catalog.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		// Corrupted entry, drop it and fall through to the repository
		_ = c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		product, err := c.inner.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, product)
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*catalog.Product), nil
}

// FindAll resolves the product list through the cache
func (c *CachingProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	if data, err := c.client.Get(ctx, catalogListKey).Bytes(); err == nil {
		var products []catalog.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		_ = c.client.Del(ctx, catalogListKey)
	} else if err != redis.Nil {
		c.logger.Warn("product cache read failed", zap.String("key", catalogListKey), zap.Error(err))
	}

	v, err, _ := c.sfg.Do(catalogListKey, func() (interface{}, error) {
		products, err := c.inner.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		c.set(ctx, catalogListKey, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Product), nil
}

// Save writes through to the repository and invalidates the list cache
func (c *CachingProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	if err := c.inner.Save(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, catalogListKey)
	return nil
}

// Update writes through to the repository and invalidates the affected keys
func (c *CachingProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	if err := c.inner.Update(ctx, product); err != nil {
		return err
	}
	c.invalidate(ctx, productKey(product.ID), catalogListKey)
	return nil
}

// Delete writes through to the repository and invalidates the affected keys
func (c *CachingProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, productKey(id), catalogListKey)
	return nil
}

func (c *CachingProductRepository) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("product cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CachingProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("product cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
