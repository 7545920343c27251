package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appcatalog "github.com/tokoroti/backend/internal/application/catalog"
	"github.com/tokoroti/backend/internal/application/chat"
	"github.com/tokoroti/backend/internal/domain/catalog"
)

// catalogKey is the redis key holding the active-product snapshot
const catalogKey = "catalog:products"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient creates and pings a redis client
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
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

// RedisCatalogCache is a read-through catalog snapshot cache. Every chat
// message needs the full active catalog for extraction context and product
// resolution, so the product table is the hottest read path in the system.
// Redis problems degrade to direct repository reads, never to failures.
type RedisCatalogCache struct {
	client   *redis.Client
	products catalog.ProductRepository
	ttl      time.Duration
	logger   *zap.Logger
}

// NewRedisCatalogCache creates a new RedisCatalogCache
func NewRedisCatalogCache(client *redis.Client, products catalog.ProductRepository, ttl time.Duration, logger *zap.Logger) *RedisCatalogCache {
	return &RedisCatalogCache{
		client:   client,
		products: products,
		ttl:      ttl,
		logger:   logger,
	}
}

// ListProducts returns the active catalog, from cache when fresh
func (c *RedisCatalogCache) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	cached, err := c.client.Get(ctx, catalogKey).Bytes()
	if err == nil {
		var products []catalog.Product
		if err := json.Unmarshal(cached, &products); err == nil {
			return products, nil
		}
		// A snapshot that no longer decodes gets dropped and rebuilt
		c.logger.Warn("discarding undecodable catalog snapshot", zap.Error(err))
		_ = c.client.Del(ctx, catalogKey).Err()
	} else if err != redis.Nil {
		c.logger.Warn("catalog cache read failed, falling back to repository", zap.Error(err))
	}

	products, err := c.products.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(products); err == nil {
		if err := c.client.Set(ctx, catalogKey, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", zap.Error(err))
		}
	}
	return products, nil
}

// Invalidate drops the snapshot, forcing the next read through to the
// repository. Called after catalog writes.
func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("catalog cache invalidation failed: %w", err)
	}
	return nil
}

// Ensure RedisCatalogCache implements both catalog ports
var (
	_ chat.CatalogReader            = (*RedisCatalogCache)(nil)
	_ appcatalog.CatalogInvalidator = (*RedisCatalogCache)(nil)
)

// DirectCatalogReader serves the catalog straight from the repository, used
// when redis is disabled
type DirectCatalogReader struct {
	products catalog.ProductRepository
}

// NewDirectCatalogReader creates a new DirectCatalogReader
func NewDirectCatalogReader(products catalog.ProductRepository) *DirectCatalogReader {
	return &DirectCatalogReader{products: products}
}

// ListProducts returns the active catalog
func (r *DirectCatalogReader) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return r.products.FindAllActive(ctx)
}

// Ensure DirectCatalogReader implements CatalogReader
var _ chat.CatalogReader = (*DirectCatalogReader)(nil)
