package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"intel-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "quiz:catalog"

// CatalogLoader fetches the catalog from the backing store.
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (domain.Catalog, error)
}

// CatalogCache keeps the whole ordered catalog as JSON in Redis and falls
// back to the loader on a miss. The catalog is immutable at runtime, so a
// cached copy never serves stale ordering decisions; per-person ledger state
// is deliberately never cached here.
type CatalogCache struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogCache(client *redis.Client, loader CatalogLoader, ttl time.Duration) *CatalogCache {
	return &CatalogCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type cachedCatalog struct {
	Weeks     []domain.Week     `json:"weeks"`
	Questions []domain.Question `json:"questions"`
}

// Catalog implements app.CatalogSource.
func (c *CatalogCache) Catalog(ctx context.Context) (domain.Catalog, error) {
	if catalog, ok := c.fromCache(ctx); ok {
		return catalog, nil
	}

	result, err, _ := c.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if catalog, ok := c.fromCache(ctx); ok {
			return catalog, nil
		}

		catalog, err := c.loader.LoadCatalog(ctx)
		if err != nil {
			return domain.Catalog{}, err
		}

		payload, err := json.Marshal(cachedCatalog{
			Weeks:     catalog.Weeks(),
			Questions: catalog.Questions(),
		})
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("marshal catalog: %w", err)
		}
		_ = c.client.Set(ctx, catalogKey, payload, c.ttlWithJitter()).Err()

		return catalog, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog), nil
}

// Invalidate drops the cached catalog, used after seed/import rewrites it.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, catalogKey).Err()
}

func (c *CatalogCache) fromCache(ctx context.Context) (domain.Catalog, bool) {
	raw, err := c.client.Get(ctx, catalogKey).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.Catalog{}, false
	}
	var cached cachedCatalog
	if err := json.Unmarshal(raw, &cached); err != nil {
		return domain.Catalog{}, false
	}
	catalog, err := domain.NewCatalog(cached.Weeks, cached.Questions)
	if err != nil {
		return domain.Catalog{}, false
	}
	return catalog, true
}

func (c *CatalogCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
