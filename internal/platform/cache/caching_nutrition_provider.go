// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"calorievisor_backend/internal/feature/foodanalysis/domain/entity"
	"calorievisor_backend/internal/feature/foodanalysis/usecase"
)

// DefaultNutritionTTL is the lifetime of a cached provider answer.
const DefaultNutritionTTL = 24 * time.Hour

// flightTimeout bounds a shared lookup independently of any single caller's deadline.
const flightTimeout = usecase.DefaultResolveTimeout

// CachingNutritionProvider decorates a NutritionProvider with Redis caching.
// Concurrent lookups for the same query share a single upstream call.
// Only successful lookups are cached; errors always reach the caller.
type CachingNutritionProvider struct {
	inner     usecase.NutritionProvider
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	group     singleflight.Group
}

var _ usecase.NutritionProvider = (*CachingNutritionProvider)(nil)

// NewCachingNutritionProvider decorates a NutritionProvider with Redis caching.
// If ttl is 0, it defaults to 24 hours. If namespace is empty, it uses "nutrition".
func NewCachingNutritionProvider(rdb *redis.Client, ttl time.Duration, inner usecase.NutritionProvider, namespace string) *CachingNutritionProvider {
	if ttl <= 0 {
		ttl = DefaultNutritionTTL
	}
	if namespace == "" {
		namespace = "nutrition"
	}
	return &CachingNutritionProvider{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Lookup returns the cached record for query, falling back to the inner provider.
// The shared flight runs detached from the caller that started it, so one cancelled
// request does not fail the others waiting on the same query. Each caller still
// returns as soon as its own ctx is done.
func (c *CachingNutritionProvider) Lookup(ctx context.Context, query string) (*entity.NutritionRecord, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(query, func() (any, error) {
		fctx, cancel := context.WithTimeout(flightCtx, flightTimeout)
		defer cancel()
		return c.lookup(fctx, query)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		rec := *res.Val.(*entity.NutritionRecord)
		return &rec, nil
	}
}

func (c *CachingNutritionProvider) lookup(ctx context.Context, query string) (*entity.NutritionRecord, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Lookup(ctx, query)
	}

	key := c.cacheKey(query)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.NutritionRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to provider
	out, err := c.inner.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// cacheKey generates a cache key for a normalized query.
func (c *CachingNutritionProvider) cacheKey(query string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(query))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
