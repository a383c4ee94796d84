package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/darasahq/darasa/internal/domain"
)

// Cache is a read-through Redis cache in front of a catalog. Every
// progress write triggers a full history re-aggregation, so the same unit
// and exercise records are fetched over and over; the cache keeps those
// reads off the upstream. Cache failures degrade to the inner catalog.
type Cache struct {
	inner domain.Catalog
	rdb   *goredis.Client
	ttl   time.Duration
}

// NewCache creates a caching catalog with the given entry TTL.
func NewCache(inner domain.Catalog, rdb *goredis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{inner: inner, rdb: rdb, ttl: ttl}
}

// GetUnit returns the unit from cache, falling back to the inner catalog.
func (c *Cache) GetUnit(ctx context.Context, unitID string) (*domain.Unit, error) {
	key := "catalog:unit:" + unitID

	body, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var unit domain.Unit
		if err := json.Unmarshal(body, &unit); err == nil {
			return &unit, nil
		}
		// Corrupt entry: fall through and overwrite.
	} else if !errors.Is(err, goredis.Nil) {
		slog.Warn("catalog cache read failed", "key", key, "error", err)
	}

	unit, err := c.inner.GetUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, unit)
	return unit, nil
}

// GetExercises serves the batched exercise lookup with one MGET, fetching
// only the misses from the inner catalog.
func (c *Cache) GetExercises(ctx context.Context, ids []string) (map[string]domain.Exercise, error) {
	if len(ids) == 0 {
		return map[string]domain.Exercise{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = "catalog:exercise:" + id
	}

	out := make(map[string]domain.Exercise, len(ids))
	var misses []string

	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Warn("catalog cache mget failed", "keys", len(keys), "error", err)
		return c.inner.GetExercises(ctx, ids)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var ex domain.Exercise
		if err := json.Unmarshal([]byte(raw), &ex); err != nil {
			misses = append(misses, ids[i])
			continue
		}
		out[ids[i]] = ex
	}

	if len(misses) > 0 {
		fetched, err := c.inner.GetExercises(ctx, misses)
		if err != nil {
			return nil, err
		}
		pipe := c.rdb.Pipeline()
		for id, ex := range fetched {
			out[id] = ex
			if body, err := json.Marshal(ex); err == nil {
				pipe.Set(ctx, "catalog:exercise:"+id, body, c.ttl)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			slog.Warn("catalog cache fill failed", "error", err)
		}
	}
	return out, nil
}

// ListUnits always hits the inner catalog; the full list is an admin-path
// read and caching it would hide newly published units for a whole TTL.
func (c *Cache) ListUnits(ctx context.Context) ([]*domain.Unit, error) {
	return c.inner.ListUnits(ctx)
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, body, c.ttl).Err(); err != nil {
		slog.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

var _ domain.Catalog = (*Cache)(nil)
