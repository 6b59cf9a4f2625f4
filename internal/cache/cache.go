// Package cache memoizes computed dashboard and fleet views in Redis.
// Entries are dropped whenever a write touches the site they were built from.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sitePrefix  = "solar:site:"
	fleetPrefix = "solar:fleet:"
	scanBatch   = 200
)

// Cache is safe to use as a nil pointer, in which case every lookup misses.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// SiteKey builds a key scoped to one site, e.g. SiteKey(3, "dashboard", "fy", "2023").
func SiteKey(siteID int64, parts ...string) string {
	return fmt.Sprintf("%s%d:%s", sitePrefix, siteID, strings.Join(parts, ":"))
}

// FleetKey builds a key for a view spanning every site.
func FleetKey(parts ...string) string {
	return fleetPrefix + strings.Join(parts, ":")
}

// Get decodes the cached value into dst and reports whether it was present.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v interface{}) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

// InvalidateSite drops every entry of the site plus all fleet views.
func (c *Cache) InvalidateSite(ctx context.Context, siteID int64) error {
	if c == nil {
		return nil
	}
	if err := c.deletePattern(ctx, fmt.Sprintf("%s%d:*", sitePrefix, siteID)); err != nil {
		return err
	}
	return c.deletePattern(ctx, fleetPrefix+"*")
}

func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
