// internal/repository/cache.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SummaryCache holds computed report payloads. Everything in it can be
// rebuilt from the record store, so it is the first thing dropped when a
// write is rejected.
type SummaryCache struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewSummaryCache returns a cache; ttl <= 0 disables it.
func NewSummaryCache(rdb redis.Cmdable, prefix string, ttl time.Duration) *SummaryCache {
	if prefix == "" {
		prefix = "deals"
	}
	return &SummaryCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *SummaryCache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

// Report keys carry the generation read before the report was built. A
// summary computed from rows an invalidation has since replaced is stored
// under a generation no reader asks for again.
func (c *SummaryCache) SellerKey(sellerID string, year int, gen int64) string {
	return fmt.Sprintf("%s:cache:summary:%s:%d:g%d", c.prefix, sellerID, year, gen)
}

func (c *SummaryCache) TeamKey(managerID string, year int, gen int64) string {
	return fmt.Sprintf("%s:cache:team:%s:%d:g%d", c.prefix, managerID, year, gen)
}

func (c *SummaryCache) CompanyKey(year int, gen int64) string {
	return fmt.Sprintf("%s:cache:company:%d:g%d", c.prefix, year, gen)
}

// generationKey lives outside the cache namespace so Purge never resets it.
// An empty ownerID names the shared generation behind team and company
// reports.
func (c *SummaryCache) generationKey(ownerID string) string {
	if ownerID == "" {
		return fmt.Sprintf("%s:cachegen", c.prefix)
	}
	return fmt.Sprintf("%s:cachegen:%s", c.prefix, ownerID)
}

// Generation returns the current generation for ownerID, or the shared one
// when ownerID is empty. It starts at zero.
func (c *SummaryCache) Generation(ctx context.Context, ownerID string) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	key := c.generationKey(ownerID)
	gen, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation %s: %w", key, err)
	}
	return gen, nil
}

// Get decodes a cached value into dest. A miss returns false with no error.
func (c *SummaryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *SummaryCache) Set(ctx context.Context, key string, value interface{}) error {
	if !c.enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// InvalidateOwner moves the owner and shared generations forward, then drops
// the owner's summaries plus every team and company summary, since any of
// them may include the owner's deals.
func (c *SummaryCache) InvalidateOwner(ctx context.Context, ownerID string) error {
	if !c.enabled() {
		return nil
	}
	for _, key := range []string{c.generationKey(ownerID), c.generationKey("")} {
		if err := c.rdb.Incr(ctx, key).Err(); err != nil {
			return fmt.Errorf("cache bump %s: %w", key, err)
		}
	}
	patterns := []string{
		fmt.Sprintf("%s:cache:summary:%s:*", c.prefix, ownerID),
		fmt.Sprintf("%s:cache:team:*", c.prefix),
		fmt.Sprintf("%s:cache:company:*", c.prefix),
	}
	for _, p := range patterns {
		if _, err := c.deleteMatching(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes every cached summary and reports how many keys went.
func (c *SummaryCache) Purge(ctx context.Context) (int, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	return c.deleteMatching(ctx, fmt.Sprintf("%s:cache:*", c.prefix))
}

func (c *SummaryCache) deleteMatching(ctx context.Context, pattern string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return deleted, fmt.Errorf("cache delete: %w", err)
			}
			deleted += len(keys)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
