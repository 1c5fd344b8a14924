// internal/repository/redis_gateway.go
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisGateway keeps one hash per collection (id -> envelope) and one set
// per owner holding that owner's IDs.
type RedisGateway struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisGateway(rdb redis.Cmdable, prefix string) *RedisGateway {
	if prefix == "" {
		prefix = "deals"
	}
	return &RedisGateway{rdb: rdb, prefix: prefix}
}

func (g *RedisGateway) hashKey(c Collection) string {
	return fmt.Sprintf("%s:%s", g.prefix, c)
}

func (g *RedisGateway) ownerKey(c Collection, ownerID string) string {
	return fmt.Sprintf("%s:%s:owner:%s", g.prefix, c, ownerID)
}

func (g *RedisGateway) ListByOwner(ctx context.Context, c Collection, ownerID string) ([]Record, error) {
	ids, err := g.rdb.SMembers(ctx, g.ownerKey(c, ownerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s ids for %s: %w", c, ownerID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	vals, err := g.rdb.HMGet(ctx, g.hashKey(c), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load %s for %s: %w", c, ownerID, err)
	}

	records := make([]Record, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// index entry without a record; tolerated
			continue
		}
		rec, err := decodeEnvelope(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s record: %w", c, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (g *RedisGateway) GetAll(ctx context.Context, c Collection) ([]Record, error) {
	all, err := g.rdb.HGetAll(ctx, g.hashKey(c)).Result()
	if err != nil {
		return nil, fmt.Errorf("load all %s: %w", c, err)
	}

	records := make([]Record, 0, len(all))
	for _, raw := range all {
		rec, err := decodeEnvelope(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s record: %w", c, err)
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (g *RedisGateway) Get(ctx context.Context, c Collection, id string) (Record, error) {
	raw, err := g.rdb.HGet(ctx, g.hashKey(c), id).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", c, id, err)
	}
	return decodeEnvelope(raw)
}

func (g *RedisGateway) Put(ctx context.Context, c Collection, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c, rec.ID, err)
	}

	prev, err := g.Get(ctx, c, rec.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	pipe := g.rdb.TxPipeline()
	pipe.HSet(ctx, g.hashKey(c), rec.ID, payload)
	if prev.OwnerID != "" && prev.OwnerID != rec.OwnerID {
		pipe.SRem(ctx, g.ownerKey(c, prev.OwnerID), rec.ID)
	}
	pipe.SAdd(ctx, g.ownerKey(c, rec.OwnerID), rec.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put %s/%s: %w", c, rec.ID, err)
	}
	return nil
}

func (g *RedisGateway) Remove(ctx context.Context, c Collection, id string) error {
	prev, err := g.Get(ctx, c, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := g.rdb.TxPipeline()
	pipe.HDel(ctx, g.hashKey(c), id)
	pipe.SRem(ctx, g.ownerKey(c, prev.OwnerID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove %s/%s: %w", c, id, err)
	}
	return nil
}

func decodeEnvelope(raw string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}
