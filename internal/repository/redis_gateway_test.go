// internal/repository/redis_gateway_test.go
package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func record(id, owner, body string) Record {
	return Record{ID: id, OwnerID: owner, Body: json.RawMessage(body)}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestRedisGateway_PutAndGet(t *testing.T) {
	rdb, _ := newTestRedis(t)
	gw := NewRedisGateway(rdb, "test")
	ctx := context.Background()

	require.NoError(t, gw.Put(ctx, CollectionSets, record("set-1", "seller-a", `{"id":"set-1"}`)))

	got, err := gw.Get(ctx, CollectionSets, "set-1")
	require.NoError(t, err)
	assert.Equal(t, "seller-a", got.OwnerID)
	assert.JSONEq(t, `{"id":"set-1"}`, string(got.Body))
}

func TestRedisGateway_GetMissing(t *testing.T) {
	rdb, _ := newTestRedis(t)
	gw := NewRedisGateway(rdb, "test")

	_, err := gw.Get(context.Background(), CollectionProjects, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisGateway_ListByOwner(t *testing.T) {
	rdb, _ := newTestRedis(t)
	gw := NewRedisGateway(rdb, "test")
	ctx := context.Background()

	require.NoError(t, gw.Put(ctx, CollectionProjects, record("p-2", "seller-a", `{}`)))
	require.NoError(t, gw.Put(ctx, CollectionProjects, record("p-1", "seller-a", `{}`)))
	require.NoError(t, gw.Put(ctx, CollectionProjects, record("p-3", "seller-b", `{}`)))

	recs, err := gw.ListByOwner(ctx, CollectionProjects, "seller-a")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "p-1", recs[0].ID)
	assert.Equal(t, "p-2", recs[1].ID)

	recs, err = gw.ListByOwner(ctx, CollectionProjects, "seller-c")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRedisGateway_GetAll(t *testing.T) {
	rdb, _ := newTestRedis(t)
	gw := NewRedisGateway(rdb, "test")
	ctx := context.Background()

	require.NoError(t, gw.Put(ctx, CollectionSellers, record("b", "b", `{}`)))
	require.NoError(t, gw.Put(ctx, CollectionSellers, record("a", "a", `{}`)))

	recs, err := gw.GetAll(ctx, CollectionSellers)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID)
}

func TestRedisGateway_PutIsUpsert(t *testing.T) {
	rdb, mr := newTestRedis(t)
	gw := NewRedisGateway(rdb, "test")
	ctx := context.Background()

	require.NoError(t, gw.Put(ctx, CollectionSets, record("set-1", "seller-a", `{"v":1}`)))
	require.NoError(t, gw.Put(ctx, CollectionSets, record("set-1", "seller-b", `{"v":2}`)))

	got, err := gw.Get(ctx, CollectionSets, "set-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got.Body))

	assert.False(t, isMember(t, mr, "test:sets:owner:seller-a", "set-1"))
	assert.True(t, isMember(t, mr, "test:sets:owner:seller-b", "set-1"))
}

func TestRedisGateway_Remove(t *testing.T) {
	rdb, mr := newTestRedis(t)
	gw := NewRedisGateway(rdb, "test")
	ctx := context.Background()

	require.NoError(t, gw.Put(ctx, CollectionSets, record("set-1", "seller-a", `{}`)))
	require.NoError(t, gw.Remove(ctx, CollectionSets, "set-1"))

	_, err := gw.Get(ctx, CollectionSets, "set-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("test:sets:owner:seller-a"))

	t.Run("missing id is a no-op", func(t *testing.T) {
		assert.NoError(t, gw.Remove(ctx, CollectionSets, "never-existed"))
	})
}

func TestRedisGateway_ToleratesDanglingIndex(t *testing.T) {
	rdb, mr := newTestRedis(t)
	gw := NewRedisGateway(rdb, "test")
	ctx := context.Background()

	require.NoError(t, gw.Put(ctx, CollectionSets, record("set-1", "seller-a", `{}`)))
	_, err := mr.SAdd("test:sets:owner:seller-a", "ghost")
	require.NoError(t, err)

	recs, err := gw.ListByOwner(ctx, CollectionSets, "seller-a")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "set-1", recs[0].ID)
}

func isMember(t *testing.T, mr *miniredis.Miniredis, key, member string) bool {
	t.Helper()
	ok, err := mr.SIsMember(key, member)
	if err != nil {
		return false
	}
	return ok
}
