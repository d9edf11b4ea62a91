package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/storefront/internal/cart/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func testCart(ownerID string) *domain.Cart {
	return &domain.Cart{
		OwnerID: ownerID,
		Lines: []domain.CartLine{
			{ProductID: "p1", Name: "Scarf", UnitPriceCurrent: decimal.RequireFromString("19.99"), Quantity: 2},
			{ProductID: "p2", Name: "Tote", UnitPriceCurrent: decimal.RequireFromString("5"), Quantity: 3},
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestGet_Success(t *testing.T) {
	cache, mr := setupTestRedis(t)

	data, err := json.Marshal(testCart("user123"))
	require.NoError(t, err)
	require.NoError(t, mr.Set(cacheKey("user123"), string(data)))

	result, err := cache.Get(context.Background(), "user123")
	require.NoError(t, err)
	assert.Equal(t, "user123", result.OwnerID)
	require.Len(t, result.Lines, 2)
	assert.True(t, result.Lines[0].UnitPriceCurrent.Equal(decimal.RequireFromString("19.99")))
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	result, err := cache.Get(context.Background(), "nonexistent")

	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, result)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(cacheKey("user123"), "{not json"))

	result, err := cache.Get(context.Background(), "user123")

	assert.ErrorContains(t, err, "unmarshal cart failed")
	assert.Nil(t, result)
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, err := cache.Get(context.Background(), "user123")

	assert.ErrorContains(t, err, "redis get failed")
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_WritesWithJitteredTTL(t *testing.T) {
	cache, mr := setupTestRedis(t)

	require.NoError(t, cache.Set(context.Background(), testCart("user123")))

	assert.True(t, mr.Exists(cacheKey("user123")))
	ttl := mr.TTL(cacheKey("user123"))
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)
}

func TestDelete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, testCart("user123")))

	require.NoError(t, cache.Delete(ctx, "user123"))

	assert.False(t, mr.Exists(cacheKey("user123")))
	require.NoError(t, cache.Delete(ctx, "user123"))
}

func TestNoop_AlwaysMisses(t *testing.T) {
	var c CartCache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testCart("u1")))
	_, err := c.Get(ctx, "u1")

	assert.ErrorIs(t, err, ErrCacheMiss)
}
