package setcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

func samplePool() []cards.Card {
	return []cards.Card{
		{ID: "1", Name: "Shock", Rarity: cards.Common, PriceHint: decimal.RequireFromString("0.05")},
		{ID: "2", Name: "Shivan Dragon", Rarity: cards.Rare, PriceHint: decimal.RequireFromString("3.10")},
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "dmu", samplePool()))

	list, ok, err := c.Get(ctx, "dmu")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, list, 2)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "dmu")
	assert.False(t, ok)

	removed, err := c.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	require.NoError(t, c.Set(ctx, "dmu", samplePool()))

	c.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	_, ok, _ := c.Get(ctx, "dmu")
	assert.True(t, ok)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	c := NewRedisCache(client, time.Hour, "")

	_, ok, err := c.Get(ctx, "dmu")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "dmu", samplePool()))
	assert.True(t, mr.Exists("booster-sim:pool:dmu"))

	list, ok, err := c.Get(ctx, "dmu")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, list, 2)
	assert.Equal(t, "Shivan Dragon", list[1].Name)
	assert.True(t, decimal.RequireFromString("3.10").Equal(list[1].PriceHint))

	mr.FastForward(2 * time.Hour)
	_, ok, _ = c.Get(ctx, "dmu")
	assert.False(t, ok)
}
