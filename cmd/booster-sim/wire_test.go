package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/booster-sim/internal/config"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/setcache"
	"github.com/ramonehamilton/booster-sim/internal/storage"
)

func TestClosersRunInReverse(t *testing.T) {
	var order []int
	var cl closers
	cl.add(func() { order = append(order, 1) })
	cl.add(func() { order = append(order, 2) })
	cl.run()
	assert.Equal(t, []int{2, 1}, order)
}

func TestOpenSink(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Snapshot.Backend = config.BackendMemory
		var cl closers
		sink, err := openSink(ctx, cfg, nil, &cl)
		require.NoError(t, err)
		assert.IsType(t, &storage.MemorySink{}, sink)
		assert.Empty(t, cl)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Snapshot.Backend = config.BackendSQLite
		cfg.Snapshot.Path = filepath.Join(t.TempDir(), "snap.db")
		var cl closers
		sink, err := openSink(ctx, cfg, nil, &cl)
		require.NoError(t, err)
		defer cl.run()

		require.NoError(t, sink.Put(ctx, "k", []byte("v")))
		got, err := sink.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v"), got)
		assert.Len(t, cl, 1)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.DefaultConfig()
		cfg.Snapshot.Backend = config.BackendRedis
		cfg.Redis.Addr = mr.Addr()
		require.True(t, needsRedis(cfg))

		var cl closers
		defer cl.run()
		sink, err := openSink(ctx, cfg, newRedis(cfg, &cl), &cl)
		require.NoError(t, err)
		require.NoError(t, sink.Put(ctx, "k", []byte("v")))
		assert.True(t, mr.Exists("k"))
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Snapshot.Backend = "floppy"
		var cl closers
		_, err := openSink(ctx, cfg, nil, &cl)
		assert.Error(t, err)
	})
}

func TestNewPoolCache(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.False(t, needsRedis(cfg))
	assert.IsType(t, &setcache.MemoryCache{}, newPoolCache(cfg.Cache, nil))

	mr := miniredis.RunT(t)
	cfg.Cache.Backend = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	var cl closers
	defer cl.run()
	assert.IsType(t, &setcache.RedisCache{}, newPoolCache(cfg.Cache, newRedis(cfg, &cl)))
}

func TestNewScryfall(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scryfall.BaseURL = "http://127.0.0.1:1"
	assert.NotNil(t, newScryfall(cfg.Scryfall))
}
