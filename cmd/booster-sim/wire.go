package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/config"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/scryfall"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards/setcache"
	"github.com/ramonehamilton/booster-sim/internal/storage"
	"github.com/ramonehamilton/booster-sim/internal/version"
)

// closers runs cleanup funcs in reverse order.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func needsRedis(cfg *config.Config) bool {
	return cfg.Cache.Backend == config.BackendRedis || cfg.Snapshot.Backend == config.BackendRedis
}

func newRedis(cfg *config.Config, cl *closers) *redis.Client {
	client := storage.NewRedisClient(storage.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cl.add(func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Error closing redis client")
		}
	})
	return client
}

func newScryfall(cfg config.ScryfallConfig) *scryfall.Client {
	opts := []scryfall.Option{
		scryfall.WithRateLimit(config.Duration(cfg.RateLimit, 100*time.Millisecond)),
		scryfall.WithHTTPClient(&http.Client{Timeout: config.Duration(cfg.Timeout, 30*time.Second)}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, scryfall.WithBaseURL(cfg.BaseURL))
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	opts = append(opts, scryfall.WithUserAgent(ua))
	return scryfall.NewClient(opts...)
}

func newPoolCache(cfg config.CacheConfig, client *redis.Client) setcache.PoolCache {
	ttl := config.Duration(cfg.TTL, 24*time.Hour)
	if cfg.Backend == config.BackendRedis {
		return setcache.NewRedisCache(client, ttl, cfg.Prefix)
	}
	return setcache.NewMemoryCache(ttl)
}

// openSink opens the snapshot backend named by cfg.Snapshot.Backend.
func openSink(ctx context.Context, cfg *config.Config, client *redis.Client, cl *closers) (storage.Sink, error) {
	switch cfg.Snapshot.Backend {
	case config.BackendMemory:
		return storage.NewMemorySink(), nil

	case config.BackendRedis:
		return storage.NewRedisSink(client), nil

	case config.BackendPostgres:
		pool, err := storage.NewPostgresPool(ctx, storage.PostgresConfig{
			DSN:      cfg.Snapshot.PostgresDSN,
			MaxConns: cfg.Snapshot.PostgresMaxConns,
		})
		if err != nil {
			return nil, err
		}
		cl.add(pool.Close)
		return storage.NewPostgresSink(pool), nil

	case config.BackendSQLite:
		db, err := storage.Open(storage.DefaultConfig(cfg.Snapshot.Path))
		if err != nil {
			return nil, err
		}
		cl.add(func() {
			if err := db.Close(); err != nil {
				log.WithError(err).Warn("Error closing database")
			}
		})
		return storage.NewSQLiteSink(db), nil

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}
}
