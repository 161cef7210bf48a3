package setcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// PoolCache stores the normalized card list of a set.
type PoolCache interface {
	Get(ctx context.Context, setCode string) ([]cards.Card, bool, error)
	Set(ctx context.Context, setCode string, list []cards.Card) error
	// Prune drops expired entries and returns how many were removed.
	Prune(ctx context.Context) (int, error)
}

type memoryEntry struct {
	cards     []cards.Card
	expiresAt time.Time
}

// MemoryCache is an in-process PoolCache with a fixed TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache. A zero ttl never expires.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, setCode string) ([]cards.Card, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[setCode]
	if !ok || m.expired(e) {
		return nil, false, nil
	}
	return e.cards, true, nil
}

func (m *MemoryCache) Set(_ context.Context, setCode string, list []cards.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{cards: list}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[setCode] = e
	return nil
}

func (m *MemoryCache) Prune(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for code, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, code)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryCache) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && m.now().After(e.expiresAt)
}

// RedisCache is a PoolCache backed by Redis. Expiry is left to Redis TTLs.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a RedisCache storing keys under prefix.
func NewRedisCache(client *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "booster-sim:pool:"
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

func (r *RedisCache) key(setCode string) string {
	return r.prefix + setCode
}

func (r *RedisCache) Get(ctx context.Context, setCode string) ([]cards.Card, bool, error) {
	val, err := r.client.Get(ctx, r.key(setCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get pool %s: %w", setCode, err)
	}

	var list []cards.Card
	if err := json.Unmarshal(val, &list); err != nil {
		return nil, false, fmt.Errorf("decode pool %s: %w", setCode, err)
	}
	return list, true, nil
}

func (r *RedisCache) Set(ctx context.Context, setCode string, list []cards.Card) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode pool %s: %w", setCode, err)
	}
	return r.client.Set(ctx, r.key(setCode), data, r.ttl).Err()
}

// Prune is a no-op; Redis expires keys itself.
func (r *RedisCache) Prune(context.Context) (int, error) {
	return 0, nil
}
