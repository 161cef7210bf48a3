package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// PostgresConfig holds pool settings for a Postgres sink.
type PostgresConfig struct {
	DSN      string
	MaxConns int32
	MinConns int32
}

// NewPostgresPool opens and pings a pgx connection pool.
func NewPostgresPool(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}

	log.Info("[Storage] Connected to PostgreSQL")
	return pool, nil
}

const createSnapshotsPG = `
	CREATE TABLE IF NOT EXISTS snapshots (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// PostgresSink stores snapshots in a Postgres snapshots table, creating it on
// first use.
type PostgresSink struct {
	pool *pgxpool.Pool

	mu    sync.Mutex
	ready bool
}

// NewPostgresSink wraps an existing pool.
func NewPostgresSink(pool *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{pool: pool}
}

func (p *PostgresSink) ensureTable(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ready {
		return nil
	}
	if _, err := p.pool.Exec(ctx, createSnapshotsPG); err != nil {
		return fmt.Errorf("failed to create snapshots table: %w", err)
	}
	p.ready = true
	return nil
}

func (p *PostgresSink) Get(ctx context.Context, key string) ([]byte, error) {
	if err := p.ensureTable(ctx); err != nil {
		return nil, err
	}

	var value []byte
	err := p.pool.QueryRow(ctx, "SELECT value FROM snapshots WHERE key = $1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresSink) Put(ctx context.Context, key string, value []byte) error {
	if err := p.ensureTable(ctx); err != nil {
		return err
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO snapshots (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", key, err)
	}
	return nil
}

func (p *PostgresSink) Delete(ctx context.Context, key string) error {
	if err := p.ensureTable(ctx); err != nil {
		return err
	}

	if _, err := p.pool.Exec(ctx, "DELETE FROM snapshots WHERE key = $1", key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}
