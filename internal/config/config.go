package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
)

// EnvPrefix prefixes every environment override, e.g. BOOSTER_SERVER_ADDR.
const EnvPrefix = "BOOSTER"

// Snapshot backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" envconfig:"SERVER"`
	Economy  EconomyConfig  `toml:"economy" envconfig:"ECONOMY"`
	Scryfall ScryfallConfig `toml:"scryfall" envconfig:"SCRYFALL"`
	Cache    CacheConfig    `toml:"cache" envconfig:"CACHE"`
	Snapshot SnapshotConfig `toml:"snapshot" envconfig:"SNAPSHOT"`
	Redis    RedisConfig    `toml:"redis" envconfig:"REDIS"`
	Jobs     JobsConfig     `toml:"jobs" envconfig:"JOBS"`
	Log      LogConfig      `toml:"log" envconfig:"LOG"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr           string   `toml:"addr" split_words:"true"`
	AllowedOrigins []string `toml:"allowed_origins" split_words:"true"`
	ReadTimeout    string   `toml:"read_timeout" split_words:"true"`
	WriteTimeout   string   `toml:"write_timeout" split_words:"true"`
	RequestTimeout string   `toml:"request_timeout" split_words:"true"` // per request, covers pool fetches
}

// EconomyConfig contains the wallet settings. Amounts are decimal strings.
type EconomyConfig struct {
	StartingBalance string `toml:"starting_balance" split_words:"true"`
	PackPrice       string `toml:"pack_price" split_words:"true"`
	Seed            uint64 `toml:"seed" split_words:"true"` // 0 means unseeded
}

// ScryfallConfig contains card provider settings.
type ScryfallConfig struct {
	BaseURL   string `toml:"base_url" split_words:"true"`
	UserAgent string `toml:"user_agent" split_words:"true"`
	RateLimit string `toml:"rate_limit" split_words:"true"` // min delay between requests
	Timeout   string `toml:"timeout" split_words:"true"`
}

// CacheConfig contains card pool cache settings.
type CacheConfig struct {
	Backend string `toml:"backend" split_words:"true"` // memory or redis
	TTL     string `toml:"ttl" split_words:"true"`     // card pools
	SetsTTL string `toml:"sets_ttl" split_words:"true"`
	Prefix  string `toml:"prefix" split_words:"true"`
}

// SnapshotConfig selects where ledger snapshots are stored.
type SnapshotConfig struct {
	Backend          string `toml:"backend" split_words:"true"`
	Key              string `toml:"key" split_words:"true"`
	Path             string `toml:"path" split_words:"true"` // sqlite file
	PostgresDSN      string `toml:"postgres_dsn" split_words:"true"`
	PostgresMaxConns int32  `toml:"postgres_max_conns" split_words:"true"`
}

// RedisConfig is shared by the redis cache and snapshot backends.
type RedisConfig struct {
	Addr     string `toml:"addr" split_words:"true"`
	Password string `toml:"password" split_words:"true"`
	DB       int    `toml:"db" split_words:"true"`
}

// JobsConfig contains background job settings.
type JobsConfig struct {
	Enabled         bool   `toml:"enabled" split_words:"true"`
	RefreshSchedule string `toml:"refresh_schedule" split_words:"true"` // cron spec
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `toml:"level" split_words:"true"`
	Format string `toml:"format" split_words:"true"` // text or json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    "15s",
			WriteTimeout:   "2m",
			RequestTimeout: "90s",
		},
		Economy: EconomyConfig{
			StartingBalance: "50",
			PackPrice:       "5",
		},
		Scryfall: ScryfallConfig{
			BaseURL:   "https://api.scryfall.com",
			UserAgent: "BoosterSim/1.0",
			RateLimit: "100ms",
			Timeout:   "30s",
		},
		Cache: CacheConfig{
			Backend: BackendMemory,
			TTL:     "24h",
			SetsTTL: "6h",
			Prefix:  "booster-sim:pool:",
		},
		Snapshot: SnapshotConfig{
			Backend:          BackendSQLite,
			Key:              "magic-collection-storage",
			PostgresMaxConns: 4,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Jobs: JobsConfig{
			Enabled:         true,
			RefreshSchedule: "@every 6h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns the application directory, ~/.booster-sim.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".booster-sim"), nil
}

// DefaultPath returns the path to the configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load builds the configuration from defaults, the TOML file at path, any
// .env files, and BOOSTER_* environment variables, in that order. An empty
// path means DefaultPath. A missing file or .env is not an error. With no
// envFiles, ".env" in the working directory is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()
	if err := cfg.readFile(path); err != nil {
		return nil, err
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("apply environment: %w", err)
	}

	if cfg.Snapshot.Path == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		cfg.Snapshot.Path = filepath.Join(dir, "booster-sim.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Save writes the configuration to path as TOML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	durations := []struct {
		name, value string
	}{
		{"server.read_timeout", c.Server.ReadTimeout},
		{"server.write_timeout", c.Server.WriteTimeout},
		{"server.request_timeout", c.Server.RequestTimeout},
		{"scryfall.rate_limit", c.Scryfall.RateLimit},
		{"scryfall.timeout", c.Scryfall.Timeout},
		{"cache.ttl", c.Cache.TTL},
		{"cache.sets_ttl", c.Cache.SetsTTL},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
		if v < 0 {
			return fmt.Errorf("%s cannot be negative: %s", d.name, d.value)
		}
	}

	balance, err := decimal.NewFromString(c.Economy.StartingBalance)
	if err != nil {
		return fmt.Errorf("invalid economy.starting_balance %q: %w", c.Economy.StartingBalance, err)
	}
	if balance.IsNegative() {
		return fmt.Errorf("economy.starting_balance cannot be negative: %s", balance)
	}

	price, err := decimal.NewFromString(c.Economy.PackPrice)
	if err != nil {
		return fmt.Errorf("invalid economy.pack_price %q: %w", c.Economy.PackPrice, err)
	}
	if !price.IsPositive() {
		return fmt.Errorf("economy.pack_price must be positive: %s", price)
	}

	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}

	switch c.Snapshot.Backend {
	case BackendMemory, BackendSQLite, BackendRedis:
	case BackendPostgres:
		if c.Snapshot.PostgresDSN == "" {
			return errors.New("snapshot.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown snapshot.backend %q", c.Snapshot.Backend)
	}

	if c.Jobs.Enabled && strings.TrimSpace(c.Jobs.RefreshSchedule) == "" {
		return errors.New("jobs.refresh_schedule is required when jobs are enabled")
	}

	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}

	return nil
}

// StartingBalance returns the parsed starting balance. Call Validate first.
func (c *Config) StartingBalance() decimal.Decimal {
	return decimal.RequireFromString(c.Economy.StartingBalance)
}

// PackPrice returns the parsed pack price. Call Validate first.
func (c *Config) PackPrice() decimal.Decimal {
	return decimal.RequireFromString(c.Economy.PackPrice)
}

// Duration parses one of the validated duration strings, falling back to def.
func Duration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
