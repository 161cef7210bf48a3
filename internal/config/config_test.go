package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// noEnv is an env file that does not exist, so Load skips ./.env.
func noEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestDefaultConfig_IsValid(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.True(t, decimal.NewFromInt(50).Equal(c.StartingBalance()))
	assert.True(t, decimal.NewFromInt(5).Equal(c.PackPrice()))
	assert.Equal(t, BackendSQLite, c.Snapshot.Backend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nope.toml"), noEnv(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "24h", cfg.Cache.TTL)
	assert.NotEmpty(t, cfg.Snapshot.Path, "sqlite path defaults under the app dir")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[server]
addr = ":9999"

[economy]
starting_balance = "100"

[snapshot]
backend = "memory"
path = "/tmp/x.db"
`)

	cfg, err := Load(path, noEnv(t))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "15s", cfg.Server.ReadTimeout, "unset keys keep defaults")
	assert.True(t, decimal.NewFromInt(100).Equal(cfg.StartingBalance()))
	assert.Equal(t, "5", cfg.Economy.PackPrice)
	assert.Equal(t, BackendMemory, cfg.Snapshot.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.Snapshot.Path)
}

func TestLoad_EnvLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[economy]\npack_price = \"3\"\nstarting_balance = \"10\"\n")

	envFile := filepath.Join(dir, "test.env")
	writeFile(t, envFile, "BOOSTER_ECONOMY_PACK_PRICE=4\nBOOSTER_LOG_LEVEL=debug\n")
	t.Cleanup(func() {
		os.Unsetenv("BOOSTER_ECONOMY_PACK_PRICE")
		os.Unsetenv("BOOSTER_LOG_LEVEL")
	})

	t.Setenv("BOOSTER_ECONOMY_STARTING_BALANCE", "75.5")
	t.Setenv("BOOSTER_SERVER_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("BOOSTER_REDIS_ADDR", "cache:6380")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)

	assert.Equal(t, "4", cfg.Economy.PackPrice, ".env beats the file")
	assert.Equal(t, "75.5", cfg.Economy.StartingBalance, "environment beats the file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
}

func TestLoad_EnvBeatsDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	writeFile(t, envFile, "BOOSTER_SERVER_ADDR=:1111\n")
	t.Setenv("BOOSTER_SERVER_ADDR", ":2222")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"), envFile)
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.Server.Addr)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[server\naddr = ")

	_, err := Load(path, noEnv(t))
	assert.Error(t, err)

	writeFile(t, path, "[economy]\npack_price = \"free\"\n")
	_, err = Load(path, noEnv(t))
	assert.ErrorContains(t, err, "pack_price")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad duration", func(c *Config) { c.Cache.TTL = "soon" }, "cache.ttl"},
		{"negative duration", func(c *Config) { c.Scryfall.Timeout = "-1s" }, "scryfall.timeout"},
		{"negative balance", func(c *Config) { c.Economy.StartingBalance = "-1" }, "starting_balance"},
		{"zero pack price", func(c *Config) { c.Economy.PackPrice = "0" }, "pack_price"},
		{"cache backend", func(c *Config) { c.Cache.Backend = "sqlite" }, "cache.backend"},
		{"snapshot backend", func(c *Config) { c.Snapshot.Backend = "s3" }, "snapshot.backend"},
		{"postgres needs dsn", func(c *Config) { c.Snapshot.Backend = BackendPostgres }, "postgres_dsn"},
		{"schedule", func(c *Config) { c.Jobs.RefreshSchedule = " " }, "refresh_schedule"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			assert.ErrorContains(t, c.Validate(), tt.errMsg)
		})
	}

	c := DefaultConfig()
	c.Jobs.Enabled = false
	c.Jobs.RefreshSchedule = ""
	assert.NoError(t, c.Validate(), "schedule only matters when jobs run")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	c := DefaultConfig()
	c.Server.Addr = ":7000"
	c.Snapshot.Path = "/data/s.db"
	require.NoError(t, c.Save(path))

	got, err := Load(path, noEnv(t))
	require.NoError(t, err)
	assert.Equal(t, ":7000", got.Server.Addr)
	assert.Equal(t, "/data/s.db", got.Snapshot.Path)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 2*time.Second, Duration("2s", time.Minute))
	assert.Equal(t, time.Minute, Duration("bogus", time.Minute))
}

func TestApplyLogging(t *testing.T) {
	prevLevel, prevFormatter := log.GetLevel(), log.StandardLogger().Formatter
	t.Cleanup(func() {
		log.SetLevel(prevLevel)
		log.SetFormatter(prevFormatter)
	})

	require.NoError(t, ApplyLogging(LogConfig{Level: "warn", Format: "json"}))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	require.NoError(t, ApplyLogging(LogConfig{Format: "text"}))
	assert.Equal(t, log.InfoLevel, log.GetLevel())

	assert.Error(t, ApplyLogging(LogConfig{Level: "shout"}))
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[log]\nlevel = \"info\"\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) {
			select {
			case changes <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "other.toml"), "ignored")
	writeFile(t, path, "[log]\nlevel = \"debug\"\n")

	// WriteFile truncates first, so an intermediate reload may see defaults.
	deadline := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case c := <-changes:
			reloaded = c.Log.Level == "debug"
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
