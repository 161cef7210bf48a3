package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("test.db")

	assert.Equal(t, "test.db", config.Path)
	assert.Equal(t, 4, config.MaxOpenConns)
	assert.Equal(t, 5*time.Second, config.BusyTimeout)
	assert.Equal(t, "WAL", config.JournalMode)
	assert.Equal(t, "NORMAL", config.Synchronous)
	assert.True(t, config.AutoMigrate)
}

func TestOpenWithNilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestOpen_MemoryHasSchema(t *testing.T) {
	db, err := Open(DefaultConfig(MemoryPath))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())

	var n int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&n))
	assert.Zero(t, n)
}

func TestClose(t *testing.T) {
	db, err := Open(DefaultConfig(MemoryPath))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(), "ping after close")
}

func TestMigrationManager_UpDown(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migration-test.db")

	mgr, err := NewMigrationManager(dbPath)
	require.NoError(t, err)
	require.NoError(t, mgr.Up())
	require.NoError(t, mgr.Up(), "second Up is a no-op")

	version, dirty, err := mgr.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)

	require.NoError(t, mgr.Down())
	version, _, err = mgr.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	require.NoError(t, mgr.Close())
}

func TestOpen_FileRunsMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auto.db")

	db, err := Open(DefaultConfig(dbPath))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	mgr, err := NewMigrationManager(dbPath)
	require.NoError(t, err)
	defer mgr.Close()

	version, dirty, err := mgr.Version()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(1), version)
}
