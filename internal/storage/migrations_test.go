package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open(DriverName, ":memory:")
	require.NoError(t, err)
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestApplyMigrations(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, db))

	var version string
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version ORDER BY applied_at DESC LIMIT 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	for _, table := range []string{"chunks", "embeddings", "dataset_meta"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, ApplyMigrations(ctx, db))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRollbackMigration(t *testing.T) {
	db := openMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, ApplyMigrations(ctx, db))
	require.NoError(t, RollbackMigration(ctx, db))

	var name string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='chunks'").Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	// Re-applying after a full rollback restores the schema
	require.NoError(t, ApplyMigrations(ctx, db))
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='chunks'").Scan(&name)
	assert.NoError(t, err)
}

func TestRollbackMigration_Fresh(t *testing.T) {
	db := openMemoryDB(t)
	assert.Error(t, RollbackMigration(context.Background(), db))
}
