// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package database_test

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/oliverandrich/inkwell/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db interface {
	Get(dest any, query string, args ...any) error
}, name string) bool {
	t.Helper()
	var count int64
	err := db.Get(&count, "SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", name)
	require.NoError(t, err)
	return count == 1
}

func TestOpen_InMemory(t *testing.T) {
	db, err := database.Open(":memory:")

	require.NoError(t, err)
	require.NotNil(t, db)

	err = db.Close()
	require.NoError(t, err)
}

func TestOpen_DefaultDSN(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	_ = os.Chdir(tmpDir)
	defer func() {
		_ = os.Chdir(oldWd)
	}()

	db, err := database.Open("")

	require.NoError(t, err)
	require.NotNil(t, db)
	defer func() {
		_ = db.Close()
	}()

	_, err = os.Stat(filepath.Join(tmpDir, "data", "inkwell.db"))
	assert.NoError(t, err)
}

func TestOpen_MigrationsApplied(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	for _, table := range []string{"accounts", "sessions", "categories", "tags", "posts", "post_categories", "post_tags"} {
		assert.True(t, tableExists(t, db, table), "table %s should exist", table)
	}
}

func TestOpen_WithExistingParams(t *testing.T) {
	db, err := database.Open(":memory:?cache=shared")

	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		_ = db.Close()
	}()
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	var enabled int
	err = db.Get(&enabled, "PRAGMA foreign_keys")
	require.NoError(t, err)
	assert.Equal(t, 1, enabled)
}

func TestOpen_PostStatusConstraint(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	_, err = db.Exec(`INSERT INTO accounts (username, email, password_hash, created_at, updated_at)
		VALUES ('author', 'author@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO posts (title, author_id, status, created_at, updated_at)
		VALUES ('t', 1, 'archived', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestOpen_FileDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := tmpDir + "/subdir/test.db"

	db, err := database.Open(dbPath)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	assert.True(t, tableExists(t, db, "accounts"))
}

func TestOpen_ModeMemory(t *testing.T) {
	db, err := database.Open("file::memory:?mode=memory")

	require.NoError(t, err)
	require.NotNil(t, db)

	defer func() {
		_ = db.Close()
	}()
}

func TestVersionAndMigrateDown(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	version, err := database.Version(db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	require.NoError(t, database.MigrateDown(db.DB))

	version, err = database.Version(db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.True(t, tableExists(t, db, "posts"))

	require.NoError(t, database.MigrateDown(db.DB))

	version, err = database.Version(db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.False(t, tableExists(t, db, "posts"))
	assert.True(t, tableExists(t, db, "accounts"))
}

func TestConnect_LeavesSchemaAlone(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "inkwell.db")

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	assert.False(t, tableExists(t, db, "accounts"))
	require.NoError(t, db.Close())

	db, err = database.Open(dsn)
	require.NoError(t, err)
	require.NoError(t, database.MigrateDown(db.DB))
	require.NoError(t, db.Close())

	db, err = database.Connect(dsn)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()
	version, err := database.Version(db.DB)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}

func TestCasefold(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	assert.Equal(t, "éclair über", database.Casefold("ÉCLAIR Über"))

	var folded string
	require.NoError(t, db.Get(&folded, "SELECT casefold(?)", "Привет МИР"))
	assert.Equal(t, "привет мир", folded)

	var null sql.NullString
	require.NoError(t, db.Get(&null, "SELECT casefold(NULL)"))
	assert.False(t, null.Valid)
}
