package database

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens a fresh in-memory SQLite database with the full schema
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConnectIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, initializeSchema(db))
}

func TestConnectCreatesDataDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/espbot.db"
	db, err := Connect("sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.FileExists(t, path)
}
