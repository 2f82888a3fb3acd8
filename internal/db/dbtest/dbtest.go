// Package dbtest opens throwaway sqlite databases with the real migrations applied.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/templui/finboard/internal/db"
)

// Open returns a migrated database backed by a file in t.TempDir().
// A file is used instead of :memory: so every pooled connection sees the same data.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := db.Init("sqlite", path)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close(conn)
	})

	require.NoError(t, db.RunMigrations(conn.DB, "sqlite"))
	return conn
}
