// Package dbtest opens migrated sqlite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"flightsync/pkg/db"

	"github.com/stretchr/testify/require"
)

// NewSQLite returns a client over a fresh, fully migrated sqlite file in t's temp dir.
func NewSQLite(t *testing.T) *db.SQLClient {
	t.Helper()

	path := filepath.Join(t.TempDir(), "flights.db")
	require.NoError(t, db.Migrate(db.DialectSQLite, "sqlite://"+path))

	client, err := db.NewSQLClient("sqlite", db.SQLiteDSN(path), db.PoolConfig{MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, client *db.SQLClient, table string) int {
	t.Helper()

	var n int
	require.NoError(t, client.QueryRowContext(t.Context(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
