package db

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" with database/sql
	_ "modernc.org/sqlite"             // registers "sqlite" with database/sql
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// DriverName maps a dialect to the database/sql driver registered for it.
func DriverName(dialect string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported db dialect: %q", dialect)
	}
}

// SQLiteDSN enables foreign keys and a busy timeout on every pooled connection.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
