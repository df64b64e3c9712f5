package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type TxFunc func(ctx context.Context, tx *sql.Tx) error

type ConnFunc func(ctx context.Context, conn *sql.Conn) error

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLExecutor defines the interface for database operations
// This allows for easy mocking in unit tests
type SQLExecutor interface {
	DB() *sql.DB
	WithTransaction(ctx context.Context, isolation sql.IsolationLevel, fn TxFunc) error
	WithConn(ctx context.Context, fn ConnFunc) error
	PingContext(ctx context.Context) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PoolConfig bounds the connection pool. Zero values keep the database/sql defaults.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type SQLClient struct {
	db *sql.DB
}

func NewSQLClient(driver, dsn string, pool PoolConfig) (*SQLClient, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if pool.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return &SQLClient{db: db}, nil
}

func (c *SQLClient) DB() *sql.DB {
	return c.db
}

func (c *SQLClient) Close() error {
	return c.db.Close()
}

func (c *SQLClient) PingContext(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// WithTransaction runs fn on a single pooled connection inside one transaction.
// The transaction is rolled back when fn returns an error or panics.
func (c *SQLClient) WithTransaction(ctx context.Context, isolation sql.IsolationLevel, fn TxFunc) (err error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback error: %v, original error: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit error: %w", err)
	}
	return nil
}

// WithConn pins one connection from the pool for the duration of fn and
// returns it to the pool on every exit path.
func (c *SQLClient) WithConn(ctx context.Context, fn ConnFunc) error {
	conn, err := c.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

// ExecContext executes a query without returning rows (INSERT/UPDATE/DELETE)
func (c *SQLClient) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns multiple rows
func (c *SQLClient) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns a single row
func (c *SQLClient) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}
