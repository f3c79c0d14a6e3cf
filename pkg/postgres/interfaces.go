package postgres

import (
	"context"
	"database/sql"
)

// Client represents a PostgreSQL client interface for testing and abstraction
type Client interface {
	// Connect establishes a connection to the PostgreSQL database
	Connect(ctx context.Context) error

	// Disconnect closes the connection to the PostgreSQL database
	Disconnect() error

	// DB returns the underlying connection pool
	DB() *sql.DB

	// Exec executes a query without returning any rows
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// Query executes a query that returns rows
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)

	// QueryRow executes a query that is expected to return at most one row
	QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row

	// Ping tests the database connection
	Ping(ctx context.Context) error
}
